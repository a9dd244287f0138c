// Package treemerge aligns per-target library metadata into a single merged
// declaration tree. Every node of the tree knows, for each target, whether
// and how the corresponding declaration exists there; a downstream
// commonization stage consumes the tree to decide which API is shared.
//
// # Pipeline
//
// A merge runs in three steps:
//
//  1. Forward declarations: interop modules of the dependee libraries are
//     scanned and their exported forward declarations are registered under
//     the real package each interop module declares into.
//
//  2. Targets: targets are folded into the tree one at a time, in the order
//     given. For each target its common modules are loaded in parallel and
//     then folded serially: module, packages, package members, then classes
//     top-down with their members. Modules that are not common are reported
//     as missing instead of merged.
//
//  3. Hand-off: the completed tree, the missing and absent module maps and
//     the forward-declaration registry are returned in a [Result].
//
// Members are aligned by approximation keys (see [approx.Policy]); classes
// and type aliases by simple name.
//
// # Usage
//
//	m := treemerge.New(treemerge.WithLogger(logger))
//	res, err := m.Merge(ctx, treemerge.Input{
//		Targets:       []treemerge.TargetSource{linuxX64, macosArm64},
//		CommonModules: []string{"stdlib", "posix"},
//	})
//	if err != nil { ... }
//	res.Tree.Walk(func(id tree.NodeID, depth int) bool { ... })
//
// A failed merge returns no tree. There is no partial result to resume
// from; fix the input and merge again from the first target.
package treemerge
