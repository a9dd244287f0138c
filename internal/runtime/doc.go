// Package runtime hosts Risor scripts that refine the merge policy.
//
// A policy script is evaluated once per member declaration with a "decl"
// map global describing it:
//
//	kind         "function" | "property" | "constructor"
//	name         simple name ("<init>" for constructors)
//	owner        "package" | "class"
//	visibility   declared visibility, may be empty
//	modality     declared modality, may be empty
//	annotations  list of annotation class names
//	modifiers    list of modifiers (functions only)
//	params       number of value parameters
//	receiver     receiver signature, or nil
//
// The value of the script's last expression decides: true or a non-empty
// string excludes the declaration, anything else keeps it. Host functions
// has_prefix(s, prefix) and has_annotation(decl, class) and a log object
// are available as globals.
package runtime
