package treemerge

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/treemerge/internal/metadata"
	"github.com/jward/treemerge/internal/source"
	"github.com/jward/treemerge/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func mergeForReport(t *testing.T) *Result {
	t.Helper()
	interop := posixModule()
	interop.Interop = &metadata.InteropAttributes{MainPackage: "platform.posix", ExportForwardDeclarations: []string{"cnames.DIR"}}

	res, err := newTestMerger().Merge(context.Background(), Input{
		Targets: targets(
			source.NewMemory("linux_x64", interop, stdlibModule(), mod("zlib")),
			source.NewMemory("mingw_x64", stdlibModule()),
		),
		CommonModules: []string{"posix", "stdlib"},
	})
	require.NoError(t, err)
	return res
}

func TestResult_Report(t *testing.T) {
	t.Parallel()
	res := mergeForReport(t)

	report, err := res.Report("public_api", "abc")
	require.NoError(t, err)

	assert.Equal(t, 2, report.Run.TargetCount)
	assert.Equal(t, res.Tree.Len(), report.Run.NodeCount)
	assert.Len(t, report.Run.Digest, 16)
	assert.Equal(t, "public_api", report.Run.Policy)
	require.Len(t, report.Nodes, res.Tree.Len())

	root := report.Nodes[0]
	assert.Equal(t, "root", root.Kind)
	assert.Nil(t, root.ParentRef)
	assert.Equal(t, "++", root.Presence)
	for i, n := range report.Nodes {
		assert.Equal(t, i, n.Seq)
	}

	assert.Equal(t, []store.RunModule{
		{TargetIndex: 0, Module: "zlib", Status: store.ModuleMissing},
		{TargetIndex: 1, Module: "posix", Status: store.ModuleAbsent},
	}, report.Modules)
	assert.Equal(t, []string{"platform.posix.DIR"}, report.ForwardDeclarations)
	assert.Equal(t, "mingw_x64", report.Targets[1].Name)
}

func TestSaveResult_RoundTrip(t *testing.T) {
	t.Parallel()
	res := mergeForReport(t)
	s := newTestStore(t)

	id, err := SaveResult(s, res, "", "")
	require.NoError(t, err)

	nodes, err := s.NodesByRun(id, "posix/platform.posix/FILE")
	require.NoError(t, err)
	require.NotEmpty(t, nodes)
	assert.Equal(t, "posix/platform.posix/FILE", nodes[0].Path)
	assert.Equal(t, "+-", nodes[0].Presence)

	run, err := s.RunByID(id)
	require.NoError(t, err)
	digest, err := res.Tree.Digest()
	require.NoError(t, err)
	assert.Equal(t, run.Digest, fmtDigest(digest))
}
