package main

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/treemerge/internal/store"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const libcLinux = `
name: libc
interop:
  mainPackage: platform.posix
  exportForwardDeclarations: [cnames.structs.FILE]
fragments:
  - package: platform.posix
    classes:
      - name: platform/posix/stat
        kind: class
    functions:
      - name: fopen
        valueParameters:
          - {name: path, type: {classifier: kotlin/String}}
        returnType: {classifier: kotlinx/cinterop/CPointer}
      - name: epoll_create
        visibility: internal
        returnType: {classifier: kotlin/Int}
`

const libcMacos = `
name: libc
fragments:
  - package: platform.posix
    functions:
      - name: fopen
        valueParameters:
          - {name: path, type: {classifier: kotlin/String}}
        returnType: {classifier: kotlinx/cinterop/CPointer}
`

const zlibLinux = `
name: zlib
fragments:
  - package: platform.zlib
    functions:
      - {name: deflate, returnType: {classifier: kotlin/Int}}
`

// writeWorkspace lays out a two-target manifest under a temp dir and
// returns the manifest path.
func writeWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "linux_x64", "libc.yaml"), libcLinux)
	writeFile(t, filepath.Join(dir, "linux_x64", "zlib.yaml"), zlibLinux)
	writeFile(t, filepath.Join(dir, "macos", "libc.yml"), libcMacos)
	writeFile(t, filepath.Join(dir, "targets.yaml"), `
targets:
  - name: linux_x64
  - name: macos_arm64
    dir: macos
`)
	return filepath.Join(dir, "targets.yaml")
}

func TestLoadManifest_ResolvesRelativeDirs(t *testing.T) {
	t.Parallel()
	path := writeWorkspace(t)

	m, err := loadManifest(path)
	require.NoError(t, err)
	require.Len(t, m.Targets, 2)
	base := filepath.Dir(path)
	assert.Equal(t, filepath.Join(base, "linux_x64"), m.Targets[0].Dir)
	assert.Equal(t, filepath.Join(base, "macos"), m.Targets[1].Dir)
	assert.Empty(t, m.Common)
}

func TestLoadManifest_Errors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.yaml")
	writeFile(t, empty, "targets: []\n")
	_, err := loadManifest(empty)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no targets")

	dup := filepath.Join(dir, "dup.yaml")
	writeFile(t, dup, "targets:\n  - name: a\n  - name: a\n")
	_, err = loadManifest(dup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate target")

	_, err = loadManifest(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestResolveLocation(t *testing.T) {
	t.Parallel()
	assert.Equal(t, filepath.Join("/base", "x"), resolveLocation("/base", "x"))
	assert.Equal(t, "/abs/x", resolveLocation("/base", "/abs/x"))
	assert.Equal(t, "mem://localhost/x", resolveLocation("/base", "mem://localhost/x"))
}

func TestValidateFormat(t *testing.T) {
	t.Parallel()
	require.NoError(t, validateFormat("json"))
	require.NoError(t, validateFormat("text"))
	require.Error(t, validateFormat("yaml"))
}

func TestPresentTargets(t *testing.T) {
	t.Parallel()
	targets := []*store.RunTarget{{Index: 0, Name: "a"}, {Index: 1, Name: "b"}, {Index: 2, Name: "c"}}
	assert.Equal(t, []string{"a", "c"}, presentTargets("+-+", targets))
	assert.Equal(t, []string{}, presentTargets("---", targets))
}

func TestFormatNodesText(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	formatNodesText(&buf, []CLINode{
		{Path: "libc", Key: "libc", Kind: "module", Depth: 1, Presence: "++"},
		{Path: "libc/platform.posix", Key: "platform.posix", Kind: "package", Depth: 2, Presence: "++"},
		{Path: "libc/platform.posix/stat", Key: "stat", Kind: "class", Depth: 3, Presence: "+-"},
	})
	out := buf.String()
	assert.Contains(t, out, "PRESENCE")
	assert.Contains(t, out, "    stat")
	assert.Contains(t, out, "+-")
}

func TestFormatNodesText_MemberKeyWithClassifier(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	formatNodesText(&buf, []CLINode{
		{Path: "m/p", Key: "p", Kind: "package", Depth: 2, Presence: "+"},
		{Path: "m/p/fun:open(kotlin%2FString)", Key: "open(kotlin/String)", Kind: "function", Depth: 3, Presence: "+"},
	})
	out := buf.String()
	assert.Contains(t, out, "  open(kotlin/String)")
	assert.NotContains(t, out, " String)", "name is not cut at the classifier separator")
	assert.Contains(t, out, "m/p\n")
}

func TestWriteResultText_Unsupported(t *testing.T) {
	t.Parallel()
	err := writeResultText(&bytes.Buffer{}, CLIResult{Results: 42})
	require.Error(t, err)
}

func TestLoadPolicy_Bundled(t *testing.T) {
	t.Parallel()
	policy, hash, err := loadPolicy("public_api", quietLogger())
	require.NoError(t, err)
	assert.NotNil(t, policy)
	assert.Len(t, hash, 64)

	_, _, err = loadPolicy("does_not_exist", quietLogger())
	require.Error(t, err)
}

func TestLoadPolicy_FileHashMatchesSource(t *testing.T) {
	t.Parallel()
	src := `decl["name"] == "skip_me"`
	path := filepath.Join(t.TempDir(), "mine.risor")
	writeFile(t, path, src)

	policy, hash, err := loadPolicy(path, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, src, policy.Source())
	assert.Equal(t, fmt.Sprintf("%x", sha256.Sum256([]byte(src))), hash)
}

// TestRunMerge_EndToEnd drives the merge command and reads the report back.
// It mutates package flags, so it does not run in parallel.
func TestRunMerge_EndToEnd(t *testing.T) {
	t.Setenv("TREEMERGE_POLICY", "")
	manifest := writeWorkspace(t)
	dbPath := filepath.Join(t.TempDir(), "report.db")

	flagManifest, flagDB, flagFormat, flagPolicy = manifest, dbPath, "text", "public_api"
	t.Cleanup(func() {
		flagManifest, flagDB, flagFormat, flagPolicy = "targets.yaml", "", "json", ""
	})

	require.NoError(t, runMerge(mergeCmd, nil))

	s, err := store.NewStore(dbPath)
	require.NoError(t, err)
	defer s.Close()

	run, err := s.LatestRun()
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, 2, run.TargetCount)
	assert.Equal(t, "public_api", run.Policy)

	nodes, err := s.NodesByRun(run.ID, "libc/platform.posix")
	require.NoError(t, err)
	presence := make(map[string]string)
	for _, n := range nodes {
		presence[n.Path] = n.Presence
	}
	assert.Equal(t, "++", presence["libc/platform.posix"])
	assert.Equal(t, "+-", presence["libc/platform.posix/stat"])
	assert.Equal(t, "++", presence["libc/platform.posix/fun:fopen(kotlin%2FString)"])
	_, excluded := presence["libc/platform.posix/fun:epoll_create()"]
	assert.False(t, excluded, "internal declarations are dropped by the public_api policy")

	mods, err := s.ModulesByRun(run.ID)
	require.NoError(t, err)
	require.Len(t, mods, 1)
	assert.Equal(t, store.RunModule{RunID: run.ID, TargetIndex: 0, Module: "zlib", Status: store.ModuleMissing}, *mods[0])

	fwd, err := s.ForwardDeclarations(run.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"platform.posix.FILE"}, fwd)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
