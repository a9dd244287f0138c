package runtime

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/risor-io/risor/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/treemerge/internal/approx"
	"github.com/jward/treemerge/internal/metadata"
)

func TestRunSource_HasPrefix(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")

	res, err := rt.RunSource(context.Background(), `has_prefix(name, "kni")`, map[string]any{
		"name": object.NewString("kniBridge0"),
	})
	require.NoError(t, err)
	b, ok := res.(*object.Bool)
	require.True(t, ok, "expected bool, got %s", res.Type())
	assert.True(t, b.Value())
}

func TestRunSource_HasAnnotation(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")

	decl := object.NewMap(map[string]object.Object{
		"annotations": stringList([]string{"kotlin/Deprecated", "kotlin/native/CName"}),
	})
	res, err := rt.RunSource(context.Background(),
		`[has_annotation(decl, "kotlin/native/CName"), has_annotation(decl, "kotlin/Suppress")]`,
		map[string]any{"decl": decl})
	require.NoError(t, err)

	list, ok := res.(*object.List)
	require.True(t, ok)
	require.Len(t, list.Value(), 2)
	assert.Equal(t, object.True, list.Value()[0])
	assert.Equal(t, object.False, list.Value()[1])
}

func TestRunSource_SyntaxError(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")

	_, err := rt.RunSource(context.Background(), `decl[`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "<inline>")
}

func TestRunScript_FromDisk(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "policy"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "policy", "short.risor"), []byte(`len(name) < 3`), 0o644))

	rt := NewRuntime(dir)
	res, err := rt.RunScript(context.Background(), PolicyScriptPath("short"), map[string]any{
		"name": object.NewString("ab"),
	})
	require.NoError(t, err)
	assert.Equal(t, object.True, res)
}

func TestLoadScript_FS(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{
		"policy/keep.risor": &fstest.MapFile{Data: []byte(`false`)},
	}
	rt := NewRuntime("", WithRuntimeFS(fsys))

	src, err := rt.LoadScript("policy/keep.risor")
	require.NoError(t, err)
	assert.Equal(t, "false", src)

	_, err = rt.LoadScript("policy/missing.risor")
	require.Error(t, err)
}

func TestPolicyScriptPath(t *testing.T) {
	t.Parallel()
	assert.Equal(t, filepath.Join("policy", "public_api.risor"), PolicyScriptPath("public_api"))
	assert.Equal(t, "custom/mine.risor", PolicyScriptPath("custom/mine.risor"))
}

func TestScriptPolicy_ExcludesByName(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")
	p, err := NewInlinePolicy(rt, `decl["kind"] == "function" && has_prefix(decl["name"], "internal_")`, nil)
	require.NoError(t, err)

	assert.Equal(t, approx.ReasonScript,
		p.ExcludeFunction(&metadata.Function{Name: "internal_reset"}, approx.OwnerPackage))
	assert.Empty(t, p.ExcludeFunction(&metadata.Function{Name: "reset"}, approx.OwnerPackage))
	assert.Empty(t, p.ExcludeProperty(&metadata.Property{Name: "internal_state"}, approx.OwnerClass))
	require.NoError(t, p.Err())
	assert.Equal(t, 3, p.Evals())
}

func TestScriptPolicy_BaseExclusionsSkipScript(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")
	p, err := NewInlinePolicy(rt, `false`, approx.NewDefaultPolicy())
	require.NoError(t, err)

	assert.Equal(t, approx.ReasonFakeOverride,
		p.ExcludeFunction(&metadata.Function{Name: "hashCode", Kind: metadata.MemberFakeOverride}, approx.OwnerClass))
	assert.Equal(t, approx.ReasonSynthetic, p.ExcludeConstructor(&metadata.Constructor{Synthetic: true}))
	assert.Equal(t, 0, p.Evals())
}

func TestScriptPolicy_StringReason(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")
	p, err := NewInlinePolicy(rt, `decl["params"] > 2 ? "too_many_params" : ""`, nil)
	require.NoError(t, err)

	fn := &metadata.Function{Name: "f", ValueParameters: []metadata.ValueParameter{{Name: "a"}, {Name: "b"}, {Name: "c"}}}
	assert.Equal(t, approx.ReasonScript+":too_many_params", p.ExcludeFunction(fn, approx.OwnerClass))
	assert.Empty(t, p.ExcludeConstructor(&metadata.Constructor{}))
	require.NoError(t, p.Err())
}

func TestScriptPolicy_KeysFromBase(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")
	base := approx.NewDefaultPolicy()
	p, err := NewInlinePolicy(rt, `false`, base)
	require.NoError(t, err)

	fn := &metadata.Function{Name: "f"}
	assert.Equal(t, base.FunctionKey(fn), p.FunctionKey(fn))
}

func TestNewInlinePolicy_CompileError(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")
	_, err := NewInlinePolicy(rt, `undefined_global + 1`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "<inline>")
}

func TestScriptPolicy_CompiledOnce(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")
	p, err := NewInlinePolicy(rt, `has_prefix(decl["name"], "x")`, nil)
	require.NoError(t, err)
	code := p.code

	for _, name := range []string{"xa", "b", "xc"} {
		p.ExcludeFunction(&metadata.Function{Name: name}, approx.OwnerPackage)
	}
	assert.Same(t, code, p.code)
	assert.Equal(t, 3, p.Evals())
	require.NoError(t, p.Err())
}

func TestScriptPolicy_BoundContextStopsScript(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")
	p, err := NewInlinePolicy(rt, `for {}`, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	p.BindContext(ctx)

	assert.Empty(t, p.ExcludeFunction(&metadata.Function{Name: "f"}, approx.OwnerPackage))
	require.Error(t, p.Err())
	assert.ErrorIs(t, p.Err(), context.DeadlineExceeded)
}

func TestScriptPolicy_RecordsFirstError(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")
	p, err := NewInlinePolicy(rt, `decl["no_such_key"]`, nil)
	require.NoError(t, err)

	assert.Empty(t, p.ExcludeFunction(&metadata.Function{Name: "f"}, approx.OwnerPackage))
	assert.Empty(t, p.ExcludeFunction(&metadata.Function{Name: "g"}, approx.OwnerPackage))
	require.Error(t, p.Err())
	assert.Equal(t, 2, p.Evals())
}

func TestNewScriptPolicy_MissingScript(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("", WithRuntimeFS(fstest.MapFS{}))
	_, err := NewScriptPolicy(rt, PolicyScriptPath("nope"), nil)
	require.Error(t, err)
}
