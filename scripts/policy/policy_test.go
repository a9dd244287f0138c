package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/treemerge/internal/approx"
	"github.com/jward/treemerge/internal/metadata"
	"github.com/jward/treemerge/internal/runtime"
	"github.com/jward/treemerge/scripts"
)

func loadPolicy(t *testing.T, name string) *runtime.ScriptPolicy {
	t.Helper()
	rt := runtime.NewRuntime("", runtime.WithRuntimeFS(scripts.FS))
	p, err := runtime.NewScriptPolicy(rt, runtime.PolicyScriptPath(name), approx.NewDefaultPolicy())
	require.NoError(t, err)
	return p
}

func TestPublicAPI(t *testing.T) {
	t.Parallel()
	p := loadPolicy(t, "public_api")

	assert.Equal(t, approx.ReasonScript,
		p.ExcludeFunction(&metadata.Function{Name: "helper", Visibility: "internal"}, approx.OwnerPackage))
	assert.Equal(t, approx.ReasonScript,
		p.ExcludeProperty(&metadata.Property{Name: "cache", Visibility: "private"}, approx.OwnerClass))
	assert.Empty(t, p.ExcludeFunction(&metadata.Function{Name: "open", Visibility: "public"}, approx.OwnerPackage))
	assert.Empty(t, p.ExcludeConstructor(&metadata.Constructor{Visibility: "public"}))
	require.NoError(t, p.Err())
	assert.Equal(t, 4, p.Evals())
}

func TestNoDeprecated(t *testing.T) {
	t.Parallel()
	p := loadPolicy(t, "no_deprecated")

	deprecated := []metadata.Annotation{{Class: metadata.DeprecatedAnnotation}}

	// Top-level deprecations are already dropped by the base policy.
	assert.Equal(t, approx.ReasonDeprecatedTopLevel,
		p.ExcludeFunction(&metadata.Function{Name: "old", Annotations: deprecated}, approx.OwnerPackage))
	assert.Equal(t, approx.ReasonScript+":deprecated",
		p.ExcludeFunction(&metadata.Function{Name: "old", Annotations: deprecated}, approx.OwnerClass))
	assert.Empty(t, p.ExcludeFunction(&metadata.Function{Name: "current"}, approx.OwnerClass))
	require.NoError(t, p.Err())
	assert.Equal(t, 2, p.Evals())
}
