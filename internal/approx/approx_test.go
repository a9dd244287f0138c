package approx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/treemerge/internal/metadata"
)

func classType(name string, args ...metadata.TypeArgument) metadata.Type {
	return metadata.Type{Classifier: name, Arguments: args}
}

func param(name string, t metadata.Type) metadata.ValueParameter {
	return metadata.ValueParameter{Name: name, Type: t}
}

func fn(name string, params ...metadata.ValueParameter) *metadata.Function {
	return &metadata.Function{Name: name, Kind: metadata.MemberDeclaration, ValueParameters: params}
}

func TestFunctionKey_Overloads(t *testing.T) {
	t.Parallel()
	p := NewDefaultPolicy()

	intT := classType("kotlin/Int")
	strT := classType("kotlin/String")

	a := p.FunctionKey(fn("foo", param("x", intT)))
	b := p.FunctionKey(fn("foo", param("renamed", intT)))
	c := p.FunctionKey(fn("foo", param("x", strT)))
	d := p.FunctionKey(fn("foo", param("x", intT), param("y", intT)))
	e := p.FunctionKey(fn("bar", param("x", intT)))

	assert.Equal(t, a, b, "parameter names do not distinguish ordinary overloads")
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
	assert.NotEqual(t, a, e)
	assert.Equal(t, "foo(kotlin/Int)", a.String())
}

func TestFunctionKey_ReceiverAndNullability(t *testing.T) {
	t.Parallel()
	p := NewDefaultPolicy()

	plain := fn("len")
	withRecv := fn("len")
	recv := classType("kotlin/String")
	withRecv.Receiver = &recv

	nullable := fn("f", param("x", metadata.Type{Classifier: "kotlin/Int", Nullable: true}))
	nonNull := fn("f", param("x", classType("kotlin/Int")))

	assert.NotEqual(t, p.FunctionKey(plain), p.FunctionKey(withRecv))
	assert.NotEqual(t, p.FunctionKey(nullable), p.FunctionKey(nonNull))
}

func TestFunctionKey_AliasAbbreviationTolerance(t *testing.T) {
	t.Parallel()
	p := NewDefaultPolicy()

	sizeT := metadata.Type{Classifier: "platform/posix/size_t"}
	on64 := fn("malloc", param("size", metadata.Type{Classifier: "kotlin/ULong", Abbreviation: &sizeT}))
	on32 := fn("malloc", param("size", metadata.Type{Classifier: "kotlin/UInt", Abbreviation: &sizeT}))

	assert.Equal(t, p.FunctionKey(on64), p.FunctionKey(on32))
}

func TestFunctionKey_TypeParameterRenaming(t *testing.T) {
	t.Parallel()
	p := NewDefaultPolicy()

	mk := func(tp string) *metadata.Function {
		f := fn("id", param("v", metadata.Type{TypeParameter: tp}))
		f.TypeParameters = []metadata.TypeParameter{{Name: tp}}
		return f
	}
	assert.Equal(t, p.FunctionKey(mk("T")), p.FunctionKey(mk("R")))

	outer := fn("id", param("v", metadata.Type{TypeParameter: "E"}))
	assert.Equal(t, "id(^E)", p.FunctionKey(outer).String())
}

func TestFunctionKey_GenericArguments(t *testing.T) {
	t.Parallel()
	p := NewDefaultPolicy()

	inner := classType("kotlin/Int")
	list := classType("kotlin/collections/List", metadata.TypeArgument{Variance: "out", Type: &inner})
	star := classType("kotlin/collections/List", metadata.TypeArgument{Star: true})

	k1 := p.FunctionKey(fn("sum", param("xs", list)))
	k2 := p.FunctionKey(fn("sum", param("xs", star)))
	assert.Equal(t, "sum(kotlin/collections/List<out kotlin/Int>)", k1.String())
	assert.NotEqual(t, k1, k2)
}

func TestFunctionKey_VarargDiffersFromArray(t *testing.T) {
	t.Parallel()
	p := NewDefaultPolicy()

	intT := classType("kotlin/Int")
	arr := classType("kotlin/IntArray")
	vararg := fn("of", metadata.ValueParameter{Name: "xs", Type: arr, VarargOf: &intT})
	array := fn("of", param("xs", arr))
	assert.NotEqual(t, p.FunctionKey(vararg), p.FunctionKey(array))
}

func TestFunctionKey_ObjCSelectorAndNames(t *testing.T) {
	t.Parallel()
	p := NewDefaultPolicy()

	objc := func(selector string, names ...string) *metadata.Function {
		f := fn("perform")
		for _, n := range names {
			f.ValueParameters = append(f.ValueParameters, param(n, classType("kotlin/Any")))
		}
		f.Annotations = []metadata.Annotation{{
			Class:     metadata.ObjCMethodAnnotation,
			Arguments: map[string]string{metadata.ObjCSelectorArgument: selector},
		}}
		return f
	}
	a := p.FunctionKey(objc("performWith:", "with"))
	b := p.FunctionKey(objc("performAfter:", "after"))
	assert.NotEqual(t, a, b, "interop methods differing only by names stay distinct")
	assert.Equal(t, a, p.FunctionKey(objc("performWith:", "with")))
}

func TestPropertyKey(t *testing.T) {
	t.Parallel()
	p := NewDefaultPolicy()

	recv := classType("kotlin/String")
	plain := &metadata.Property{Name: "size", ReturnType: classType("kotlin/Int")}
	otherType := &metadata.Property{Name: "size", ReturnType: classType("kotlin/Long")}
	ext := &metadata.Property{Name: "size", Receiver: &recv}

	assert.Equal(t, p.PropertyKey(plain), p.PropertyKey(otherType), "return type is not part of the key")
	assert.NotEqual(t, p.PropertyKey(plain), p.PropertyKey(ext))
}

func TestConstructorKey(t *testing.T) {
	t.Parallel()
	p := NewDefaultPolicy()

	a := p.ConstructorKey(&metadata.Constructor{Primary: true, ValueParameters: []metadata.ValueParameter{param("x", classType("kotlin/Int"))}})
	b := p.ConstructorKey(&metadata.Constructor{ValueParameters: []metadata.ValueParameter{param("y", classType("kotlin/Int"))}})
	c := p.ConstructorKey(&metadata.Constructor{})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, "<init>()", c.String())
}

func TestKeyString_DelimitersInName(t *testing.T) {
	t.Parallel()

	bracketName := Key{Name: "f[A]", Shape: "()"}
	receiver := Key{Name: "f", Shape: "[A]()"}
	assert.NotEqual(t, bracketName.String(), receiver.String())
	assert.Equal(t, `f\[A]()`, bracketName.String())
	assert.Equal(t, "f[A]()", receiver.String())

	assert.NotEqual(t, Key{Name: `a\`, Shape: "|"}.String(), Key{Name: "a", Shape: `\|`}.String())
	assert.Equal(t, "size|", Key{Name: "size", Shape: "|"}.String())
}

func TestExcludeFunction(t *testing.T) {
	t.Parallel()
	p := NewDefaultPolicy()

	fake := fn("toString")
	fake.Kind = metadata.MemberFakeOverride
	bridge := fn("kniBridge42")
	deprecated := fn("old")
	deprecated.Annotations = []metadata.Annotation{{Class: metadata.DeprecatedAnnotation}}

	assert.Equal(t, ReasonFakeOverride, p.ExcludeFunction(fake, OwnerClass))
	assert.Equal(t, ReasonBridge, p.ExcludeFunction(bridge, OwnerPackage))
	assert.Equal(t, ReasonDeprecatedTopLevel, p.ExcludeFunction(deprecated, OwnerPackage))
	assert.Empty(t, p.ExcludeFunction(deprecated, OwnerClass), "deprecated members are kept")
	assert.Empty(t, p.ExcludeFunction(fn("ok"), OwnerPackage))
	assert.Equal(t, ReasonEmptyName, p.ExcludeFunction(fn(""), OwnerPackage))
}

func TestExcludePropertyAndConstructor(t *testing.T) {
	t.Parallel()
	p := NewDefaultPolicy()

	assert.Equal(t, ReasonFakeOverride, p.ExcludeProperty(&metadata.Property{Name: "x", Kind: metadata.MemberFakeOverride}, OwnerClass))
	assert.Empty(t, p.ExcludeProperty(&metadata.Property{Name: "x"}, OwnerClass))
	assert.Equal(t, ReasonSynthetic, p.ExcludeConstructor(&metadata.Constructor{Synthetic: true}))
	assert.Empty(t, p.ExcludeConstructor(&metadata.Constructor{}))
}

func TestSigner_CachesClassifiers(t *testing.T) {
	t.Parallel()
	s := NewSigner(2)

	require.Equal(t, "kotlin/Int", s.Signature(classType(" kotlin/Int "), nil))
	s.Signature(classType("kotlin/Int"), nil)
	s.Signature(classType("kotlin/Long"), nil)
	s.Signature(classType("kotlin/Short"), nil)
	assert.Equal(t, 2, s.CacheLen(), "cache is bounded")
}
