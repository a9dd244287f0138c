package approx

import (
	"strings"

	"github.com/jward/treemerge/internal/metadata"
)

// bridgePrefix marks platform bridge functions generated for native interop.
const bridgePrefix = "kniBridge"

// constructorName is the key name shared by all constructors of a class.
const constructorName = "<init>"

// DefaultPolicy is the stock key strategy.
type DefaultPolicy struct {
	signer *Signer
}

// Compile-time check: *DefaultPolicy satisfies Policy.
var _ Policy = (*DefaultPolicy)(nil)

// NewDefaultPolicy creates a DefaultPolicy with a classifier cache of the
// default size.
func NewDefaultPolicy() *DefaultPolicy {
	return &DefaultPolicy{signer: NewSigner(DefaultCacheSize)}
}

// Signer exposes the type signer used by the policy.
func (p *DefaultPolicy) Signer() *Signer { return p.signer }

// FunctionKey is name + [receiver] + (value parameter signatures). Functions
// carrying an interop method annotation also include their selector and
// parameter names, since such overloads differ only by names.
func (p *DefaultPolicy) FunctionKey(fn *metadata.Function) Key {
	scope := typeParamScope(fn.TypeParameters)
	var b strings.Builder
	if fn.Receiver != nil {
		b.WriteString("[")
		b.WriteString(p.signer.Signature(*fn.Receiver, scope))
		b.WriteString("]")
	}
	p.writeParams(&b, fn.ValueParameters, scope)
	if ann, ok := metadata.FindAnnotation(fn.Annotations, metadata.ObjCMethodAnnotation); ok {
		writeObjC(&b, ann.Arguments[metadata.ObjCSelectorArgument], fn.ValueParameters)
	}
	return Key{Name: fn.Name, Shape: b.String()}
}

// PropertyKey is name + [extension receiver].
func (p *DefaultPolicy) PropertyKey(prop *metadata.Property) Key {
	shape := "|"
	if prop.Receiver != nil {
		shape = "[" + p.signer.Signature(*prop.Receiver, typeParamScope(prop.TypeParameters)) + "]"
	}
	return Key{Name: prop.Name, Shape: shape}
}

// ConstructorKey is the value parameter signature list, plus names for
// interop constructors.
func (p *DefaultPolicy) ConstructorKey(c *metadata.Constructor) Key {
	var b strings.Builder
	p.writeParams(&b, c.ValueParameters, nil)
	if ann, ok := metadata.FindAnnotation(c.Annotations, metadata.ObjCConstructorAnnotation); ok {
		writeObjC(&b, ann.Arguments[metadata.ObjCInitSelectorArgument], c.ValueParameters)
	}
	return Key{Name: constructorName, Shape: b.String()}
}

func (p *DefaultPolicy) writeParams(b *strings.Builder, params []metadata.ValueParameter, scope map[string]int) {
	b.WriteString("(")
	for i, vp := range params {
		if i > 0 {
			b.WriteString(",")
		}
		if vp.VarargOf != nil {
			b.WriteString("vararg ")
			b.WriteString(p.signer.Signature(*vp.VarargOf, scope))
			continue
		}
		b.WriteString(p.signer.Signature(vp.Type, scope))
	}
	b.WriteString(")")
}

func writeObjC(b *strings.Builder, selector string, params []metadata.ValueParameter) {
	b.WriteString("{")
	b.WriteString(selector)
	for _, vp := range params {
		b.WriteString(";")
		b.WriteString(vp.Name)
	}
	b.WriteString("}")
}

// ExcludeFunction drops fake overrides, interop bridges and deprecated
// top-level duplicates kept only for binary compatibility.
func (p *DefaultPolicy) ExcludeFunction(fn *metadata.Function, owner Owner) string {
	switch {
	case fn.Name == "":
		return ReasonEmptyName
	case fn.Kind == metadata.MemberFakeOverride:
		return ReasonFakeOverride
	case strings.HasPrefix(fn.Name, bridgePrefix):
		return ReasonBridge
	case owner == OwnerPackage && metadata.HasAnnotation(fn.Annotations, metadata.DeprecatedAnnotation):
		return ReasonDeprecatedTopLevel
	}
	return ""
}

// ExcludeProperty drops fake overrides.
func (p *DefaultPolicy) ExcludeProperty(prop *metadata.Property, _ Owner) string {
	switch {
	case prop.Name == "":
		return ReasonEmptyName
	case prop.Kind == metadata.MemberFakeOverride:
		return ReasonFakeOverride
	}
	return ""
}

// ExcludeConstructor drops constructors synthesized for a single platform.
func (p *DefaultPolicy) ExcludeConstructor(c *metadata.Constructor) string {
	if c.Synthetic {
		return ReasonSynthetic
	}
	return ""
}

// typeParamScope maps type parameter names to their declaration index.
func typeParamScope(params []metadata.TypeParameter) map[string]int {
	if len(params) == 0 {
		return nil
	}
	scope := make(map[string]int, len(params))
	for i, tp := range params {
		scope[tp.Name] = i
	}
	return scope
}
