package runtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/risor-io/risor/compiler"
	"github.com/risor-io/risor/object"

	"github.com/jward/treemerge/internal/approx"
	"github.com/jward/treemerge/internal/metadata"
)

// ScriptPolicy refines a base approx.Policy with a Risor script. Keys and
// the base exclusions come from the base policy; the script only gets to
// exclude members the base policy kept.
//
// The script is compiled once. Exclude methods cannot return errors, so the
// first script failure is recorded and surfaced by Err. Callers check Err
// after each merge step.
type ScriptPolicy struct {
	approx.Policy

	rt     *Runtime
	label  string
	source string
	code   *compiler.Code

	mu    sync.Mutex
	ctx   context.Context
	err   error
	evals int
}

// Compile-time check: *ScriptPolicy satisfies approx.Policy.
var _ approx.Policy = (*ScriptPolicy)(nil)

// NewScriptPolicy loads and compiles the script at scriptPath from the
// runtime's script source.
func NewScriptPolicy(rt *Runtime, scriptPath string, base approx.Policy) (*ScriptPolicy, error) {
	src, err := rt.LoadScript(scriptPath)
	if err != nil {
		return nil, err
	}
	return newScriptPolicy(rt, scriptPath, src, base)
}

// NewInlinePolicy compiles a ScriptPolicy from Risor source.
func NewInlinePolicy(rt *Runtime, source string, base approx.Policy) (*ScriptPolicy, error) {
	return newScriptPolicy(rt, "<inline>", source, base)
}

func newScriptPolicy(rt *Runtime, label, source string, base approx.Policy) (*ScriptPolicy, error) {
	if base == nil {
		base = approx.NewDefaultPolicy()
	}
	code, err := rt.compile(context.Background(), source, label, declGlobals(object.Nil))
	if err != nil {
		return nil, err
	}
	return &ScriptPolicy{
		Policy: base,
		rt:     rt,
		label:  label,
		source: source,
		code:   code,
		ctx:    context.Background(),
	}, nil
}

func declGlobals(decl object.Object) map[string]any {
	return map[string]any{"decl": decl}
}

// Source returns the script source the policy was compiled from.
func (p *ScriptPolicy) Source() string { return p.source }

// BindContext sets the context later script runs use, so cancelling a merge
// also stops a running script.
func (p *ScriptPolicy) BindContext(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ctx = ctx
}

// Err returns the first script failure, if any.
func (p *ScriptPolicy) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Evals returns how many times the script has run.
func (p *ScriptPolicy) Evals() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.evals
}

func (p *ScriptPolicy) ExcludeFunction(fn *metadata.Function, owner approx.Owner) string {
	if reason := p.Policy.ExcludeFunction(fn, owner); reason != "" {
		return reason
	}
	return p.exclude(object.NewMap(map[string]object.Object{
		"kind":        object.NewString("function"),
		"name":        object.NewString(fn.Name),
		"owner":       object.NewString(owner.String()),
		"visibility":  object.NewString(fn.Visibility),
		"modality":    object.NewString(fn.Modality),
		"annotations": annotationList(fn.Annotations),
		"modifiers":   stringList(fn.Modifiers),
		"params":      object.NewInt(int64(len(fn.ValueParameters))),
		"receiver":    receiverObject(fn.Receiver),
	}))
}

func (p *ScriptPolicy) ExcludeProperty(prop *metadata.Property, owner approx.Owner) string {
	if reason := p.Policy.ExcludeProperty(prop, owner); reason != "" {
		return reason
	}
	return p.exclude(object.NewMap(map[string]object.Object{
		"kind":        object.NewString("property"),
		"name":        object.NewString(prop.Name),
		"owner":       object.NewString(owner.String()),
		"visibility":  object.NewString(prop.Visibility),
		"modality":    object.NewString(prop.Modality),
		"annotations": annotationList(prop.Annotations),
		"modifiers":   stringList(nil),
		"params":      object.NewInt(0),
		"receiver":    receiverObject(prop.Receiver),
	}))
}

func (p *ScriptPolicy) ExcludeConstructor(c *metadata.Constructor) string {
	if reason := p.Policy.ExcludeConstructor(c); reason != "" {
		return reason
	}
	return p.exclude(object.NewMap(map[string]object.Object{
		"kind":        object.NewString("constructor"),
		"name":        object.NewString("<init>"),
		"owner":       object.NewString(approx.OwnerClass.String()),
		"visibility":  object.NewString(c.Visibility),
		"modality":    object.NewString(""),
		"annotations": annotationList(c.Annotations),
		"modifiers":   stringList(nil),
		"params":      object.NewInt(int64(len(c.ValueParameters))),
		"receiver":    object.Nil,
	}))
}

func (p *ScriptPolicy) exclude(decl *object.Map) string {
	p.mu.Lock()
	ctx := p.ctx
	p.mu.Unlock()

	result, err := p.rt.run(ctx, p.code, p.label, declGlobals(decl))

	p.mu.Lock()
	defer p.mu.Unlock()
	p.evals++
	if err != nil {
		if p.err == nil {
			p.err = err
		}
		return ""
	}

	switch v := result.(type) {
	case *object.Bool:
		if v.Value() {
			return approx.ReasonScript
		}
	case *object.String:
		if v.Value() != "" {
			return approx.ReasonScript + ":" + v.Value()
		}
	case *object.Error:
		if p.err == nil {
			p.err = fmt.Errorf("runtime: script %s: %s", p.label, v.Inspect())
		}
	}
	return ""
}

func annotationList(anns []metadata.Annotation) *object.List {
	classes := make([]string, len(anns))
	for i, a := range anns {
		classes[i] = a.Class
	}
	return stringList(classes)
}

func receiverObject(t *metadata.Type) object.Object {
	if t == nil {
		return object.Nil
	}
	if t.Classifier != "" {
		return object.NewString(t.Classifier)
	}
	return object.NewString(t.TypeParameter)
}
