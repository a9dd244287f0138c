package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/risor-io/risor/object"
)

// makeHasPrefixFn creates "has_prefix", which reports whether a string starts
// with the given prefix.
func makeHasPrefixFn() *object.Builtin {
	return object.NewBuiltin("has_prefix", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("has_prefix", 2, len(args))
		}

		s, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("has_prefix: value must be a string, got %s", args[0].Type())
		}

		prefix, ok := args[1].(*object.String)
		if !ok {
			return object.Errorf("has_prefix: prefix must be a string, got %s", args[1].Type())
		}

		return object.NewBool(strings.HasPrefix(s.Value(), prefix.Value()))
	})
}

// makeHasAnnotationFn creates "has_annotation", which reports whether a decl
// map lists the given annotation class.
func makeHasAnnotationFn() *object.Builtin {
	return object.NewBuiltin("has_annotation", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("has_annotation", 2, len(args))
		}

		decl, err := extractMap(args[0])
		if err != nil {
			return object.Errorf("has_annotation: %v", err)
		}

		class, ok := args[1].(*object.String)
		if !ok {
			return object.Errorf("has_annotation: class must be a string, got %s", args[1].Type())
		}

		list, ok := decl["annotations"].(*object.List)
		if !ok {
			return object.False
		}
		for _, item := range list.Value() {
			if s, ok := item.(*object.String); ok && s.Value() == class.Value() {
				return object.True
			}
		}
		return object.False
	})
}

// --- Map extraction helpers ---

func extractMap(obj object.Object) (map[string]object.Object, error) {
	m, ok := obj.(*object.Map)
	if !ok {
		return nil, fmt.Errorf("expected map, got %s", obj.Type())
	}
	return m.Value(), nil
}

func stringList(values []string) *object.List {
	items := make([]object.Object, len(values))
	for i, v := range values {
		items[i] = object.NewString(v)
	}
	return object.NewList(items)
}

// logObject provides log.info/warn/error methods for Risor scripts.
type logObject struct {
	logger *slog.Logger
}

func (l *logObject) Info(msg string) {
	l.logger.Info(msg, "source", "policy")
}

func (l *logObject) Warn(msg string) {
	l.logger.Warn(msg, "source", "policy")
}

func (l *logObject) Error(msg string) {
	l.logger.Error(msg, "source", "policy")
}
