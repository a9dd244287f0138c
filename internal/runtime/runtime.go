package runtime

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/compiler"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"
	"github.com/risor-io/risor/parser"
)

// Runtime embeds a Risor VM and exposes declaration helpers to policy
// scripts.
type Runtime struct {
	scriptsDir string
	fsys       fs.FS
	logger     *slog.Logger
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS configures the Runtime to load scripts from an fs.FS
// instead of from disk. Also configures the Risor importer to use
// FSImporter for import statement resolution.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithRuntimeLogger sets the logger behind the scripts' log global.
func WithRuntimeLogger(logger *slog.Logger) RuntimeOption {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// NewRuntime creates a Runtime loading scripts from scriptsDir.
func NewRuntime(scriptsDir string, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		scriptsDir: scriptsDir,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunScript loads and executes a Risor script with all standard globals
// plus any extra globals provided by the caller, returning the value of
// its last expression.
func (r *Runtime) RunScript(ctx context.Context, scriptPath string, extraGlobals map[string]any) (object.Object, error) {
	src, err := r.LoadScript(scriptPath)
	if err != nil {
		return nil, err
	}
	return r.eval(ctx, src, scriptPath, extraGlobals)
}

// RunSource executes Risor source code directly. Useful for testing
// without script files.
func (r *Runtime) RunSource(ctx context.Context, source string, extraGlobals map[string]any) (object.Object, error) {
	return r.eval(ctx, source, "<inline>", extraGlobals)
}

func (r *Runtime) eval(ctx context.Context, source, label string, extraGlobals map[string]any) (object.Object, error) {
	code, err := r.compile(ctx, source, label, extraGlobals)
	if err != nil {
		return nil, err
	}
	return r.run(ctx, code, label, extraGlobals)
}

// compile parses and compiles source once. Only the names of extraGlobals
// matter here; run must be given globals with the same names.
func (r *Runtime) compile(ctx context.Context, source, label string, extraGlobals map[string]any) (*compiler.Code, error) {
	ast, err := parser.Parse(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("runtime: script %s: %w", label, err)
	}
	cfg := risor.NewConfig(r.options(extraGlobals)...)
	code, err := compiler.Compile(ast, cfg.CompilerOpts()...)
	if err != nil {
		return nil, fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return code, nil
}

// run executes compiled code with the standard globals plus extraGlobals.
func (r *Runtime) run(ctx context.Context, code *compiler.Code, label string, extraGlobals map[string]any) (object.Object, error) {
	result, err := risor.EvalCode(ctx, code, r.options(extraGlobals)...)
	if err != nil {
		return nil, fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return result, nil
}

func (r *Runtime) options(extraGlobals map[string]any) []risor.Option {
	globals := r.buildGlobals(extraGlobals)

	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}

	// Wire importer so Risor import statements resolve correctly.
	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}
	return opts
}

// buildImporter returns a Risor importer configured for the Runtime's script source.
// Returns nil if neither fs.FS nor scriptsDir is configured.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}

	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	}
	if r.scriptsDir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   r.scriptsDir,
			Extensions:  []string{".risor"},
		})
	}
	return nil
}

// LoadScript reads a .risor file and returns its source code.
// When an fs.FS is configured, uses fs.ReadFile on the embedded filesystem.
// Otherwise, uses os.ReadFile with scriptsDir as the base directory.
func (r *Runtime) LoadScript(path string) (string, error) {
	if r.fsys != nil {
		fsPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(r.scriptsDir, path)
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", fullPath, err)
	}
	return string(data), nil
}

// PolicyScriptPath returns the path of a named policy script.
func PolicyScriptPath(name string) string {
	if strings.HasSuffix(name, ".risor") {
		return name
	}
	return filepath.Join("policy", name+".risor")
}

// buildGlobals constructs the full set of globals exposed to Risor scripts.
func (r *Runtime) buildGlobals(extra map[string]any) map[string]any {
	globals := map[string]any{
		"has_prefix":     makeHasPrefixFn(),
		"has_annotation": makeHasAnnotationFn(),
		"log":            mustProxy(&logObject{logger: r.logger}),
	}
	for k, v := range extra {
		globals[k] = v
	}
	return globals
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}
