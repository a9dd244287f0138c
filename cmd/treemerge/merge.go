package main

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/treemerge"
	"github.com/jward/treemerge/internal/approx"
	"github.com/jward/treemerge/internal/runtime"
	"github.com/jward/treemerge/internal/store"
	"github.com/jward/treemerge/scripts"
)

var (
	flagManifest    string
	flagPolicy      string
	flagScriptsDir  string
	flagConcurrency int
	flagVerbose     bool
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge the targets of a manifest and record a report",
	Long:  "Loads every target listed in the manifest, folds their common modules into one merged tree and writes the tree's presence report to the database.",
	Args:  cobra.NoArgs,
	RunE:  runMerge,
}

func init() {
	mergeCmd.Flags().StringVar(&flagManifest, "manifest", "targets.yaml", "path to the targets manifest")
	mergeCmd.Flags().StringVar(&flagPolicy, "policy", "", "exclusion policy: bundled name (e.g. public_api) or .risor path (default: $TREEMERGE_POLICY)")
	mergeCmd.Flags().StringVar(&flagScriptsDir, "scripts-dir", "", "load bundled policies from disk path instead of embedded")
	mergeCmd.Flags().IntVar(&flagConcurrency, "concurrency", 0, "modules loaded in parallel per target (default: number of CPUs, at most 8)")
	mergeCmd.Flags().BoolVar(&flagVerbose, "verbose", false, "log skipped declarations")
}

func runMerge(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx := context.Background()

	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	manifest, err := loadManifest(flagManifest)
	if err != nil {
		return outputError("merge", err)
	}
	targets, dependees := manifest.sources()

	common := manifest.Common
	if len(common) == 0 {
		common, err = treemerge.CommonModuleNames(ctx, targets)
		if err != nil {
			return outputError("merge", err)
		}
	}

	opts := []treemerge.Option{
		treemerge.WithLogger(logger),
		treemerge.WithLoadConcurrency(flagConcurrency),
		treemerge.WithProgress(func(label string) {
			fmt.Fprintln(os.Stderr, label)
		}),
	}

	policyName := flagPolicy
	if policyName == "" {
		policyName = os.Getenv("TREEMERGE_POLICY")
	}
	var policyHash string
	if policyName != "" {
		policy, hash, err := loadPolicy(policyName, logger)
		if err != nil {
			return outputError("merge", err)
		}
		policyHash = hash
		opts = append(opts, treemerge.WithPolicy(policy))
	}

	res, err := treemerge.New(opts...).Merge(ctx, treemerge.Input{
		Targets:       targets,
		CommonModules: common,
		Dependees:     dependees,
	})
	if err != nil {
		return outputError("merge", err)
	}

	dbPath := resolveDBPath()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return outputError("merge", fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err))
	}
	s, err := store.NewStore(dbPath)
	if err != nil {
		return outputError("merge", err)
	}
	defer s.Close()
	if err := s.Migrate(); err != nil {
		return outputError("merge", err)
	}

	runID, err := treemerge.SaveResult(s, res, policyName, policyHash)
	if err != nil {
		return outputError("merge", err)
	}
	run, err := s.RunByID(runID)
	if err != nil {
		return outputError("merge", err)
	}

	fmt.Fprintf(os.Stderr, "Merged %d targets (%d nodes) in %s\n",
		len(targets), res.Tree.Len(), time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)

	return outputResult(CLIResult{Command: "merge", Results: toCLIRun(run)})
}

// loadPolicy builds a script policy from a bundled policy name or a path to
// a .risor file. The returned hash identifies the script source.
func loadPolicy(name string, logger *slog.Logger) (*runtime.ScriptPolicy, string, error) {
	var rt *runtime.Runtime
	scriptPath := runtime.PolicyScriptPath(name)

	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		// A file on disk; imports resolve relative to its directory.
		rt = runtime.NewRuntime(filepath.Dir(name), runtime.WithRuntimeLogger(logger))
		scriptPath = filepath.Base(name)
	} else if flagScriptsDir != "" {
		rt = runtime.NewRuntime(flagScriptsDir, runtime.WithRuntimeLogger(logger))
	} else {
		rt = runtime.NewRuntime("", runtime.WithRuntimeFS(scripts.FS), runtime.WithRuntimeLogger(logger))
	}

	policy, err := runtime.NewScriptPolicy(rt, scriptPath, approx.NewDefaultPolicy())
	if err != nil {
		return nil, "", fmt.Errorf("loading policy %q: %w", name, err)
	}
	return policy, fmt.Sprintf("%x", sha256.Sum256([]byte(policy.Source()))), nil
}
