package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/treemerge/internal/store"
)

var flagRun string

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded merge runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

var showCmd = &cobra.Command{
	Use:   "show [path-prefix]",
	Short: "Show merged tree nodes with per-target presence",
	Long:  "Prints the nodes of a recorded run in tree order. A path prefix such as \"posix/platform.posix/FILE\" limits output to that node and its descendants.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runShow,
}

var missingCmd = &cobra.Command{
	Use:   "missing",
	Short: "Show modules excluded from or absent in each target",
	Args:  cobra.NoArgs,
	RunE:  runMissing,
}

func init() {
	showCmd.Flags().StringVar(&flagRun, "run", "", "run ID (default: latest run)")
	missingCmd.Flags().StringVar(&flagRun, "run", "", "run ID (default: latest run)")
}

func runRuns(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return outputError("runs", err)
	}
	defer s.Close()

	runs, err := s.Runs()
	if err != nil {
		return outputError("runs", err)
	}
	out := make([]CLIRun, len(runs))
	for i, r := range runs {
		out[i] = toCLIRun(r)
	}
	return outputResult(CLIResult{Command: "runs", Results: out})
}

func runShow(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return outputError("show", err)
	}
	defer s.Close()

	run, err := selectRun(s, flagRun)
	if err != nil {
		return outputError("show", err)
	}
	targets, err := s.TargetsByRun(run.ID)
	if err != nil {
		return outputError("show", err)
	}

	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}
	nodes, err := s.NodesByRun(run.ID, prefix)
	if err != nil {
		return outputError("show", err)
	}

	out := make([]CLINode, 0, len(nodes))
	for _, n := range nodes {
		if n.Kind == "root" {
			continue
		}
		out = append(out, CLINode{
			Path:     n.Path,
			Key:      n.Key,
			Kind:     n.Kind,
			Depth:    n.Depth,
			Presence: n.Presence,
			Targets:  presentTargets(n.Presence, targets),
		})
	}
	return outputResult(CLIResult{Command: "show", Results: out})
}

func runMissing(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return outputError("missing", err)
	}
	defer s.Close()

	run, err := selectRun(s, flagRun)
	if err != nil {
		return outputError("missing", err)
	}
	targets, err := s.TargetsByRun(run.ID)
	if err != nil {
		return outputError("missing", err)
	}
	names := make(map[int]string, len(targets))
	for _, t := range targets {
		names[t.Index] = t.Name
	}

	mods, err := s.ModulesByRun(run.ID)
	if err != nil {
		return outputError("missing", err)
	}
	out := make([]CLIModule, len(mods))
	for i, m := range mods {
		out[i] = CLIModule{Target: names[m.TargetIndex], TargetIndex: m.TargetIndex, Module: m.Module, Status: m.Status}
	}
	return outputResult(CLIResult{Command: "missing", Results: out})
}

// --- Helpers ---

// openStore opens the Store from the --db flag path (or default).
func openStore() (*store.Store, error) {
	dbPath := resolveDBPath()
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found: %s (run 'treemerge merge' first)", dbPath)
	}
	return store.NewStore(dbPath)
}

// selectRun returns the run with the given ID, or the latest run when id
// is empty.
func selectRun(s *store.Store, id string) (*store.Run, error) {
	var (
		run *store.Run
		err error
	)
	if id == "" {
		run, err = s.LatestRun()
	} else {
		run, err = s.RunByID(id)
	}
	if err != nil {
		return nil, err
	}
	if run == nil {
		if id == "" {
			return nil, fmt.Errorf("no runs recorded")
		}
		return nil, fmt.Errorf("run not found: %s", id)
	}
	return run, nil
}

// outputResult marshals a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and marks it handled.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command: command,
		Error:   err.Error(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}
