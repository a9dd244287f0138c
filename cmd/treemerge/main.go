package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	flagDB     string
	flagFormat string
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	// A missing .env is fine; the environment and flags still apply.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "treemerge",
	Short:         "Merge per-target library metadata into one declaration tree",
	Long:          "Treemerge aligns the declarations of a library compiled for several targets into a merged tree and records which targets provide each declaration in a SQLite report.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
	// No Run, so the bare command prints help.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "report database path (default: $TREEMERGE_DB or .treemerge/report.db)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")

	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(missingCmd)
}

// resolveDBPath returns the database path from the --db flag, the
// TREEMERGE_DB environment variable, or the default.
func resolveDBPath() string {
	if flagDB != "" {
		return flagDB
	}
	if env := os.Getenv("TREEMERGE_DB"); env != "" {
		return env
	}
	return filepath.Join(".treemerge", "report.db")
}
