package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// formatRunsText formats CLIRun results as aligned columns.
func formatRunsText(w io.Writer, runs []CLIRun) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tTARGETS\tNODES\tDIGEST\tPOLICY")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.TargetCount, r.NodeCount, r.Digest, r.Policy)
	}
	tw.Flush()
}

// formatNodesText prints one node per line, indented by depth below the
// shallowest node shown. Nested nodes are named by their unescaped key.
func formatNodesText(w io.Writer, nodes []CLINode) {
	if len(nodes) == 0 {
		return
	}
	base := nodes[0].Depth
	for _, n := range nodes {
		base = min(base, n.Depth)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PRESENCE\tKIND\tNODE")
	for _, n := range nodes {
		name := n.Path
		if n.Depth > base {
			name = n.Key
			if name == "" {
				name = "<root>"
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s%s\n", n.Presence, n.Kind, strings.Repeat("  ", n.Depth-base), name)
	}
	tw.Flush()
}

// formatModulesText formats CLIModule results as aligned columns.
func formatModulesText(w io.Writer, mods []CLIModule) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TARGET\tMODULE\tSTATUS")
	for _, m := range mods {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Target, m.Module, m.Status)
	}
	tw.Flush()
}

// outputResultText writes result to os.Stdout as text.
func outputResultText(result CLIResult) error {
	return writeResultText(os.Stdout, result)
}

// writeResultText dispatches to the appropriate text formatter based on the
// result type.
func writeResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case CLIRun:
		formatRunsText(w, []CLIRun{v})
	case []CLIRun:
		formatRunsText(w, v)
	case []CLINode:
		formatNodesText(w, v)
	case []CLIModule:
		formatModulesText(w, v)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
