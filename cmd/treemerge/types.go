package main

import (
	"time"

	"github.com/jward/treemerge/internal/store"
)

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command string `json:"command"`
	Results any    `json:"results"`
	Error   string `json:"error,omitempty"`
}

// CLIRun is a JSON-friendly merge run summary.
type CLIRun struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	TargetCount int       `json:"target_count"`
	NodeCount   int       `json:"node_count"`
	Digest      string    `json:"digest"`
	Policy      string    `json:"policy,omitempty"`
}

// CLINode is a JSON-friendly merged tree node.
type CLINode struct {
	Path     string   `json:"path"`
	Key      string   `json:"key"`
	Kind     string   `json:"kind"`
	Depth    int      `json:"depth"`
	Presence string   `json:"presence"`
	Targets  []string `json:"targets"`
}

// CLIModule is a module a target was missing or did not supply.
type CLIModule struct {
	Target      string `json:"target"`
	TargetIndex int    `json:"target_index"`
	Module      string `json:"module"`
	Status      string `json:"status"`
}

func toCLIRun(r *store.Run) CLIRun {
	return CLIRun{
		ID:          r.ID,
		CreatedAt:   r.CreatedAt,
		TargetCount: r.TargetCount,
		NodeCount:   r.NodeCount,
		Digest:      r.Digest,
		Policy:      r.Policy,
	}
}

// presentTargets names the targets marked '+' in a presence string.
func presentTargets(presence string, targets []*store.RunTarget) []string {
	names := []string{}
	for _, t := range targets {
		if t.Index < len(presence) && presence[t.Index] == '+' {
			names = append(names, t.Name)
		}
	}
	return names
}
