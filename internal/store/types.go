package store

import "time"

// Module statuses recorded in run_modules.
const (
	// ModuleMissing marks a module a target supplied that was not common.
	ModuleMissing = "missing"
	// ModuleAbsent marks a common module a target did not supply.
	ModuleAbsent = "absent"
)

type Run struct {
	ID          string
	CreatedAt   time.Time
	TargetCount int
	NodeCount   int
	Digest      string
	Policy      string
	PolicyHash  string
}

type RunTarget struct {
	RunID     string
	Index     int
	Name      string
	NodeCount int // nodes populated by this target, root excluded
}

// Node is one merged tree node flattened for storage. Seq is the node's
// position in a pre-order walk; Presence has one '+' or '-' per target.
type Node struct {
	RunID     string
	Ref       int64
	ParentRef *int64
	Seq       int
	Depth     int
	Kind      string
	Key       string
	Path      string
	Presence  string
}

type RunModule struct {
	RunID       string
	TargetIndex int
	Module      string
	Status      string
}

// RunReport buffers everything recorded for one run so it can be committed
// in a single transaction.
type RunReport struct {
	Run                 Run
	Targets             []RunTarget
	Nodes               []Node
	Modules             []RunModule
	ForwardDeclarations []string
}
