package agent

import (
	"time"

	"squad/internal/policy"
	"squad/internal/profile"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
	StatusFailed    Status = "failed"
)

// TraceEntry records one mediated tool call, allowed or not. Entries are
// appended in call order and retained past the run for audit.
type TraceEntry struct {
	Seq       int
	Tool      string
	Arguments string
	Verdict   policy.Verdict
	Executed  bool
	Error     string
	At        time.Time
}

// Run is one end-to-end execution of a dispatched task under a single
// profile. Only the dispatch loop that created it mutates it; the profile
// it points at is shared and read-only.
type Run struct {
	ID       string
	Profile  *profile.Profile
	Status   Status
	Trace    []TraceEntry
	turns    int
	timeouts int
}

func (r *Run) addTrace(tool, arguments string, v policy.Verdict) *TraceEntry {
	r.Trace = append(r.Trace, TraceEntry{
		Seq:       len(r.Trace),
		Tool:      tool,
		Arguments: arguments,
		Verdict:   v,
		At:        time.Now(),
	})
	return &r.Trace[len(r.Trace)-1]
}
