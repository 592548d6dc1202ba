package agent

import "fmt"

// ErrorKind distinguishes the terminal failures a caller of Dispatch can
// see. In-band conditions (policy blocks, tool failures) never surface
// here; they are folded back into the conversation.
type ErrorKind string

const (
	// KindNotFound: the requested profile name is not registered. No run
	// was created.
	KindNotFound ErrorKind = "not_found"
	// KindFailed: backend error, malformed final output after a re-prompt,
	// turn limit, or too many tool timeouts.
	KindFailed ErrorKind = "failed"
	// KindRejected: the caller cancelled the run.
	KindRejected ErrorKind = "rejected"
)

// DispatchError is the only error type Dispatch returns. It carries the
// run's partial tool-call trace for diagnosis.
type DispatchError struct {
	Kind   ErrorKind
	Reason string
	Trace  []TraceEntry
	Err    error
}

func (e *DispatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dispatch %s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("dispatch %s: %s", e.Kind, e.Reason)
}

func (e *DispatchError) Unwrap() error { return e.Err }
