// Package policy classifies tool invocations as read or write operations.
//
// The classifier is the safety boundary for read-only agent roles: anything
// it cannot positively identify as a read is treated as a write-equivalent
// (fail-closed), so a classification gap can never widen an agent's
// capabilities, only narrow them.
package policy

// Class is the read/write classification of a tool invocation.
type Class int

const (
	ClassRead Class = iota
	ClassWrite
	ClassUnknown
)

func (c Class) String() string {
	switch c {
	case ClassRead:
		return "read"
	case ClassWrite:
		return "write"
	default:
		return "unknown"
	}
}

// Verdict is the outcome of mediating a single tool call.
type Verdict struct {
	Allowed bool
	Reason  string
	Class   Class
}
