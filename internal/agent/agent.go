// Package agent implements the sub-agent dispatch layer: runs are bound to
// a capability profile, every tool call the backend proposes is mediated
// against that profile before execution, and the final message is folded
// into a structured report for the caller.
package agent

type EventType string

const (
	EventToken      EventType = "token"
	EventToolCall   EventType = "tool_call"
	EventToolDenied EventType = "tool_denied"
	EventToolResult EventType = "tool_result"
	EventDone       EventType = "done"
	EventError      EventType = "error"
)

type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}
