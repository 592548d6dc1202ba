package agent

import (
	"context"
	"fmt"
	"time"

	"squad/internal/policy"
	"squad/internal/profile"
)

const defaultToolTimeout = 2 * time.Minute

// Recorder receives every verdict produced during a run, in call order,
// independent of whether execution happened, plus the run's terminal
// record. Implemented by the audit store; a nil Recorder disables
// persistence.
type Recorder interface {
	Record(ctx context.Context, runID string, entry TraceEntry) error
	SaveRun(ctx context.Context, runID, profileName, status, summary string) error
}

// Mediator intercepts every tool call attempted during a run, checks it
// against the active capability profile, and executes allowed calls against
// the real tool implementations.
type Mediator struct {
	registry *Registry
	timeout  time.Duration
}

func NewMediator(registry *Registry, timeout time.Duration) *Mediator {
	if timeout <= 0 {
		timeout = defaultToolTimeout
	}
	return &Mediator{registry: registry, timeout: timeout}
}

// Scoped returns a mediator whose registry holds only the profile's
// declared tools. Omission from the profile removes the implementation
// itself, so even a mediation bug cannot execute an undeclared tool.
func (m *Mediator) Scoped(p *profile.Profile) *Mediator {
	return &Mediator{registry: m.registry.Scope(p.Tools), timeout: m.timeout}
}

// Mediate decides whether the profile permits the call. The decision is
// two-layered: the tool must be declared by the profile at all, and under a
// read-only shell mode the classified operation must be a read. Unknown
// classifications are rejected the same as writes (fail-closed).
func (m *Mediator) Mediate(p *profile.Profile, toolName string, args map[string]any) policy.Verdict {
	if !p.Allows(toolName) {
		return policy.Verdict{
			Allowed: false,
			Reason:  "tool not permitted for this role",
			Class:   policy.ClassifyTool(toolName, args),
		}
	}

	class := policy.ClassifyTool(toolName, args)
	if p.ShellMode == profile.ShellReadOnly && class != policy.ClassRead {
		return policy.Verdict{
			Allowed: false,
			Reason:  "write/unknown operation blocked under read-only role",
			Class:   class,
		}
	}

	return policy.Verdict{Allowed: true, Reason: "permitted", Class: class}
}

// Execute runs an allowed call against the real tool under a bounded
// deadline. Failures, including deadline overruns, come back as errors for
// the dispatch loop to fold into the conversation.
func (m *Mediator) Execute(ctx context.Context, toolName, input string) (string, error) {
	tool, ok := m.registry.Get(toolName)
	if !ok {
		return "", fmt.Errorf("no implementation registered for tool %q", toolName)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	result, err := withTrace(tool).Execute(ctx, input)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("tool %s timed out after %s: %w", toolName, m.timeout, context.DeadlineExceeded)
		}
		return "", err
	}
	return result, nil
}
