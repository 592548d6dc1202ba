package agent

import (
	"context"
	"testing"
	"time"

	"squad/internal/policy"
	"squad/internal/profile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readOnlyProfile() *profile.Profile {
	return &profile.Profile{
		Name:      "scout",
		Tools:     []string{"read_file", "grep", "shell"},
		ShellMode: profile.ShellReadOnly,
	}
}

func readWriteProfile() *profile.Profile {
	return &profile.Profile{
		Name:      "builder",
		Tools:     []string{"grep", "shell", "write_file"},
		ShellMode: profile.ShellReadWrite,
	}
}

func TestMediate_ToolNotDeclared(t *testing.T) {
	m := NewMediator(NewRegistry(), time.Second)

	v := m.Mediate(readOnlyProfile(), "write_file", nil)
	assert.False(t, v.Allowed)
	assert.Equal(t, "tool not permitted for this role", v.Reason)
	assert.Equal(t, policy.ClassWrite, v.Class)

	// omission blocks reads too: the profile boundary is independent of
	// the operation class
	v = m.Mediate(readWriteProfile(), "read_file", nil)
	assert.False(t, v.Allowed)
	assert.Equal(t, "tool not permitted for this role", v.Reason)
}

func TestMediate_UnknownToolName(t *testing.T) {
	m := NewMediator(NewRegistry(), time.Second)
	v := m.Mediate(readOnlyProfile(), "teleport", nil)
	assert.False(t, v.Allowed)
	assert.Equal(t, policy.ClassUnknown, v.Class)
}

func TestMediate_ReadOnlyShell(t *testing.T) {
	m := NewMediator(NewRegistry(), time.Second)
	p := readOnlyProfile()

	v := m.Mediate(p, "shell", map[string]any{"command": "grep -r TODO src/"})
	assert.True(t, v.Allowed)
	assert.Equal(t, policy.ClassRead, v.Class)

	v = m.Mediate(p, "shell", map[string]any{"command": "rm -rf build/"})
	assert.False(t, v.Allowed)
	assert.Equal(t, policy.ClassWrite, v.Class)
	assert.Equal(t, "write/unknown operation blocked under read-only role", v.Reason)

	// unrecognized commands are treated like writes
	v = m.Mediate(p, "shell", map[string]any{"command": "frobnicate --all"})
	assert.False(t, v.Allowed)
	assert.Equal(t, policy.ClassUnknown, v.Class)

	// missing arguments fail closed
	v = m.Mediate(p, "shell", nil)
	assert.False(t, v.Allowed)
	assert.Equal(t, policy.ClassUnknown, v.Class)
}

func TestMediate_ReadWriteShell(t *testing.T) {
	m := NewMediator(NewRegistry(), time.Second)
	p := readWriteProfile()

	v := m.Mediate(p, "shell", map[string]any{"command": "rm -rf build/"})
	assert.True(t, v.Allowed)
	assert.Equal(t, policy.ClassWrite, v.Class)

	v = m.Mediate(p, "write_file", map[string]any{"path": "a", "content": "b"})
	assert.True(t, v.Allowed)
}

func TestRegistryScope(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeTool{name: "grep"})
	reg.Register(&fakeTool{name: "shell"})

	scoped := reg.Scope([]string{"grep", "glob"})
	_, ok := scoped.Get("grep")
	assert.True(t, ok)
	_, ok = scoped.Get("shell")
	assert.False(t, ok, "unnamed tools must not survive scoping")
	_, ok = scoped.Get("glob")
	assert.False(t, ok, "names without an implementation are ignored")
}

// A scoped mediator has no implementation for undeclared tools, so even a
// call that somehow passed mediation could not execute one.
func TestScoped_RemovesUndeclaredImplementations(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeTool{name: "grep"})
	reg.Register(&fakeTool{name: "write_file"})

	med := NewMediator(reg, time.Second).Scoped(readOnlyProfile())

	out, err := med.Execute(context.Background(), "grep", "{}")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	_, err = med.Execute(context.Background(), "write_file", "{}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no implementation registered")
}

func TestExecute_UnregisteredTool(t *testing.T) {
	m := NewMediator(NewRegistry(), time.Second)
	_, err := m.Execute(context.Background(), "grep", "{}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no implementation registered")
}

func TestExecute_Deadline(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeTool{name: "grep", fn: func(ctx context.Context, _ string) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(500 * time.Millisecond):
			return "late", nil
		}
	}})
	m := NewMediator(reg, 20*time.Millisecond)

	_, err := m.Execute(context.Background(), "grep", "{}")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExecute_PassesThroughResult(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeTool{name: "read_file", fn: func(_ context.Context, input string) (string, error) {
		return "contents for " + input, nil
	}})
	m := NewMediator(reg, time.Second)

	out, err := m.Execute(context.Background(), "read_file", `{"path":"a.go"}`)
	require.NoError(t, err)
	assert.Equal(t, `contents for {"path":"a.go"}`, out)
}
