package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"log/slog"
)

const (
	defaultShellTimeoutMS = 120_000
	maxShellTimeoutMS     = 600_000
)

// Shell executes a free-form command string through bash. It never judges
// the command itself: read-only enforcement happens in the mediator before
// this tool is ever reached.
type Shell struct{}

func (s *Shell) Name() string        { return "shell" }
func (s *Shell) Description() string { return "Execute a bash command and return its output" }

func (s *Shell) InputSchema() any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{
				"type":        "string",
				"description": "The command to execute",
			},
			"workdir": map[string]any{
				"type":        "string",
				"description": "Working directory; empty for the current directory",
			},
			"timeout_ms": map[string]any{
				"type":        "number",
				"description": "Timeout in milliseconds (default 120000, max 600000); 0 for the default",
			},
		},
		"required":             []string{"command", "workdir", "timeout_ms"},
		"additionalProperties": false,
	}
}

func (s *Shell) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		Command   string `json:"command"`
		Workdir   string `json:"workdir"`
		TimeoutMS int    `json:"timeout_ms"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("parsing shell input: %w", err)
	}
	if strings.TrimSpace(args.Command) == "" {
		return "", fmt.Errorf("command cannot be empty")
	}
	if args.TimeoutMS <= 0 {
		args.TimeoutMS = defaultShellTimeoutMS
	}
	if args.TimeoutMS > maxShellTimeoutMS {
		args.TimeoutMS = maxShellTimeoutMS
	}
	ctx, cancel := context.WithTimeout(ctx, time.Duration(args.TimeoutMS)*time.Millisecond)
	defer cancel()

	slog.Debug("shell: executing", "command", args.Command, "workdir", args.Workdir, "timeout_ms", args.TimeoutMS)

	cmd := exec.CommandContext(ctx, "bash", "-c", args.Command)
	if args.Workdir != "" {
		cmd.Dir = expandHome(args.Workdir)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	var parts []string
	if stdout.Len() > 0 {
		parts = append(parts, stdout.String())
	}
	if stderr.Len() > 0 {
		parts = append(parts, "[stderr]\n"+stderr.String())
	}
	exitCode := 0
	if runErr != nil {
		if ee, ok := runErr.(*exec.ExitError); ok {
			exitCode = ee.ExitCode()
		} else {
			return "", fmt.Errorf("running command: %w", runErr)
		}
	}
	parts = append(parts, fmt.Sprintf("[exit code: %d]", exitCode))

	return truncate([]byte(strings.Join(parts, "\n"))), nil
}
