// Package tools contains the built-in tool implementations. Each tool is a
// plain executor; permission decisions happen in the mediator, not here.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

type ReadFile struct{}

func (r *ReadFile) Name() string        { return "read_file" }
func (r *ReadFile) Description() string { return "Read the contents of a file" }

func (r *ReadFile) InputSchema() any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "File path to read",
			},
		},
		"required":             []string{"path"},
		"additionalProperties": false,
	}
}

func (r *ReadFile) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("parsing read_file input: %w", err)
	}

	path := expandHome(args.Path)
	slog.Debug("read_file: reading", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}
	return truncate(data), nil
}
