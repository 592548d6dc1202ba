package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

type EditFile struct{}

func (e *EditFile) Name() string        { return "edit_file" }
func (e *EditFile) Description() string { return "Replace an exact string in an existing file" }

func (e *EditFile) InputSchema() any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "File path to edit",
			},
			"old_string": map[string]any{
				"type":        "string",
				"description": "Exact text to replace; must occur exactly once unless replace_all",
			},
			"new_string": map[string]any{
				"type":        "string",
				"description": "Replacement text",
			},
			"replace_all": map[string]any{
				"type":        "boolean",
				"description": "Replace every occurrence instead of requiring a unique match",
			},
		},
		"required":             []string{"path", "old_string", "new_string", "replace_all"},
		"additionalProperties": false,
	}
}

func (e *EditFile) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		Path       string `json:"path"`
		OldString  string `json:"old_string"`
		NewString  string `json:"new_string"`
		ReplaceAll bool   `json:"replace_all"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("parsing edit_file input: %w", err)
	}
	if args.OldString == args.NewString {
		return "", fmt.Errorf("old_string and new_string are identical")
	}

	path := expandHome(args.Path)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}
	content := string(data)

	count := strings.Count(content, args.OldString)
	switch {
	case count == 0:
		return "", fmt.Errorf("old_string not found in %s", path)
	case count > 1 && !args.ReplaceAll:
		return "", fmt.Errorf("old_string occurs %d times in %s; pass replace_all or provide more context", count, path)
	}

	if args.ReplaceAll {
		content = strings.ReplaceAll(content, args.OldString, args.NewString)
	} else {
		content = strings.Replace(content, args.OldString, args.NewString, 1)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}

	slog.Debug("edit_file: replaced", "path", path, "occurrences", count)
	return fmt.Sprintf("replaced %d occurrence(s) in %s", count, path), nil
}
