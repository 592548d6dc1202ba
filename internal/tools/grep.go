package tools

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	maxGrepMatches  = 200
	maxGrepLineLen  = 500
	maxGrepFileSize = 4 << 20 // larger files are likely binaries or bundles
)

type Grep struct{}

func (g *Grep) Name() string        { return "grep" }
func (g *Grep) Description() string { return "Search file contents for a regular expression" }

func (g *Grep) InputSchema() any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"pattern": map[string]any{
				"type":        "string",
				"description": "Regular expression to search for",
			},
			"path": map[string]any{
				"type":        "string",
				"description": "File or directory to search; empty for the working directory",
			},
		},
		"required":             []string{"pattern", "path"},
		"additionalProperties": false,
	}
}

func (g *Grep) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		Pattern string `json:"pattern"`
		Path    string `json:"path"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("parsing grep input: %w", err)
	}
	if args.Pattern == "" {
		return "", fmt.Errorf("pattern is required")
	}
	re, err := regexp.Compile(args.Pattern)
	if err != nil {
		return "", fmt.Errorf("invalid pattern: %w", err)
	}

	root := expandHome(args.Path)
	if root == "" {
		root = "."
	}

	slog.Debug("grep: searching", "root", root, "pattern", args.Pattern)

	var b strings.Builder
	matches := 0
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if info, err := d.Info(); err != nil || info.Size() > maxGrepFileSize {
			return nil
		}
		n, err := grepFile(re, path, &b, maxGrepMatches-matches)
		if err != nil {
			return nil
		}
		matches += n
		if matches >= maxGrepMatches {
			return fs.SkipAll
		}
		return nil
	})
	if err != nil && ctx.Err() != nil {
		return "", err
	}

	if matches == 0 {
		return "No matches found.", nil
	}
	return truncate([]byte(b.String())), nil
}

func grepFile(re *regexp.Regexp, path string, b *strings.Builder, budget int) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	matches := 0
	lineNo := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() && matches < budget {
		lineNo++
		line := scanner.Text()
		if !re.MatchString(line) {
			continue
		}
		if len(line) > maxGrepLineLen {
			line = line[:maxGrepLineLen] + "..."
		}
		fmt.Fprintf(b, "%s:%d:%s\n", path, lineNo, line)
		matches++
	}
	return matches, nil
}
