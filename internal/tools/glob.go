package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

const maxGlobMatches = 200

type Glob struct{}

func (g *Glob) Name() string        { return "glob" }
func (g *Glob) Description() string { return "Find files matching a glob pattern, ** supported" }

func (g *Glob) InputSchema() any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"pattern": map[string]any{
				"type":        "string",
				"description": "Glob pattern, e.g. src/**/*.go",
			},
			"root": map[string]any{
				"type":        "string",
				"description": "Directory to search from; empty for the working directory",
			},
		},
		"required":             []string{"pattern", "root"},
		"additionalProperties": false,
	}
}

func (g *Glob) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		Pattern string `json:"pattern"`
		Root    string `json:"root"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("parsing glob input: %w", err)
	}
	if args.Pattern == "" {
		return "", fmt.Errorf("pattern is required")
	}

	root := expandHome(args.Root)
	if root == "" {
		root = "."
	}

	re, err := globToRegexp(args.Pattern)
	if err != nil {
		return "", fmt.Errorf("invalid pattern: %w", err)
	}

	slog.Debug("glob: walking", "root", root, "pattern", args.Pattern)

	var matches []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
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
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if re.MatchString(filepath.ToSlash(rel)) {
			matches = append(matches, rel)
			if len(matches) >= maxGlobMatches {
				return fs.SkipAll
			}
		}
		return nil
	})
	if err != nil && ctx.Err() != nil {
		return "", err
	}

	if len(matches) == 0 {
		return "No files matched.", nil
	}
	sort.Strings(matches)
	return strings.Join(matches, "\n"), nil
}

// globToRegexp translates a glob pattern into an anchored regexp:
// ** crosses directory separators, * and ? do not.
func globToRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	p := filepath.ToSlash(pattern)
	for i := 0; i < len(p); i++ {
		switch c := p[i]; c {
		case '*':
			if i+1 < len(p) && p[i+1] == '*' {
				b.WriteString(".*")
				i++
				// swallow a following slash so "a/**/b" also matches "a/b"
				if i+1 < len(p) && p[i+1] == '/' {
					b.WriteString("/?")
					i++
				}
			} else {
				b.WriteString("[^/]*")
			}
		case '?':
			b.WriteString("[^/]")
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}
