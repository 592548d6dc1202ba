package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"
)

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

type WebFetch struct{}

func (w *WebFetch) Name() string        { return "web_fetch" }
func (w *WebFetch) Description() string { return "Fetch a URL and return its text content" }

func (w *WebFetch) InputSchema() any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "URL to fetch",
			},
		},
		"required":             []string{"url"},
		"additionalProperties": false,
	}
}

func (w *WebFetch) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("parsing web_fetch input: %w", err)
	}
	if args.URL == "" {
		return "", fmt.Errorf("url is required")
	}

	slog.Debug("web_fetch: fetching", "url", args.URL)

	client := &http.Client{Timeout: 30 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, args.URL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "squad/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("HTTP %d %s", resp.StatusCode, resp.Status)
	}

	const maxBody = 100 * 1024
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	text := htmlTagRe.ReplaceAllString(string(body), "")
	text = strings.Join(strings.Fields(text), " ")

	slog.Debug("web_fetch: done", "url", args.URL, "bytes", len(text))
	return truncate([]byte(text)), nil
}
