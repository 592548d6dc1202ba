package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Tool output is capped so a single call cannot flood the model's context
// window.
const maxOutputBytes = 10_000

func truncate(b []byte) string {
	if len(b) <= maxOutputBytes {
		return string(b)
	}
	return fmt.Sprintf("%s\n[output truncated, %d bytes total]", b[:maxOutputBytes], len(b))
}

// expandHome resolves a leading ~/ against the current user's home
// directory. Paths for other users (~name) are left untouched.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
