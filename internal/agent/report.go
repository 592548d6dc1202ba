package agent

import (
	"fmt"
	"regexp"
	"strings"

	"squad/internal/profile"
)

// Artifact is one file the run singled out, with an optional rationale.
type Artifact struct {
	Path      string `json:"path"`
	Rationale string `json:"rationale,omitempty"`
}

// Report is the normalized final output of a completed run. Produced once,
// immutable thereafter.
type Report struct {
	RunID     string     `json:"run_id"`
	Profile   string     `json:"profile"`
	Summary   string     `json:"summary"`
	Artifacts []Artifact `json:"artifacts,omitempty"`
}

var (
	sectionRe = regexp.MustCompile(`(?i)^#{0,3}\s*(critical files|files)\s*:?\s*$`)
	itemRe    = regexp.MustCompile(`^\s*(?:[-*]|\d+[.)])\s+(.+)$`)
)

// aggregate parses a run's final message into the profile's output
// contract. A parse failure means the message is malformed for the role,
// which the dispatch loop treats as a soft failure (one re-prompt) before
// failing the run.
func aggregate(runID string, p *profile.Profile, final string) (*Report, error) {
	text := strings.TrimSpace(final)
	if text == "" {
		return nil, fmt.Errorf("final message is empty")
	}

	rep := &Report{RunID: runID, Profile: p.Name}
	if p.Output == profile.OutputFreeform {
		rep.Summary = text
		return rep, nil
	}

	lines := strings.Split(text, "\n")
	sectionIdx := -1
	for i := len(lines) - 1; i >= 0; i-- {
		if sectionRe.MatchString(strings.TrimSpace(lines[i])) {
			sectionIdx = i
			break
		}
	}
	if sectionIdx < 0 {
		return nil, fmt.Errorf("missing the enumerated files section")
	}

	rep.Summary = strings.TrimSpace(strings.Join(lines[:sectionIdx], "\n"))
	for _, line := range lines[sectionIdx+1:] {
		m := itemRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		entry := strings.TrimSpace(m[1])
		if entry == "" || strings.EqualFold(entry, "(none)") {
			continue
		}
		path, rationale := splitArtifact(entry)
		rep.Artifacts = append(rep.Artifacts, Artifact{Path: path, Rationale: rationale})
	}

	if p.Output == profile.OutputPlan && len(rep.Artifacts) == 0 {
		return nil, fmt.Errorf("plan output requires at least one critical file")
	}
	return rep, nil
}

// splitArtifact separates "path <sep> rationale" item lines. The path is
// everything before the first recognized separator.
func splitArtifact(entry string) (path, rationale string) {
	for _, sep := range []string{" — ", " -- ", " - ", ": "} {
		if i := strings.Index(entry, sep); i > 0 {
			return strings.TrimSpace(entry[:i]), strings.TrimSpace(entry[i+len(sep):])
		}
	}
	return entry, ""
}
