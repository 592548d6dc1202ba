// Package profile defines capability profiles: named, immutable bundles of
// permitted tools, shell mode, and model tier that scope what a dispatched
// agent run may do.
package profile

import "fmt"

// ShellMode controls whether a profile's shell access may mutate state.
type ShellMode string

const (
	ShellReadOnly  ShellMode = "read_only"
	ShellReadWrite ShellMode = "read_write"
)

// Tier selects the model class a profile runs on. The concrete model name
// per tier comes from configuration.
type Tier string

const (
	TierFast     Tier = "fast"
	TierStandard Tier = "standard"
	TierDeep     Tier = "deep"
)

// Output names the shape the profile's final message must satisfy.
type Output string

const (
	// OutputPlan requires a plan narrative ending in an enumerated
	// critical-files section with a rationale per file.
	OutputPlan Output = "plan"
	// OutputFindings requires a findings narrative plus an ordered list of
	// file paths; per-file rationale is optional.
	OutputFindings Output = "findings"
	// OutputFreeform accepts any non-empty final message.
	OutputFreeform Output = "freeform"
)

// Profile is an immutable capability profile for one agent role.
// Profiles are shared by reference across concurrent runs and must never be
// mutated after registry load.
type Profile struct {
	Name        string
	Description string
	Prompt      string
	Tools       []string
	ShellMode   ShellMode
	Tier        Tier
	Output      Output
}

// Allows reports whether the profile declares the named tool.
func (p *Profile) Allows(tool string) bool {
	for _, t := range p.Tools {
		if t == tool {
			return true
		}
	}
	return false
}

// ToolVocabulary is the fixed set of tool names a profile may declare.
var ToolVocabulary = map[string]bool{
	"read_file":  true,
	"glob":       true,
	"grep":       true,
	"web_search": true,
	"web_fetch":  true,
	"shell":      true,
	"write_file": true,
	"edit_file":  true,
}

// mutationOnlyTools are tools whose only purpose is mutation. A read-only
// profile must not declare them: the omission is the first layer of defense,
// runtime classification the second.
var mutationOnlyTools = map[string]bool{
	"write_file": true,
	"edit_file":  true,
}

// validate checks a profile's invariants. Violations are load-time errors
// for that single profile, not for the whole registry.
func (p *Profile) validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile has no name")
	}
	if len(p.Tools) == 0 {
		return fmt.Errorf("profile %q declares no tools", p.Name)
	}
	for _, t := range p.Tools {
		if !ToolVocabulary[t] {
			return fmt.Errorf("profile %q declares unknown tool %q", p.Name, t)
		}
		if p.ShellMode == ShellReadOnly && mutationOnlyTools[t] {
			return fmt.Errorf("profile %q is read-only but declares mutating tool %q", p.Name, t)
		}
	}
	switch p.ShellMode {
	case ShellReadOnly, ShellReadWrite:
	default:
		return fmt.Errorf("profile %q has unknown shell mode %q", p.Name, p.ShellMode)
	}
	switch p.Tier {
	case TierFast, TierStandard, TierDeep:
	default:
		return fmt.Errorf("profile %q has unknown model tier %q", p.Name, p.Tier)
	}
	switch p.Output {
	case OutputPlan, OutputFindings, OutputFreeform:
	default:
		return fmt.Errorf("profile %q has unknown output contract %q", p.Name, p.Output)
	}
	return nil
}
