package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_BuiltinsPresent(t *testing.T) {
	r := Load(nil)

	plan, err := r.Lookup("plan")
	require.NoError(t, err)
	assert.Equal(t, ShellReadOnly, plan.ShellMode)
	assert.Equal(t, TierDeep, plan.Tier)
	assert.Equal(t, OutputPlan, plan.Output)
	assert.True(t, plan.Allows("grep"))
	assert.False(t, plan.Allows("write_file"))

	explore, err := r.Lookup("explore")
	require.NoError(t, err)
	assert.Equal(t, TierFast, explore.Tier)
	assert.Equal(t, OutputFindings, explore.Output)
}

func TestLoad_UserEntryWithDefaults(t *testing.T) {
	r := Load(map[string]Entry{
		"reviewer": {
			Description: "reviews diffs",
			Prompt:      "You review code.",
			Tools:       []string{"read_file", "grep"},
		},
	})

	p, err := r.Lookup("reviewer")
	require.NoError(t, err)
	assert.Equal(t, ShellReadOnly, p.ShellMode)
	assert.Equal(t, TierStandard, p.Tier)
	assert.Equal(t, OutputFreeform, p.Output)
}

func TestLoad_UserEntryOverridesBuiltin(t *testing.T) {
	r := Load(map[string]Entry{
		"explore": {
			Prompt:    "custom explorer",
			Tools:     []string{"glob", "grep"},
			ModelTier: "standard",
		},
	})

	p, err := r.Lookup("explore")
	require.NoError(t, err)
	assert.Equal(t, "custom explorer", p.Prompt)
	assert.Equal(t, TierStandard, p.Tier)
	assert.False(t, p.Allows("shell"))
}

func TestLoad_SkipsInvalidEntries(t *testing.T) {
	r := Load(map[string]Entry{
		"no-tools": {Prompt: "x"},
		"bad-tool": {Prompt: "x", Tools: []string{"teleport"}},
		"readonly-writer": {
			Prompt:    "x",
			Tools:     []string{"read_file", "write_file"},
			ShellMode: "read_only",
		},
		"bad-tier": {Prompt: "x", Tools: []string{"grep"}, ModelTier: "huge"},
		"builder": {
			Prompt:    "x",
			Tools:     []string{"read_file", "write_file", "edit_file", "shell"},
			ShellMode: "read_write",
		},
	})

	for _, name := range []string{"no-tools", "bad-tool", "readonly-writer", "bad-tier"} {
		_, err := r.Lookup(name)
		assert.ErrorIs(t, err, ErrNotFound, "profile %q should have been skipped", name)
	}

	p, err := r.Lookup("builder")
	require.NoError(t, err)
	assert.Equal(t, ShellReadWrite, p.ShellMode)
	assert.True(t, p.Allows("write_file"))
}

func TestLookup_NotFound(t *testing.T) {
	r := Load(nil)
	_, err := r.Lookup("refactor")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "refactor")
	assert.Contains(t, err.Error(), "explore")
}

func TestNames_Sorted(t *testing.T) {
	r := Load(map[string]Entry{
		"zeta":  {Prompt: "x", Tools: []string{"grep"}},
		"alpha": {Prompt: "x", Tools: []string{"grep"}},
	})
	assert.Equal(t, []string{"alpha", "explore", "plan", "zeta"}, r.Names())
}
