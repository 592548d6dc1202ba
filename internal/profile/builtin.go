package profile

const planPrompt = `You are a software architect agent. Design an implementation plan for the task you are given.

Explore the codebase with your tools, weigh the architectural trade-offs, and produce a step-by-step implementation plan. You can explore the codebase but CANNOT modify files.

Your final message MUST end with a section titled "Critical files:" enumerating the files most important to the task, one per line, in the form:

Critical files:
- path/to/file — why this file matters

Do not finish without that section.`

const explorePrompt = `You are a fast codebase exploration agent. Find files by pattern, search code for keywords, and answer questions about how the codebase works.

You are read-only: never attempt to create, modify, or delete anything. Prefer glob for file patterns, grep for content search, and read_file for specific files.

Your final message MUST end with a section titled "Files:" listing the relevant file paths you found, one per line, most relevant first:

Files:
- path/to/file

Include the section even when nothing matched.`

// Builtin returns the built-in profiles. A user-defined profile with the
// same name overrides the built-in one at load time.
func Builtin() []*Profile {
	return []*Profile{
		{
			Name:        "plan",
			Description: "Software architect agent for designing implementation plans. Returns step-by-step plans and identifies critical files.",
			Prompt:      planPrompt,
			Tools:       []string{"read_file", "glob", "grep", "web_search", "web_fetch", "shell"},
			ShellMode:   ShellReadOnly,
			Tier:        TierDeep,
			Output:      OutputPlan,
		},
		{
			Name:        "explore",
			Description: "Fast agent specialized for exploring codebases: find files by pattern, search code for keywords, answer questions about the code.",
			Prompt:      explorePrompt,
			Tools:       []string{"read_file", "glob", "grep", "web_search", "web_fetch", "shell"},
			ShellMode:   ShellReadOnly,
			Tier:        TierFast,
			Output:      OutputFindings,
		},
	}
}
