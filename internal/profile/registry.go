package profile

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
)

// ErrNotFound is returned by Lookup for unregistered profile names.
var ErrNotFound = errors.New("profile not found")

// Entry is the external registry format for one profile, as it appears
// under [profiles.<name>] in the config file.
type Entry struct {
	Description string   `toml:"description"`
	Prompt      string   `toml:"prompt"`
	Tools       []string `toml:"tools"`
	ShellMode   string   `toml:"shell_mode"`
	ModelTier   string   `toml:"model_tier"`
	Output      string   `toml:"output"`
}

// Registry is the immutable set of capability profiles, built once at
// process start. Concurrent lookups need no synchronization because the
// map is never written after Load returns.
type Registry struct {
	profiles map[string]*Profile
}

// Load builds a registry from the built-in profiles plus user entries.
// A user entry with the same name as a built-in replaces it. An invalid
// entry is skipped with a logged error; the rest of the registry still
// loads.
func Load(entries map[string]Entry) *Registry {
	r := &Registry{profiles: make(map[string]*Profile)}

	for _, p := range Builtin() {
		r.profiles[p.Name] = p
	}

	for name, e := range entries {
		p := &Profile{
			Name:        name,
			Description: e.Description,
			Prompt:      e.Prompt,
			Tools:       e.Tools,
			ShellMode:   ShellMode(e.ShellMode),
			Tier:        Tier(e.ModelTier),
			Output:      Output(e.Output),
		}
		if p.ShellMode == "" {
			p.ShellMode = ShellReadOnly
		}
		if p.Tier == "" {
			p.Tier = TierStandard
		}
		if p.Output == "" {
			p.Output = OutputFreeform
		}
		if err := p.validate(); err != nil {
			slog.Error("skipping invalid profile entry", "profile", name, "error", err)
			continue
		}
		r.profiles[name] = p
	}

	return r
}

// Lookup returns the named profile or ErrNotFound. Failure is fatal only to
// the dispatch request that asked for the name, never to the process.
func (r *Registry) Lookup(name string) (*Profile, error) {
	p, ok := r.profiles[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrNotFound, name, r.Names())
	}
	return p, nil
}

// Names returns the registered profile names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
