package llm

import "fmt"

// Factory hands out a Provider per model tier. Profiles declare a tier, not
// a model name; the tier-to-model mapping lives in configuration and is
// fixed here at startup.
type Factory struct {
	byTier map[string]Provider
}

func NewFactory() *Factory {
	return &Factory{byTier: make(map[string]Provider)}
}

// Register binds a tier name to a provider. Later registrations replace
// earlier ones.
func (f *Factory) Register(tier string, p Provider) {
	f.byTier[tier] = p
}

// For returns the provider registered for the tier.
func (f *Factory) For(tier string) (Provider, error) {
	p, ok := f.byTier[tier]
	if !ok {
		return nil, fmt.Errorf("no provider registered for model tier %q", tier)
	}
	return p, nil
}
