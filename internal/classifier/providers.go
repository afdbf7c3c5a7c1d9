package classifier

import "strings"

// Provider is an OpenAI compatible chat endpoint.
type Provider struct {
	Name    string
	BaseURL string
	Model   string
	Matches func(apiKey string) bool
}

// Providers is checked in order; the last entry matches any key.
var Providers = []Provider{
	{
		Name:    "groq",
		BaseURL: "https://api.groq.com/openai/v1",
		Model:   "llama-3.1-8b-instant",
		Matches: func(apiKey string) bool { return strings.HasPrefix(apiKey, "gsk_") },
	},
	{
		Name:    "openai",
		Model:   "gpt-4o-mini",
		Matches: func(string) bool { return true },
	},
}

// SelectProvider returns the first provider whose key format matches.
func SelectProvider(apiKey string) Provider {
	for _, p := range Providers {
		if p.Matches(apiKey) {
			return p
		}
	}
	return Providers[len(Providers)-1]
}

// FromAPIKey builds a Categorizer for the provider matching apiKey. An empty
// key yields a Categorizer that always falls back to defaults.
func FromAPIKey(apiKey, modelOverride string, opts ...Option) *Categorizer {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return New(opts...)
	}
	provider := SelectProvider(apiKey)
	model := provider.Model
	if strings.TrimSpace(modelOverride) != "" {
		model = modelOverride
	}
	return New(append([]Option{WithModel(NewOpenAI(apiKey, provider), model)}, opts...)...)
}
