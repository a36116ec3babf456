package llm

import (
	"fmt"
	"os"
	"strings"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	DefaultOpenAIModel    = "gpt-4o"
	DefaultAnthropicModel = "claude-3-5-sonnet-latest"
)

// Backend describes a resolved completion backend.
type Backend struct {
	Completer Completer
	Provider  string
	Model     string
}

// Resolver selects the completion backend from the environment. The
// environment is read on every call so that a credential added or removed
// at runtime takes effect on the next analysis.
type Resolver struct {
	getenv func(string) string
}

// NewResolver returns a Resolver reading the process environment.
func NewResolver() *Resolver {
	return &Resolver{getenv: os.Getenv}
}

// NewResolverWithEnv returns a Resolver reading variables through getenv.
func NewResolverWithEnv(getenv func(string) string) *Resolver {
	return &Resolver{getenv: getenv}
}

// Provider returns the configured provider name, defaulting to openai.
func (r *Resolver) Provider() string {
	provider := strings.ToLower(strings.TrimSpace(r.getenv("LLM_PROVIDER")))
	if provider == "" {
		return ProviderOpenAI
	}
	return provider
}

// Enabled reports whether a credential for the configured provider is set.
func (r *Resolver) Enabled() bool {
	_, err := r.Resolve()
	return err == nil
}

// Resolve builds the backend for the configured provider. It returns
// ErrNotConfigured when the provider's API key is unset.
func (r *Resolver) Resolve() (*Backend, error) {
	switch provider := r.Provider(); provider {
	case ProviderOpenAI:
		apiKey := strings.TrimSpace(r.getenv("OPENAI_API_KEY"))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY not set: %w", ErrNotConfigured)
		}
		model := r.envOr("OPENAI_MODEL", DefaultOpenAIModel)
		return &Backend{
			Completer: NewOpenAIClient(apiKey, model, r.getenv("OPENAI_BASE_URL")),
			Provider:  provider,
			Model:     model,
		}, nil

	case ProviderAnthropic:
		apiKey := strings.TrimSpace(r.getenv("ANTHROPIC_API_KEY"))
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set: %w", ErrNotConfigured)
		}
		model := r.envOr("ANTHROPIC_MODEL", DefaultAnthropicModel)
		return &Backend{
			Completer: NewAnthropicClient(apiKey, model),
			Provider:  provider,
			Model:     model,
		}, nil

	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q (supported: openai, anthropic): %w", provider, ErrNotConfigured)
	}
}

func (r *Resolver) envOr(key, fallback string) string {
	if v := strings.TrimSpace(r.getenv(key)); v != "" {
		return v
	}
	return fallback
}
