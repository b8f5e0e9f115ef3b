package ai

import (
	"context"
	"fmt"
	"time"
)

// Credentials reports the admin's provider choice and its key.
type Credentials interface {
	ActiveProvider(ctx context.Context) (string, error)
	APIKey(ctx context.Context, provider string) (string, error)
}

// FactoryConfig holds the non-secret provider settings.
type FactoryConfig struct {
	Timeout        time.Duration
	OpenAIBaseURL  string
	OpenAIModel    string
	AnthropicURL   string
	AnthropicModel string
	GeminiURL      string
	GeminiModel    string
}

// Factory builds the currently configured provider on each call, so key
// changes take effect without a restart.
type Factory struct {
	creds Credentials
	cfg   FactoryConfig
}

func NewFactory(creds Credentials, cfg FactoryConfig) *Factory {
	return &Factory{creds: creds, cfg: cfg}
}

// Provider returns the active provider or a not_configured Error.
func (f *Factory) Provider(ctx context.Context) (Provider, error) {
	name, err := f.creds.ActiveProvider(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read provider setting: %w", err)
	}
	if name == "" {
		return nil, NewError(KindNotConfigured, "", "no AI provider configured")
	}

	key, err := f.creds.APIKey(ctx, name)
	if err != nil {
		return nil, &Error{Kind: KindNotConfigured, Provider: name, Message: "API key is unreadable", Err: err}
	}
	if key == "" {
		return nil, NewError(KindNotConfigured, name, "no API key configured")
	}

	switch name {
	case "openai":
		return NewOpenAIClient(OpenAIConfig{
			Name:    name,
			APIKey:  key,
			Model:   f.cfg.OpenAIModel,
			BaseURL: f.cfg.OpenAIBaseURL,
			Timeout: f.cfg.Timeout,
		}), nil
	case "anthropic":
		return NewAnthropicClient(AnthropicConfig{
			APIKey:  key,
			Model:   f.cfg.AnthropicModel,
			BaseURL: f.cfg.AnthropicURL,
			Timeout: f.cfg.Timeout,
		}), nil
	case "gemini":
		return NewGeminiClient(GeminiConfig{
			APIKey:  key,
			Model:   f.cfg.GeminiModel,
			BaseURL: f.cfg.GeminiURL,
			Timeout: f.cfg.Timeout,
		}), nil
	}
	return nil, NewError(KindNotConfigured, name, "unknown AI provider")
}
