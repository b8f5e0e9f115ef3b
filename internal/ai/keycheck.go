package ai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const keyCheckTimeout = 10 * time.Second

// KeyChecker verifies provider API keys with one cheap request each, before
// they are stored.
type KeyChecker struct {
	cfg    FactoryConfig
	client *http.Client
}

func NewKeyChecker(cfg FactoryConfig) *KeyChecker {
	return &KeyChecker{cfg: cfg, client: newHTTPClient(keyCheckTimeout)}
}

// CheckKey returns nil when provider accepts key. Any other outcome,
// including a network failure, is a not_configured Error.
func (k *KeyChecker) CheckKey(ctx context.Context, provider, key string) error {
	req, accepted, err := k.request(ctx, provider, key)
	if err != nil {
		return err
	}
	resp, err := k.client.Do(req)
	if err != nil {
		return &Error{Kind: KindNotConfigured, Provider: provider, Message: "could not verify API key", Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	for _, status := range accepted {
		if resp.StatusCode == status {
			return nil
		}
	}
	log.Printf("[AI] %s key check failed with status %d", provider, resp.StatusCode)
	return NewError(KindNotConfigured, provider, "API key was rejected (status %d)", resp.StatusCode)
}

// request builds the check for provider and the statuses that mean the key
// is valid.
func (k *KeyChecker) request(ctx context.Context, provider, key string) (*http.Request, []int, error) {
	switch provider {
	case "openai":
		base := orDefault(k.cfg.OpenAIBaseURL, DefaultOpenAIURL)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/models", nil)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+key)
		return req, []int{http.StatusOK}, nil
	case "anthropic":
		base := orDefault(k.cfg.AnthropicURL, DefaultAnthropicURL)
		body := fmt.Sprintf(`{"model":%q,"max_tokens":1,"messages":[{"role":"user","content":"Hi"}]}`,
			orDefault(k.cfg.AnthropicModel, DefaultAnthropicModel))
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/messages", bytes.NewReader([]byte(body)))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", key)
		req.Header.Set("anthropic-version", anthropicVersion)
		// A 400 means the key authenticated and only the request body was refused.
		return req, []int{http.StatusOK, http.StatusBadRequest}, nil
	case "gemini":
		base := orDefault(k.cfg.GeminiURL, DefaultGeminiURL)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/models", nil)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("x-goog-api-key", key)
		return req, []int{http.StatusOK}, nil
	}
	return nil, nil, NewError(KindNotConfigured, provider, "unknown AI provider")
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return strings.TrimRight(v, "/")
}
