// Package ai talks to the LLM providers that turn images and text into raw
// recipe documents. Output is untyped; internal/extraction shapes it.
package ai

import (
	"context"
	"net/http"
	"time"
)

// Raw is one provider response before normalisation.
type Raw struct {
	Content      string
	Provider     string
	Model        string
	InputTokens  *int
	OutputTokens *int
	Duration     time.Duration
}

// Provider extracts recipes from one input modality per call.
type Provider interface {
	Name() string
	Model() string
	ExtractFromImage(ctx context.Context, data []byte, mimeType string) (*Raw, error)
	ExtractFromURL(ctx context.Context, url string) (*Raw, error)
	ExtractFromText(ctx context.Context, text string) (*Raw, error)
}

const maxOutputTokens = 4096

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// statusError classifies a non-2xx provider response.
func statusError(provider string, status int, body []byte) *Error {
	snippet := string(body)
	if len(snippet) > 300 {
		snippet = snippet[:300]
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return NewError(KindNotConfigured, provider, "API key was rejected (status %d)", status)
	case status == http.StatusTooManyRequests:
		return NewError(KindRateLimited, provider, "rate limit reached")
	default:
		return NewError(KindExtractionFailed, provider, "API request failed with status %d: %s", status, snippet)
	}
}

func intPtr(v int) *int {
	if v <= 0 {
		return nil
	}
	return &v
}
