package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIExtractFromText(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"content": "{\"title\": \"Toast\"}"}}],
			"usage": {"prompt_tokens": 120, "completion_tokens": 30}
		}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{APIKey: "sk-test", BaseURL: server.URL})
	raw, err := client.ExtractFromText(context.Background(), "toast bread")
	require.NoError(t, err)

	assert.Equal(t, `{"title": "Toast"}`, raw.Content)
	assert.Equal(t, "openai", raw.Provider)
	assert.Equal(t, DefaultOpenAIModel, raw.Model)
	assert.Equal(t, 120, *raw.InputTokens)
	assert.Equal(t, 30, *raw.OutputTokens)

	assert.Equal(t, DefaultOpenAIModel, got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Contains(t, got.Messages[1].Content, "toast bread")
	assert.Equal(t, "json_object", got.ResponseFormat["type"])
}

func TestOpenAIStatusClassification(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{http.StatusUnauthorized, KindNotConfigured},
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusInternalServerError, KindExtractionFailed},
	}
	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tt.status)
		}))
		client := NewOpenAIClient(OpenAIConfig{APIKey: "k", BaseURL: server.URL})
		_, err := client.ExtractFromImage(context.Background(), []byte{0xff, 0xd8}, "image/jpeg")
		server.Close()

		assert.Equal(t, tt.want, KindOf(err), "status %d", tt.status)
	}
}

func TestOpenAITimeoutIsExtractionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{APIKey: "k", BaseURL: server.URL, Timeout: 20 * time.Millisecond})
	_, err := client.ExtractFromText(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, KindExtractionFailed, KindOf(err))
}

func TestAnthropicExtractFromImage(t *testing.T) {
	var got anthropicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "ak-test", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		_, _ = w.Write([]byte(`{
			"content": [{"type": "text", "text": "{\"title\": "}, {"type": "text", "text": "\"Soup\"}"}],
			"usage": {"input_tokens": 900, "output_tokens": 80}
		}`))
	}))
	defer server.Close()

	client := NewAnthropicClient(AnthropicConfig{APIKey: "ak-test", BaseURL: server.URL})
	raw, err := client.ExtractFromImage(context.Background(), []byte("png"), "image/png")
	require.NoError(t, err)

	assert.Equal(t, `{"title": "Soup"}`, raw.Content)
	assert.Equal(t, 900, *raw.InputTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "image", got.Messages[0].Content[0].Type)
	assert.Equal(t, "image/png", got.Messages[0].Content[0].Source["media_type"])
	assert.Equal(t, systemPrompt, got.System)
}

func TestProvidersRejectURLModality(t *testing.T) {
	for _, p := range []Provider{
		NewOpenAIClient(OpenAIConfig{APIKey: "k"}),
		NewAnthropicClient(AnthropicConfig{APIKey: "k"}),
		NewGeminiClient(GeminiConfig{APIKey: "k"}),
	} {
		_, err := p.ExtractFromURL(context.Background(), "https://example.com")
		assert.Equal(t, KindUnsupportedModality, KindOf(err), p.Name())
	}
}

func TestMissingKeyIsNotConfigured(t *testing.T) {
	_, err := NewAnthropicClient(AnthropicConfig{}).ExtractFromText(context.Background(), "x")
	assert.Equal(t, KindNotConfigured, KindOf(err))
}

type staticCreds struct {
	provider string
	keys     map[string]string
	err      error
}

func (c staticCreds) ActiveProvider(context.Context) (string, error) { return c.provider, nil }
func (c staticCreds) APIKey(_ context.Context, p string) (string, error) {
	return c.keys[p], c.err
}

func TestFactory(t *testing.T) {
	ctx := context.Background()

	_, err := NewFactory(staticCreds{}, FactoryConfig{}).Provider(ctx)
	assert.Equal(t, KindNotConfigured, KindOf(err))

	_, err = NewFactory(staticCreds{provider: "anthropic"}, FactoryConfig{}).Provider(ctx)
	assert.Equal(t, KindNotConfigured, KindOf(err))

	_, err = NewFactory(staticCreds{provider: "openai", err: errors.New("bad ciphertext")}, FactoryConfig{}).Provider(ctx)
	assert.Equal(t, KindNotConfigured, KindOf(err))

	p, err := NewFactory(staticCreds{provider: "anthropic", keys: map[string]string{"anthropic": "k"}}, FactoryConfig{AnthropicModel: "claude-test"}).Provider(ctx)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p.Name())
	assert.Equal(t, "claude-test", p.Model())

	p, err = NewFactory(staticCreds{provider: "openai", keys: map[string]string{"openai": "k"}}, FactoryConfig{}).Provider(ctx)
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	p, err = NewFactory(staticCreds{provider: "gemini", keys: map[string]string{"gemini": "k"}}, FactoryConfig{}).Provider(ctx)
	require.NoError(t, err)
	assert.Equal(t, "gemini", p.Name())
	assert.Equal(t, DefaultGeminiModel, p.Model())

	_, err = NewFactory(staticCreds{provider: "mistral", keys: map[string]string{"mistral": "k"}}, FactoryConfig{}).Provider(ctx)
	assert.Equal(t, KindNotConfigured, KindOf(err))
}

func TestRemediation(t *testing.T) {
	assert.Contains(t, KindNotConfigured.Remediation(), "admin")
	assert.Equal(t, KindExtractionFailed.Remediation(), Kind("mystery").Remediation())
	assert.Equal(t, KindExtractionFailed, KindOf(errors.New("plain")))
}

func TestGeminiExtractFromImage(t *testing.T) {
	var got geminiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "gm-test", r.Header.Get("x-goog-api-key"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"parts": [{"text": "{\"title\": \"Stew\"}"}]}}],
			"usageMetadata": {"promptTokenCount": 500, "candidatesTokenCount": 60}
		}`))
	}))
	defer server.Close()

	client := NewGeminiClient(GeminiConfig{APIKey: "gm-test", Model: "gemini-test", BaseURL: server.URL})
	raw, err := client.ExtractFromImage(context.Background(), []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, `{"title": "Stew"}`, raw.Content)
	assert.Equal(t, "gemini", raw.Provider)
	assert.Equal(t, 500, *raw.InputTokens)
	assert.Equal(t, 60, *raw.OutputTokens)

	assert.Equal(t, systemPrompt, got.SystemInstruction.Parts[0].Text)
	require.Len(t, got.Contents, 1)
	require.Len(t, got.Contents[0].Parts, 2)
	assert.Equal(t, "image/jpeg", got.Contents[0].Parts[0].InlineData.MimeType)
	assert.Equal(t, imagePrompt, got.Contents[0].Parts[1].Text)
	assert.Equal(t, "application/json", got.GenerationConfig.ResponseMimeType)
}

func TestGeminiEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates": []}`))
	}))
	defer server.Close()

	_, err := NewGeminiClient(GeminiConfig{APIKey: "k", BaseURL: server.URL}).ExtractFromText(context.Background(), "x")
	assert.Equal(t, KindExtractionFailed, KindOf(err))
}

func TestKeyChecker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/openai/models":
			if r.Header.Get("Authorization") != "Bearer sk-good" {
				w.WriteHeader(http.StatusUnauthorized)
			}
		case "/anthropic/messages":
			assert.Equal(t, http.MethodPost, r.Method)
			if r.Header.Get("x-api-key") != "ak-good" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.WriteHeader(http.StatusBadRequest)
		case "/gemini/models":
			if r.Header.Get("x-goog-api-key") != "gm-good" {
				w.WriteHeader(http.StatusBadRequest)
			}
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	checker := NewKeyChecker(FactoryConfig{
		OpenAIBaseURL: server.URL + "/openai",
		AnthropicURL:  server.URL + "/anthropic",
		GeminiURL:     server.URL + "/gemini/",
	})
	ctx := context.Background()

	tests := []struct {
		provider string
		key      string
		valid    bool
	}{
		{"openai", "sk-good", true},
		{"openai", "sk-bad", false},
		{"anthropic", "ak-good", true},
		{"anthropic", "ak-bad", false},
		{"gemini", "gm-good", true},
		{"gemini", "gm-bad", false},
		{"mistral", "anything", false},
	}
	for _, tt := range tests {
		err := checker.CheckKey(ctx, tt.provider, tt.key)
		if tt.valid {
			assert.NoError(t, err, "%s %s", tt.provider, tt.key)
		} else {
			assert.Equal(t, KindNotConfigured, KindOf(err), "%s %s", tt.provider, tt.key)
		}
	}
}

func TestKeyCheckerUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	err := NewKeyChecker(FactoryConfig{OpenAIBaseURL: url}).CheckKey(context.Background(), "openai", "k")
	assert.Equal(t, KindNotConfigured, KindOf(err))
}
