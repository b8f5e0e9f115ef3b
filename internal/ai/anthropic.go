package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultAnthropicURL   = "https://api.anthropic.com/v1"
	DefaultAnthropicModel = "claude-sonnet-4-20250514"
	anthropicVersion      = "2023-06-01"
)

// AnthropicConfig configures the messages API client.
type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// AnthropicClient extracts recipes through the messages endpoint.
type AnthropicClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewAnthropicClient(cfg AnthropicConfig) *AnthropicClient {
	c := &AnthropicClient{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  newHTTPClient(cfg.Timeout),
	}
	if c.model == "" {
		c.model = DefaultAnthropicModel
	}
	if c.baseURL == "" {
		c.baseURL = DefaultAnthropicURL
	}
	return c
}

func (c *AnthropicClient) Name() string  { return "anthropic" }
func (c *AnthropicClient) Model() string { return c.model }

type anthropicBlock struct {
	Type   string                 `json:"type"`
	Text   string                 `json:"text,omitempty"`
	Source map[string]interface{} `json:"source,omitempty"`
}

type anthropicMessage struct {
	Role    string           `json:"role"`
	Content []anthropicBlock `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (c *AnthropicClient) ExtractFromImage(ctx context.Context, data []byte, mimeType string) (*Raw, error) {
	return c.send(ctx, []anthropicBlock{
		{
			Type: "image",
			Source: map[string]interface{}{
				"type":       "base64",
				"media_type": mimeType,
				"data":       base64.StdEncoding.EncodeToString(data),
			},
		},
		{Type: "text", Text: imagePrompt},
	})
}

func (c *AnthropicClient) ExtractFromURL(ctx context.Context, url string) (*Raw, error) {
	return nil, NewError(KindUnsupportedModality, c.Name(), "cannot fetch URLs directly")
}

func (c *AnthropicClient) ExtractFromText(ctx context.Context, text string) (*Raw, error) {
	return c.send(ctx, []anthropicBlock{{Type: "text", Text: textPrompt(text)}})
}

func (c *AnthropicClient) send(ctx context.Context, blocks []anthropicBlock) (*Raw, error) {
	if c.apiKey == "" {
		return nil, NewError(KindNotConfigured, c.Name(), "no API key configured")
	}

	reqBody, err := json.Marshal(anthropicRequest{
		Model:     c.model,
		MaxTokens: maxOutputTokens,
		System:    systemPrompt,
		Messages:  []anthropicMessage{{Role: "user", Content: blocks}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, transportError(c.Name(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindExtractionFailed, Provider: c.Name(), Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("[AI] anthropic request failed with status %d", resp.StatusCode)
		return nil, statusError(c.Name(), resp.StatusCode, body)
	}

	var out anthropicResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &Error{Kind: KindExtractionFailed, Provider: c.Name(), Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	var text strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return nil, NewError(KindExtractionFailed, c.Name(), "empty response")
	}

	return &Raw{
		Content:      text.String(),
		Provider:     c.Name(),
		Model:        c.model,
		InputTokens:  intPtr(out.Usage.InputTokens),
		OutputTokens: intPtr(out.Usage.OutputTokens),
		Duration:     time.Since(start),
	}, nil
}
