package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultOpenAIURL   = "https://api.openai.com/v1"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// OpenAIConfig configures a client for any OpenAI-compatible chat
// completions API (OpenAI, DeepSeek).
type OpenAIConfig struct {
	Name    string
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// OpenAIClient extracts recipes through the chat completions endpoint.
type OpenAIClient struct {
	name    string
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	c := &OpenAIClient{
		name:    cfg.Name,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  newHTTPClient(cfg.Timeout),
	}
	if c.name == "" {
		c.name = "openai"
	}
	if c.model == "" {
		c.model = DefaultOpenAIModel
	}
	if c.baseURL == "" {
		c.baseURL = DefaultOpenAIURL
	}
	return c
}

func (c *OpenAIClient) Name() string  { return c.name }
func (c *OpenAIClient) Model() string { return c.model }

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type chatPart struct {
	Type     string            `json:"type"`
	Text     string            `json:"text,omitempty"`
	ImageURL map[string]string `json:"image_url,omitempty"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format"`
	MaxTokens      int               `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (c *OpenAIClient) ExtractFromImage(ctx context.Context, data []byte, mimeType string) (*Raw, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
	return c.complete(ctx, chatMessage{
		Role: "user",
		Content: []chatPart{
			{Type: "text", Text: imagePrompt},
			{Type: "image_url", ImageURL: map[string]string{"url": dataURL}},
		},
	})
}

func (c *OpenAIClient) ExtractFromURL(ctx context.Context, url string) (*Raw, error) {
	return nil, NewError(KindUnsupportedModality, c.name, "cannot fetch URLs directly")
}

func (c *OpenAIClient) ExtractFromText(ctx context.Context, text string) (*Raw, error) {
	return c.complete(ctx, chatMessage{Role: "user", Content: textPrompt(text)})
}

func (c *OpenAIClient) complete(ctx context.Context, user chatMessage) (*Raw, error) {
	if c.apiKey == "" {
		return nil, NewError(KindNotConfigured, c.name, "no API key configured")
	}

	reqBody, err := json.Marshal(chatRequest{
		Model:          c.model,
		Messages:       []chatMessage{{Role: "system", Content: systemPrompt}, user},
		ResponseFormat: map[string]string{"type": "json_object"},
		MaxTokens:      maxOutputTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, transportError(c.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindExtractionFailed, Provider: c.name, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("[AI] %s request failed with status %d", c.name, resp.StatusCode)
		return nil, statusError(c.name, resp.StatusCode, body)
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &Error{Kind: KindExtractionFailed, Provider: c.name, Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return nil, NewError(KindExtractionFailed, c.name, "empty response")
	}

	return &Raw{
		Content:      out.Choices[0].Message.Content,
		Provider:     c.name,
		Model:        c.model,
		InputTokens:  intPtr(out.Usage.PromptTokens),
		OutputTokens: intPtr(out.Usage.CompletionTokens),
		Duration:     time.Since(start),
	}, nil
}

// transportError maps a failed round trip. Timeouts and cancellations are
// extraction failures; the caller may resubmit.
func transportError(provider string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindExtractionFailed, Provider: provider, Message: "request timed out", Err: err}
	}
	return &Error{Kind: KindExtractionFailed, Provider: provider, Message: "request failed", Err: err}
}
