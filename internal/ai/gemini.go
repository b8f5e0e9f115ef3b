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
	DefaultGeminiURL   = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiModel = "gemini-1.5-flash"
)

// GeminiConfig configures the generateContent client.
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// GeminiClient extracts recipes through the Gemini generateContent endpoint.
type GeminiClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	c := &GeminiClient{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  newHTTPClient(cfg.Timeout),
	}
	if c.model == "" {
		c.model = DefaultGeminiModel
	}
	if c.baseURL == "" {
		c.baseURL = DefaultGeminiURL
	}
	return c
}

func (c *GeminiClient) Name() string  { return "gemini" }
func (c *GeminiClient) Model() string { return c.model }

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction geminiContent    `json:"system_instruction"`
	Contents          []geminiContent  `json:"contents"`
	GenerationConfig  geminiGeneration `json:"generationConfig"`
}

type geminiGeneration struct {
	ResponseMimeType string `json:"responseMimeType"`
	MaxOutputTokens  int    `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

func (c *GeminiClient) ExtractFromImage(ctx context.Context, data []byte, mimeType string) (*Raw, error) {
	return c.send(ctx, []geminiPart{
		{InlineData: &geminiInlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(data)}},
		{Text: imagePrompt},
	})
}

func (c *GeminiClient) ExtractFromURL(ctx context.Context, url string) (*Raw, error) {
	return nil, NewError(KindUnsupportedModality, c.Name(), "cannot fetch URLs directly")
}

func (c *GeminiClient) ExtractFromText(ctx context.Context, text string) (*Raw, error) {
	return c.send(ctx, []geminiPart{{Text: textPrompt(text)}})
}

func (c *GeminiClient) send(ctx context.Context, parts []geminiPart) (*Raw, error) {
	if c.apiKey == "" {
		return nil, NewError(KindNotConfigured, c.Name(), "no API key configured")
	}

	reqBody, err := json.Marshal(geminiRequest{
		SystemInstruction: geminiContent{Parts: []geminiPart{{Text: systemPrompt}}},
		Contents:          []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: geminiGeneration{
			ResponseMimeType: "application/json",
			MaxOutputTokens:  maxOutputTokens,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

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
		log.Printf("[AI] gemini request failed with status %d", resp.StatusCode)
		return nil, statusError(c.Name(), resp.StatusCode, body)
	}

	var out geminiResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &Error{Kind: KindExtractionFailed, Provider: c.Name(), Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	var text strings.Builder
	if len(out.Candidates) > 0 {
		for _, part := range out.Candidates[0].Content.Parts {
			text.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return nil, NewError(KindExtractionFailed, c.Name(), "empty response")
	}

	return &Raw{
		Content:      text.String(),
		Provider:     c.Name(),
		Model:        c.model,
		InputTokens:  intPtr(out.UsageMetadata.PromptTokenCount),
		OutputTokens: intPtr(out.UsageMetadata.CandidatesTokenCount),
		Duration:     time.Since(start),
	}, nil
}
