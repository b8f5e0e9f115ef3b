package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/larder/backend/internal/ai"
	"github.com/pageza/larder/backend/internal/extraction"
	"github.com/pageza/larder/backend/internal/models"
	"github.com/pageza/larder/backend/internal/scraper"
)

// ProviderSource hands out the currently configured AI provider.
type ProviderSource interface {
	Provider(ctx context.Context) (ai.Provider, error)
}

// PageFetcher downloads a recipe page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*scraper.Page, error)
}

// Extraction is a normalized result and, when drafts are enabled, the id it
// was parked under.
type Extraction struct {
	extraction.Result
	DraftID string `json:"draft_id,omitempty"`
}

// ExtractionService turns images, pages and pasted text into recipe drafts.
type ExtractionService struct {
	providers ProviderSource
	fetcher   PageFetcher
	usage     *AIUsageService
	drafts    *DraftStore
}

// NewExtractionService wires the extraction pipeline. drafts may be nil.
func NewExtractionService(providers ProviderSource, fetcher PageFetcher, usage *AIUsageService, drafts *DraftStore) *ExtractionService {
	return &ExtractionService{providers: providers, fetcher: fetcher, usage: usage, drafts: drafts}
}

// FromImage extracts a recipe from a photo or scan.
func (s *ExtractionService) FromImage(ctx context.Context, userID uuid.UUID, data []byte, mimeType string) (*Extraction, error) {
	result, err := s.invoke(ctx, userID, extraction.SourceImage, func(p ai.Provider) (*ai.Raw, error) {
		return p.ExtractFromImage(ctx, data, mimeType)
	})
	if err != nil {
		return nil, err
	}
	return s.park(ctx, userID, result)
}

// FromText extracts a recipe from pasted text.
func (s *ExtractionService) FromText(ctx context.Context, userID uuid.UUID, text string) (*Extraction, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is empty", ErrInvalidInput)
	}
	result, err := s.invoke(ctx, userID, extraction.SourceText, func(p ai.Provider) (*ai.Raw, error) {
		return p.ExtractFromText(ctx, text)
	})
	if err != nil {
		return nil, err
	}
	return s.park(ctx, userID, result)
}

// FromURL fetches a page. Embedded schema.org data is used directly; otherwise
// the page text goes to the provider.
func (s *ExtractionService) FromURL(ctx context.Context, userID uuid.UUID, url string) (*Extraction, error) {
	page, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		log.Printf("[Extraction] fetch of %s failed: %v", url, err)
		return nil, err
	}

	if page.Recipe != nil {
		log.Printf("[Extraction] using schema.org data from %s", page.FinalURL)
		result := extraction.Normalize(extraction.FromSchemaOrg(page.Recipe, page.FinalURL), extraction.SourceSchemaOrg)
		return s.park(ctx, userID, &result)
	}

	if strings.TrimSpace(page.Text) == "" {
		return nil, ai.NewError(ai.KindExtractionFailed, "", "page has no readable text")
	}
	result, err := s.invoke(ctx, userID, extraction.SourceURL, func(p ai.Provider) (*ai.Raw, error) {
		return p.ExtractFromText(ctx, page.Text)
	})
	if err != nil {
		return nil, err
	}
	if result.SourceURL == nil {
		finalURL := page.FinalURL
		result.SourceURL = &finalURL
	}
	return s.park(ctx, userID, result)
}

// invoke calls the active provider once and records the call in the usage log.
func (s *ExtractionService) invoke(ctx context.Context, userID uuid.UUID, source extraction.Source, call func(ai.Provider) (*ai.Raw, error)) (*extraction.Result, error) {
	provider, err := s.providers.Provider(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	raw, err := call(provider)
	entry := &models.AIUsageLog{
		UserID:     &userID,
		Provider:   provider.Name(),
		Model:      provider.Model(),
		InputType:  string(source),
		DurationMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		kind := string(ai.KindOf(err))
		msg := err.Error()
		entry.ErrorKind = &kind
		entry.ErrorMessage = &msg
		s.record(ctx, entry)
		log.Printf("[Extraction] %s %s extraction failed: %v", provider.Name(), source, err)
		return nil, err
	}
	entry.Success = true
	if raw.Model != "" {
		entry.Model = raw.Model
	}
	entry.InputTokens = raw.InputTokens
	entry.OutputTokens = raw.OutputTokens
	s.record(ctx, entry)

	result := extraction.NormalizeJSON([]byte(raw.Content), source)
	log.Printf("[Extraction] %s %s extraction: %q confidence %.2f, %d warnings",
		provider.Name(), source, result.Title, result.Confidence, len(result.Warnings))
	return &result, nil
}

func (s *ExtractionService) record(ctx context.Context, entry *models.AIUsageLog) {
	if s.usage != nil {
		s.usage.Record(ctx, entry)
	}
}

// park stores result as a draft when a draft store is configured. A draft
// store failure does not fail the extraction.
func (s *ExtractionService) park(ctx context.Context, userID uuid.UUID, result *extraction.Result) (*Extraction, error) {
	out := &Extraction{Result: *result}
	if s.drafts == nil {
		return out, nil
	}
	draft, err := s.drafts.Save(ctx, userID, result)
	if err != nil {
		log.Printf("[Extraction] %v", err)
		return out, nil
	}
	out.DraftID = draft.ID
	return out, nil
}

// Draft returns a parked extraction.
func (s *ExtractionService) Draft(ctx context.Context, userID uuid.UUID, id string) (*Draft, error) {
	if s.drafts == nil {
		return nil, ErrNotFound
	}
	return s.drafts.Get(ctx, userID, id)
}

// DiscardDraft deletes a parked extraction.
func (s *ExtractionService) DiscardDraft(ctx context.Context, userID uuid.UUID, id string) error {
	if s.drafts == nil {
		return ErrNotFound
	}
	return s.drafts.Delete(ctx, userID, id)
}
