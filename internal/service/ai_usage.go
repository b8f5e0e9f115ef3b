package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/larder/backend/internal/models"
	"gorm.io/gorm"
)

// AIUsageService records and reports extraction provider calls.
type AIUsageService struct {
	db *gorm.DB
}

func NewAIUsageService(db *gorm.DB) *AIUsageService {
	return &AIUsageService{db: db}
}

// Record stores one usage entry. Failures are logged, never returned, so a
// logging problem cannot fail an extraction.
func (s *AIUsageService) Record(ctx context.Context, entry *models.AIUsageLog) {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		log.Printf("[AIUsage] failed to record usage for %s: %v", entry.Provider, err)
	}
}

// UsageFilter narrows a usage listing.
type UsageFilter struct {
	Provider string
	UserID   *uuid.UUID
	Since    *time.Time
	Until    *time.Time
	Offset   int
	Limit    int
}

func (s *AIUsageService) List(ctx context.Context, filter UsageFilter) ([]models.AIUsageLog, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	var logs []models.AIUsageLog
	err := s.filtered(ctx, filter).Order("created_at DESC").Offset(offset).Limit(limit).Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list usage logs: %w", err)
	}
	return logs, nil
}

// Count returns how many entries match filter, ignoring paging.
func (s *AIUsageService) Count(ctx context.Context, filter UsageFilter) (int64, error) {
	var total int64
	if err := s.filtered(ctx, filter).Model(&models.AIUsageLog{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count usage logs: %w", err)
	}
	return total, nil
}

// Cleanup deletes entries older than retentionDays and reports how many went.
func (s *AIUsageService) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays < 0 {
		return 0, fmt.Errorf("%w: retention must not be negative", ErrInvalidInput)
	}
	cutoff := time.Now().Add(-time.Duration(retentionDays) * 24 * time.Hour)
	result := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.AIUsageLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete usage logs: %w", result.Error)
	}
	log.Printf("[AIUsage] deleted %d entries older than %d days", result.RowsAffected, retentionDays)
	return result.RowsAffected, nil
}

// ProviderUsage aggregates calls for one provider.
type ProviderUsage struct {
	Provider     string `json:"provider"`
	Calls        int64  `json:"calls"`
	Failures     int64  `json:"failures"`
	InputTokens  int64  `json:"input_tokens"`
	OutputTokens int64  `json:"output_tokens"`
}

// UsageSummary totals usage across providers.
type UsageSummary struct {
	TotalCalls    int64           `json:"total_calls"`
	TotalFailures int64           `json:"total_failures"`
	Providers     []ProviderUsage `json:"providers"`
}

func (s *AIUsageService) Summary(ctx context.Context, filter UsageFilter) (*UsageSummary, error) {
	var rows []ProviderUsage
	err := s.filtered(ctx, filter).
		Model(&models.AIUsageLog{}).
		Select(`provider,
			COUNT(*) AS calls,
			SUM(CASE WHEN success THEN 0 ELSE 1 END) AS failures,
			COALESCE(SUM(input_tokens), 0) AS input_tokens,
			COALESCE(SUM(output_tokens), 0) AS output_tokens`).
		Group("provider").
		Order("provider").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to summarise usage: %w", err)
	}

	summary := &UsageSummary{Providers: rows}
	if summary.Providers == nil {
		summary.Providers = []ProviderUsage{}
	}
	for _, r := range rows {
		summary.TotalCalls += r.Calls
		summary.TotalFailures += r.Failures
	}
	return summary, nil
}

func (s *AIUsageService) filtered(ctx context.Context, filter UsageFilter) *gorm.DB {
	query := s.db.WithContext(ctx)
	if filter.Provider != "" {
		query = query.Where("provider = ?", filter.Provider)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Since != nil {
		query = query.Where("created_at >= ?", *filter.Since)
	}
	if filter.Until != nil {
		query = query.Where("created_at <= ?", *filter.Until)
	}
	return query
}
