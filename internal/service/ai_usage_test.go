package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/pageza/larder/backend/internal/models"
	"github.com/pageza/larder/backend/internal/service"
	"github.com/pageza/larder/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestAIUsageSummary(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	usage := service.NewAIUsageService(db)
	ctx := context.Background()
	user := testhelpers.CreateUser(t, db, "cook", models.RoleStandard)

	kind := "rate_limited"
	usage.Record(ctx, &models.AIUsageLog{UserID: &user.ID, Provider: "openai", Model: "gpt-4o-mini", InputType: "text", Success: true, InputTokens: intPtr(100), OutputTokens: intPtr(50)})
	usage.Record(ctx, &models.AIUsageLog{UserID: &user.ID, Provider: "openai", Model: "gpt-4o-mini", InputType: "image", Success: false, ErrorKind: &kind})
	usage.Record(ctx, &models.AIUsageLog{Provider: "anthropic", Model: "claude", InputType: "url", Success: true, InputTokens: intPtr(10), OutputTokens: intPtr(5)})

	summary, err := usage.Summary(ctx, service.UsageFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.TotalCalls)
	assert.Equal(t, int64(1), summary.TotalFailures)
	require.Len(t, summary.Providers, 2)
	assert.Equal(t, "anthropic", summary.Providers[0].Provider)
	assert.Equal(t, int64(2), summary.Providers[1].Calls)
	assert.Equal(t, int64(100), summary.Providers[1].InputTokens)

	logs, err := usage.List(ctx, service.UsageFilter{UserID: &user.ID})
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	logs, err = usage.List(ctx, service.UsageFilter{Provider: "anthropic"})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Nil(t, logs[0].UserID)
}

func TestAIUsageCleanup(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	usage := service.NewAIUsageService(db)
	ctx := context.Background()

	old := &models.AIUsageLog{Provider: "openai", InputType: "text", Success: true}
	usage.Record(ctx, old)
	require.NoError(t, db.Model(old).UpdateColumn("created_at", time.Now().AddDate(0, 0, -40)).Error)
	usage.Record(ctx, &models.AIUsageLog{Provider: "openai", InputType: "text", Success: true})

	deleted, err := usage.Cleanup(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	total, err := usage.Count(ctx, service.UsageFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	_, err = usage.Cleanup(ctx, -1)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}
