package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/pageza/larder/backend/internal/models"
	"github.com/pageza/larder/backend/internal/service"
	"github.com/pageza/larder/backend/internal/testhelpers"
	"github.com/pageza/larder/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAISettingsEncryptKeys(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	settings := service.NewSettingsService(db, "jwt-secret")
	ctx := context.Background()

	resp, err := settings.AISettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", resp.ActiveProvider)
	assert.False(t, resp.OpenAIConfigured)

	resp, err = settings.UpdateAISettings(ctx, &types.AISettingsRequest{
		ActiveProvider: strPtr("OpenAI"),
		OpenAIAPIKey:   strPtr("sk-test-123"),
	})
	require.NoError(t, err)
	assert.Equal(t, service.ProviderOpenAI, resp.ActiveProvider)
	assert.True(t, resp.OpenAIConfigured)
	assert.False(t, resp.AnthropicConfigured)

	var stored models.AppSetting
	require.NoError(t, db.First(&stored, "key = ?", service.SettingOpenAIAPIKey).Error)
	assert.True(t, stored.IsEncrypted)
	assert.NotContains(t, stored.Value, "sk-test-123")

	key, err := settings.APIKey(ctx, service.ProviderOpenAI)
	require.NoError(t, err)
	assert.Equal(t, "sk-test-123", key)

	// a different secret cannot read the key
	_, err = service.NewSettingsService(db, "other-secret").APIKey(ctx, service.ProviderOpenAI)
	assert.Error(t, err)
}

func TestAISettingsUpdateAndClear(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	settings := service.NewSettingsService(db, "jwt-secret")
	ctx := context.Background()

	_, err := settings.UpdateAISettings(ctx, &types.AISettingsRequest{ActiveProvider: strPtr("mistral")})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = settings.UpdateAISettings(ctx, &types.AISettingsRequest{
		ActiveProvider:  strPtr("anthropic"),
		AnthropicAPIKey: strPtr("first"),
	})
	require.NoError(t, err)
	_, err = settings.UpdateAISettings(ctx, &types.AISettingsRequest{AnthropicAPIKey: strPtr("second")})
	require.NoError(t, err)

	key, err := settings.APIKey(ctx, service.ProviderAnthropic)
	require.NoError(t, err)
	assert.Equal(t, "second", key)

	resp, err := settings.UpdateAISettings(ctx, &types.AISettingsRequest{
		ActiveProvider:  strPtr(""),
		AnthropicAPIKey: strPtr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, "", resp.ActiveProvider)
	assert.False(t, resp.AnthropicConfigured)
}

type stubKeyValidator struct {
	valid map[string]string
	calls []string
}

func (v *stubKeyValidator) CheckKey(_ context.Context, provider, key string) error {
	v.calls = append(v.calls, provider)
	if v.valid[provider] != key {
		return errors.New("rejected")
	}
	return nil
}

func TestAISettingsValidateKeysBeforeSaving(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	validator := &stubKeyValidator{valid: map[string]string{
		service.ProviderOpenAI: "sk-good",
		service.ProviderGemini: "gm-good",
	}}
	settings := service.NewSettingsService(db, "jwt-secret").WithKeyValidator(validator)
	ctx := context.Background()

	_, err := settings.UpdateAISettings(ctx, &types.AISettingsRequest{
		ActiveProvider: strPtr("openai"),
		OpenAIAPIKey:   strPtr("sk-good"),
		GeminiAPIKey:   strPtr("gm-bad"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
	assert.Contains(t, err.Error(), "GEMINI")

	// a rejected key leaves every setting untouched
	resp, err := settings.AISettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", resp.ActiveProvider)
	assert.False(t, resp.OpenAIConfigured)
	assert.False(t, resp.GeminiConfigured)

	resp, err = settings.UpdateAISettings(ctx, &types.AISettingsRequest{
		ActiveProvider: strPtr("gemini"),
		GeminiAPIKey:   strPtr(" gm-good "),
	})
	require.NoError(t, err)
	assert.Equal(t, service.ProviderGemini, resp.ActiveProvider)
	assert.True(t, resp.GeminiConfigured)

	key, err := settings.APIKey(ctx, service.ProviderGemini)
	require.NoError(t, err)
	assert.Equal(t, "gm-good", key)

	// clearing a key needs no check
	validator.calls = nil
	resp, err = settings.UpdateAISettings(ctx, &types.AISettingsRequest{GeminiAPIKey: strPtr("")})
	require.NoError(t, err)
	assert.False(t, resp.GeminiConfigured)
	assert.Empty(t, validator.calls)
}
