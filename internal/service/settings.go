package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/pageza/larder/backend/internal/models"
	"github.com/pageza/larder/backend/internal/types"
	"golang.org/x/crypto/nacl/secretbox"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	SettingActiveProvider  = "ai_provider"
	SettingOpenAIAPIKey    = "openai_api_key"
	SettingAnthropicAPIKey = "anthropic_api_key"
	SettingGeminiAPIKey    = "gemini_api_key"

	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"

	nonceSize = 24
)

var errUndecryptable = errors.New("stored value cannot be decrypted")

// providerKeys maps each provider to the setting holding its API key.
var providerKeys = map[string]string{
	ProviderOpenAI:    SettingOpenAIAPIKey,
	ProviderAnthropic: SettingAnthropicAPIKey,
	ProviderGemini:    SettingGeminiAPIKey,
}

// KeyValidator confirms a provider accepts an API key. ai.KeyChecker
// implements it.
type KeyValidator interface {
	CheckKey(ctx context.Context, provider, key string) error
}

// SettingsService stores admin settings. Provider API keys are sealed with
// NaCl secretbox under a key derived from the JWT secret.
type SettingsService struct {
	db        *gorm.DB
	key       [32]byte
	validator KeyValidator
}

func NewSettingsService(db *gorm.DB, secret string) *SettingsService {
	return &SettingsService{db: db, key: sha256.Sum256([]byte(secret))}
}

// WithKeyValidator makes UpdateAISettings check new keys with v before
// storing them.
func (s *SettingsService) WithKeyValidator(v KeyValidator) *SettingsService {
	s.validator = v
	return s
}

func (s *SettingsService) encrypt(plaintext string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &s.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (s *SettingsService) decrypt(encoded string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(sealed) < nonceSize+secretbox.Overhead {
		return "", errUndecryptable
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", errUndecryptable
	}
	return string(plain), nil
}

// Get returns the plaintext of a setting, or "" when it is unset.
func (s *SettingsService) Get(ctx context.Context, key string) (string, error) {
	var setting models.AppSetting
	err := s.db.WithContext(ctx).First(&setting, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	if !setting.IsEncrypted {
		return setting.Value, nil
	}
	return s.decrypt(setting.Value)
}

// Set stores value under key. An empty value deletes the setting.
func (s *SettingsService) Set(ctx context.Context, key, value string, encrypted bool) error {
	db := s.db.WithContext(ctx)
	if value == "" {
		return db.Delete(&models.AppSetting{}, "key = ?", key).Error
	}
	if encrypted {
		sealed, err := s.encrypt(value)
		if err != nil {
			return err
		}
		value = sealed
	}
	setting := models.AppSetting{Key: key, Value: value, IsEncrypted: encrypted}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "is_encrypted", "updated_at"}),
	}).Create(&setting).Error
}

// AISettings reports provider configuration without revealing keys.
func (s *SettingsService) AISettings(ctx context.Context) (*types.AISettingsResponse, error) {
	active, err := s.ActiveProvider(ctx)
	if err != nil {
		return nil, err
	}
	openai, err := s.Get(ctx, SettingOpenAIAPIKey)
	if err != nil {
		return nil, err
	}
	anthropic, err := s.Get(ctx, SettingAnthropicAPIKey)
	if err != nil {
		return nil, err
	}
	gemini, err := s.Get(ctx, SettingGeminiAPIKey)
	if err != nil {
		return nil, err
	}
	return &types.AISettingsResponse{
		ActiveProvider:      active,
		OpenAIConfigured:    openai != "",
		AnthropicConfigured: anthropic != "",
		GeminiConfigured:    gemini != "",
	}, nil
}

// UpdateAISettings applies the fields present in req. New keys are checked
// with the provider first; nothing is saved when any check fails. An empty
// key clears the stored one without a check.
func (s *SettingsService) UpdateAISettings(ctx context.Context, req *types.AISettingsRequest) (*types.AISettingsResponse, error) {
	var active *string
	if req.ActiveProvider != nil {
		p := strings.ToLower(strings.TrimSpace(*req.ActiveProvider))
		if _, ok := providerKeys[p]; p != "" && !ok {
			return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidInput, *req.ActiveProvider)
		}
		active = &p
	}

	updates := []struct {
		provider string
		value    *string
	}{
		{ProviderOpenAI, req.OpenAIAPIKey},
		{ProviderAnthropic, req.AnthropicAPIKey},
		{ProviderGemini, req.GeminiAPIKey},
	}
	keys := make(map[string]string)
	for _, u := range updates {
		if u.value == nil {
			continue
		}
		key := strings.TrimSpace(*u.value)
		if key != "" && s.validator != nil {
			if err := s.validator.CheckKey(ctx, u.provider, key); err != nil {
				log.Printf("[Settings] Rejected %s API key: %v", u.provider, err)
				return nil, fmt.Errorf("%w: invalid %s API key", ErrInvalidInput, strings.ToUpper(u.provider))
			}
		}
		keys[u.provider] = key
	}

	if active != nil {
		if err := s.Set(ctx, SettingActiveProvider, *active, false); err != nil {
			return nil, fmt.Errorf("failed to save active provider: %w", err)
		}
	}
	for _, u := range updates {
		key, ok := keys[u.provider]
		if !ok {
			continue
		}
		if err := s.Set(ctx, providerKeys[u.provider], key, true); err != nil {
			return nil, fmt.Errorf("failed to save %s key: %w", u.provider, err)
		}
	}
	return s.AISettings(ctx)
}

// ActiveProvider returns the selected provider, or "" when none is chosen.
func (s *SettingsService) ActiveProvider(ctx context.Context) (string, error) {
	return s.Get(ctx, SettingActiveProvider)
}

// APIKey returns the stored key for provider, or "" when none is set.
func (s *SettingsService) APIKey(ctx context.Context, provider string) (string, error) {
	if setting, ok := providerKeys[provider]; ok {
		return s.Get(ctx, setting)
	}
	return "", fmt.Errorf("%w: unknown provider %q", ErrInvalidInput, provider)
}
