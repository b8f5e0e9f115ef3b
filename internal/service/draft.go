package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/larder/backend/internal/extraction"
	"github.com/redis/go-redis/v9"
)

const draftTTL = 24 * time.Hour

// Draft is an extraction result parked for the user to review before saving.
type Draft struct {
	ID        string             `json:"id"`
	UserID    uuid.UUID          `json:"user_id"`
	CreatedAt time.Time          `json:"created_at"`
	Result    *extraction.Result `json:"result"`
}

// DraftStore keeps drafts in redis for 24 hours.
type DraftStore struct {
	redis *redis.Client
}

func NewDraftStore(client *redis.Client) *DraftStore {
	return &DraftStore{redis: client}
}

func draftKey(id string) string {
	return fmt.Sprintf("recipe:draft:%s", id)
}

// Save stores result and returns the new draft.
func (s *DraftStore) Save(ctx context.Context, userID uuid.UUID, result *extraction.Result) (*Draft, error) {
	draft := &Draft{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
		Result:    result,
	}
	data, err := json.Marshal(draft)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal draft: %w", err)
	}
	if err := s.redis.Set(ctx, draftKey(draft.ID), data, draftTTL).Err(); err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}
	return draft, nil
}

// Get returns a draft owned by userID.
func (s *DraftStore) Get(ctx context.Context, userID uuid.UUID, id string) (*Draft, error) {
	data, err := s.redis.Get(ctx, draftKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	var draft Draft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft: %w", err)
	}
	if draft.UserID != userID {
		return nil, ErrNotFound
	}
	return &draft, nil
}

// Delete discards a draft owned by userID.
func (s *DraftStore) Delete(ctx context.Context, userID uuid.UUID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.redis.Del(ctx, draftKey(id)).Err()
}
