package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/pageza/larder/backend/internal/service"
	"github.com/stretchr/testify/mock"
)

// MockExtractionService is a mock implementation of the extraction service
type MockExtractionService struct {
	mock.Mock
}

func (m *MockExtractionService) FromImage(ctx context.Context, userID uuid.UUID, data []byte, mimeType string) (*service.Extraction, error) {
	args := m.Called(ctx, userID, data, mimeType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Extraction), args.Error(1)
}

func (m *MockExtractionService) FromURL(ctx context.Context, userID uuid.UUID, url string) (*service.Extraction, error) {
	args := m.Called(ctx, userID, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Extraction), args.Error(1)
}

func (m *MockExtractionService) FromText(ctx context.Context, userID uuid.UUID, text string) (*service.Extraction, error) {
	args := m.Called(ctx, userID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Extraction), args.Error(1)
}

func (m *MockExtractionService) Draft(ctx context.Context, userID uuid.UUID, id string) (*service.Draft, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Draft), args.Error(1)
}

func (m *MockExtractionService) DiscardDraft(ctx context.Context, userID uuid.UUID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

var _ service.IExtractionService = (*MockExtractionService)(nil)
