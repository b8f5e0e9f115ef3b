package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pageza/larder/backend/internal/models"
	"github.com/pageza/larder/backend/internal/types"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	GenerateToken(user *models.User) (string, error)
	GenerateRefreshToken(user *models.User) (string, error)
	ValidateToken(token string) (*types.TokenClaims, error)
	Refresh(ctx context.Context, refreshToken string) (*models.User, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	CreateRecipe(ctx context.Context, actor Actor, req *types.RecipeRequest) (*models.Recipe, error)
	GetRecipe(ctx context.Context, id uuid.UUID) (*models.Recipe, error)
	UpdateRecipe(ctx context.Context, actor Actor, id uuid.UUID, req *types.RecipeRequest) (*models.Recipe, error)
	DeleteRecipe(ctx context.Context, actor Actor, id uuid.UUID) error
	ListRecipes(ctx context.Context, filter types.RecipeFilter) ([]models.Recipe, int64, error)
}

// IExtractionService defines the interface for recipe extraction
type IExtractionService interface {
	FromImage(ctx context.Context, userID uuid.UUID, data []byte, mimeType string) (*Extraction, error)
	FromURL(ctx context.Context, userID uuid.UUID, url string) (*Extraction, error)
	FromText(ctx context.Context, userID uuid.UUID, text string) (*Extraction, error)
	Draft(ctx context.Context, userID uuid.UUID, id string) (*Draft, error)
	DiscardDraft(ctx context.Context, userID uuid.UUID, id string) error
}

var (
	_ IAuthService       = (*AuthService)(nil)
	_ IRecipeService     = (*RecipeService)(nil)
	_ IExtractionService = (*ExtractionService)(nil)
)
