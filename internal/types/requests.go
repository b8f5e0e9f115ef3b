package types

import (
	"github.com/google/uuid"
	"github.com/pageza/larder/backend/internal/models"
)

// RegisterRequest is the body for POST /auth/register
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest is the body for POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned by register, login and refresh
type AuthResponse struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user"`
}

// RefreshRequest is the body for POST /auth/refresh
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RecipeRequest is the body for creating or updating a recipe
type RecipeRequest struct {
	Title            string               `json:"title" binding:"required"`
	Description      *string              `json:"description"`
	Ingredients      []models.Ingredient  `json:"ingredients"`
	Instructions     []models.Instruction `json:"instructions"`
	PrepTimeMinutes  *int                 `json:"prep_time_minutes"`
	CookTimeMinutes  *int                 `json:"cook_time_minutes"`
	Servings         *int                 `json:"servings"`
	Notes            *string              `json:"notes"`
	Complexity       *string              `json:"complexity"`
	SpecialEquipment []string             `json:"special_equipment"`
	SourceAuthor     *string              `json:"source_author"`
	SourceURL        *string              `json:"source_url"`
	CategoryID       *uuid.UUID           `json:"category_id"`
	TagIDs           []uuid.UUID          `json:"tag_ids"`
}

// RecipeFilter narrows a recipe listing
type RecipeFilter struct {
	CategoryID *uuid.UUID
	TagID      *uuid.UUID
	UserID     *uuid.UUID
	Search     string
	Skip       int
	Limit      int
}

// CategoryRequest is the body for creating or updating a category
type CategoryRequest struct {
	Name        string  `json:"name" binding:"required,max=100"`
	Description *string `json:"description"`
}

// TagRequest is the body for creating a tag
type TagRequest struct {
	Name string `json:"name" binding:"required,max=50"`
}

// ImportURLRequest is the body for POST /import/url
type ImportURLRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// ImportTextRequest is the body for POST /import/text
type ImportTextRequest struct {
	Text string `json:"text" binding:"required"`
}

// CreateUserRequest is the body for POST /users
type CreateUserRequest struct {
	Username string      `json:"username" binding:"required,min=3,max=50"`
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password" binding:"required,min=8"`
	Role     models.Role `json:"role"`
}

// UpdateUserRequest lets an admin change another user's role
type UpdateUserRequest struct {
	Role models.Role `json:"role" binding:"required"`
}

// AISettingsRequest updates provider configuration
type AISettingsRequest struct {
	ActiveProvider  *string `json:"active_provider"`
	OpenAIAPIKey    *string `json:"openai_api_key"`
	AnthropicAPIKey *string `json:"anthropic_api_key"`
	GeminiAPIKey    *string `json:"gemini_api_key"`
}

// AISettingsResponse never echoes stored keys
type AISettingsResponse struct {
	ActiveProvider      string `json:"active_provider"`
	OpenAIConfigured    bool   `json:"openai_configured"`
	AnthropicConfigured bool   `json:"anthropic_configured"`
	GeminiConfigured    bool   `json:"gemini_configured"`
}
