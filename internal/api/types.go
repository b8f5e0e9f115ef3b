package api

import "github.com/pageza/larder/backend/internal/models"

// RecipeListResponse is one page of recipes.
type RecipeListResponse struct {
	Recipes []models.Recipe `json:"recipes"`
	Total   int64           `json:"total"`
	Skip    int             `json:"skip"`
	Limit   int             `json:"limit"`
}

// UsageLogResponse is one page of AI usage entries.
type UsageLogResponse struct {
	Logs     []models.AIUsageLog `json:"logs"`
	Total    int64               `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
}
