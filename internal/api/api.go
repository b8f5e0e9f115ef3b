package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pageza/larder/backend/internal/backup"
	"github.com/pageza/larder/backend/internal/middleware"
	"github.com/pageza/larder/backend/internal/service"
)

// Dependencies are the services the API is built from. Snapshots, Downloader
// and the limiters are optional.
type Dependencies struct {
	DB            *gorm.DB
	Auth          service.IAuthService
	Users         *service.UserService
	Recipes       service.IRecipeService
	Categories    *service.CategoryService
	Tags          *service.TagService
	Extraction    service.IExtractionService
	Settings      *service.SettingsService
	Usage         *service.AIUsageService
	Exporter      *backup.Exporter
	Importer      *backup.Importer
	Snapshots     *backup.SnapshotService
	Downloader    Downloader
	ImportLimiter *middleware.RateLimiter
	LoginLimiter  *middleware.RateLimiter
}

// SetupAPI mounts every route under /api/v1.
func SetupAPI(router *gin.Engine, deps Dependencies) {
	router.GET("/health", HealthCheck(deps.DB))

	v1 := router.Group("/api/v1")
	v1.GET("/health", HealthCheck(deps.DB))

	NewAuthHandler(deps.Auth, deps.LoginLimiter).RegisterRoutes(v1)

	authed := v1.Group("")
	authed.Use(middleware.AuthMiddleware(deps.Auth))

	admin := authed.Group("")
	admin.Use(middleware.RequireAdmin(deps.DB))

	NewRecipeHandler(deps.Recipes).RegisterRoutes(authed)
	NewCategoryHandler(deps.Categories, deps.Tags).RegisterRoutes(authed, admin)
	NewImportHandler(deps.Extraction, deps.ImportLimiter).RegisterRoutes(authed)

	NewUserHandler(deps.Users).RegisterRoutes(admin)
	NewBackupHandler(deps.Exporter, deps.Importer, deps.Snapshots, deps.Downloader).RegisterRoutes(admin)
	NewSettingsHandler(deps.Settings, deps.Usage).RegisterRoutes(admin)
}
