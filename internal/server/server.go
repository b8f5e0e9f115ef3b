package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/pageza/larder/backend/config"
	"github.com/pageza/larder/backend/internal/ai"
	"github.com/pageza/larder/backend/internal/api"
	"github.com/pageza/larder/backend/internal/backup"
	"github.com/pageza/larder/backend/internal/middleware"
	"github.com/pageza/larder/backend/internal/router"
	"github.com/pageza/larder/backend/internal/scraper"
	"github.com/pageza/larder/backend/internal/service"
	"github.com/pageza/larder/backend/internal/storage"
)

// Server represents the HTTP server
type Server struct {
	cfg    *config.Config
	router *gin.Engine
	http   *http.Server
	db     *gorm.DB
	redis  *redis.Client
}

// New wires every service onto db. redisClient may be nil, which disables
// drafts and rate limiting; snapshots need a configured bucket.
func New(ctx context.Context, cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	providerCfg := ai.FactoryConfig{Timeout: cfg.AITimeout}
	settings := service.NewSettingsService(db, cfg.JWTSecret).WithKeyValidator(ai.NewKeyChecker(providerCfg))
	usage := service.NewAIUsageService(db)
	catalog := service.NewCatalogStore(db)
	exporter := backup.NewExporter(catalog)
	importer := backup.NewImporter(catalog)

	providers := ai.NewFactory(settings, providerCfg)

	deps := api.Dependencies{
		DB:         db,
		Auth:       service.NewAuthService(db, cfg.JWTSecret, cfg.JWTExpiry).WithRefreshTTL(cfg.RefreshExpiry),
		Users:      service.NewUserService(db),
		Recipes:    service.NewRecipeService(db),
		Categories: service.NewCategoryService(db),
		Tags:       service.NewTagService(db),
		Settings:   settings,
		Usage:      usage,
		Exporter:   exporter,
		Importer:   importer,
	}

	var drafts *service.DraftStore
	if redisClient != nil {
		drafts = service.NewDraftStore(redisClient)
		if cfg.ImportsPerHour > 0 {
			deps.ImportLimiter = middleware.NewImportRateLimiter(redisClient, cfg.ImportsPerHour)
		}
		if cfg.LoginsPerMinute > 0 {
			deps.LoginLimiter = middleware.NewLoginRateLimiter(redisClient, cfg.LoginsPerMinute)
		}
	} else {
		log.Printf("[Server] Redis not configured; drafts and rate limits are disabled")
	}
	deps.Extraction = service.NewExtractionService(providers, scraper.New(), usage, drafts)

	if cfg.SnapshotsEnabled() {
		s3cfg, err := config.NewS3Config(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to configure snapshot storage: %w", err)
		}
		archive := storage.NewS3Archive(s3cfg)
		deps.Snapshots = backup.NewSnapshotService(archive, exporter, importer)
		deps.Downloader = archive
		log.Printf("[Server] Snapshots stored in bucket %s", cfg.S3Bucket)
	}

	return &Server{
		cfg:    cfg,
		router: router.SetupRouter(cfg.AllowedOrigins, deps),
		db:     db,
		redis:  redisClient,
	}, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:              net.JoinHostPort(s.cfg.ServerHost, s.cfg.ServerPort),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("[Server] Listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server and closes redis.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var err error
	if s.http != nil {
		err = s.http.Shutdown(ctx)
	}
	if s.redis != nil {
		if cerr := s.redis.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
