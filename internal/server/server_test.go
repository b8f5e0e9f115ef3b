package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/larder/backend/config"
	"github.com/pageza/larder/backend/internal/models"
	"github.com/pageza/larder/backend/internal/service"
	"github.com/pageza/larder/backend/internal/testhelpers"
)

func testConfig() *config.Config {
	return &config.Config{
		ServerHost:     "localhost",
		ServerPort:     "8080",
		AllowedOrigins: []string{"http://localhost:5173"},
		JWTSecret:      "test-secret",
		JWTExpiry:      time.Hour,
		AITimeout:      time.Second,
		ImportsPerHour: 30,
	}
}

func TestNew(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testhelpers.NewSQLiteDB(t)

	srv, err := New(context.Background(), testConfig(), db, nil)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewWithoutOptionalServices(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testhelpers.NewSQLiteDB(t)
	cfg := testConfig()

	srv, err := New(context.Background(), cfg, db, nil)
	require.NoError(t, err)

	admin := testhelpers.CreateUser(t, db, "admin", models.RoleAdmin)
	token, err := service.NewAuthService(db, cfg.JWTSecret, cfg.JWTExpiry).GenerateToken(admin)
	require.NoError(t, err)

	get := func(path string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		srv.Handler().ServeHTTP(w, req)
		return w.Code
	}
	assert.Equal(t, http.StatusServiceUnavailable, get("/api/v1/backup/snapshots"))
	assert.Equal(t, http.StatusNotFound, get("/api/v1/import/drafts/abc"))
}

func TestShutdownBeforeStart(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	srv, err := New(context.Background(), testConfig(), db, nil)
	require.NoError(t, err)
	assert.NoError(t, srv.Shutdown(context.Background()))
}
