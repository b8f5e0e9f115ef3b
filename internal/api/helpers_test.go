package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/larder/backend/internal/backup"
	"github.com/pageza/larder/backend/internal/middleware"
	"github.com/pageza/larder/backend/internal/mocks"
	"github.com/pageza/larder/backend/internal/models"
	"github.com/pageza/larder/backend/internal/service"
	"github.com/pageza/larder/backend/internal/storage"
	"github.com/pageza/larder/backend/internal/testhelpers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router     *gin.Engine
	db         *gorm.DB
	auth       *service.AuthService
	extraction *mocks.MockExtractionService
	archive    *memArchive

	admin      *models.User
	cook       *models.User
	adminToken string
	cookToken  string
}

type envOption func(*Dependencies, *testEnv)

// withSnapshots backs the snapshot routes with an in-memory archive.
func withSnapshots() envOption {
	return func(deps *Dependencies, env *testEnv) {
		env.archive = &memArchive{objects: map[string][]byte{}}
		deps.Snapshots = backup.NewSnapshotService(env.archive, deps.Exporter, deps.Importer)
	}
}

// withLoginLimiter counts login attempts in client.
func withLoginLimiter(client *redis.Client, perMinute int) envOption {
	return func(deps *Dependencies, _ *testEnv) {
		deps.LoginLimiter = middleware.NewLoginRateLimiter(client, perMinute)
	}
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	db := testhelpers.NewSQLiteDB(t)
	env := &testEnv{
		db:         db,
		auth:       service.NewAuthService(db, "test-secret", time.Hour),
		extraction: &mocks.MockExtractionService{},
	}

	catalog := service.NewCatalogStore(db)
	deps := Dependencies{
		DB:         db,
		Auth:       env.auth,
		Users:      service.NewUserService(db),
		Recipes:    service.NewRecipeService(db),
		Categories: service.NewCategoryService(db),
		Tags:       service.NewTagService(db),
		Extraction: env.extraction,
		Settings:   service.NewSettingsService(db, "test-secret"),
		Usage:      service.NewAIUsageService(db),
		Exporter:   backup.NewExporter(catalog),
		Importer:   backup.NewImporter(catalog),
	}
	for _, opt := range opts {
		opt(&deps, env)
	}

	env.router = gin.New()
	SetupAPI(env.router, deps)

	env.admin = testhelpers.CreateUser(t, db, "admin", models.RoleAdmin)
	env.cook = testhelpers.CreateUser(t, db, "cook", models.RoleStandard)
	env.adminToken = env.token(t, env.admin)
	env.cookToken = env.token(t, env.cook)
	return env
}

func (e *testEnv) token(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := e.auth.GenerateToken(user)
	require.NoError(t, err)
	return token
}

// do sends a JSON request. body may be nil.
func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.send(req, token)
}

// upload sends a multipart form with one file and optional repeated fields.
func (e *testEnv) upload(path, token, filename, contentType string, content []byte, fields map[string][]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="file"; filename="` + filename + `"`}
	if contentType != "" {
		header["Content-Type"] = []string{contentType}
	}
	part, _ := w.CreatePart(header)
	_, _ = part.Write(content)
	for key, values := range fields {
		for _, v := range values {
			_ = w.WriteField(key, v)
		}
	}
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return e.send(req, token)
}

func (e *testEnv) send(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

// memArchive is an in-memory backup.Archive.
type memArchive struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (a *memArchive) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.objects[key] = data
	return nil
}

func (a *memArchive) Get(_ context.Context, key string) (io.ReadCloser, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	data, ok := a.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (a *memArchive) List(_ context.Context, prefix string) ([]backup.ObjectInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []backup.ObjectInfo
	for key, data := range a.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, backup.ObjectInfo{Key: key, Size: int64(len(data)), LastModified: time.Now()})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
