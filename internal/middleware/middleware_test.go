package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/larder/backend/internal/models"
	"github.com/pageza/larder/backend/internal/testhelpers"
	"github.com/pageza/larder/backend/internal/types"
)

type stubValidator struct {
	claims *types.TokenClaims
}

func (v stubValidator) ValidateToken(token string) (*types.TokenClaims, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return v.claims, nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	id := uuid.New()
	r := gin.New()
	r.GET("/", AuthMiddleware(stubValidator{claims: &types.TokenClaims{UserID: id, Username: "kim", Role: "admin"}}), func(c *gin.Context) {
		got, ok := UserID(c)
		assert.True(t, ok)
		assert.Equal(t, id, got)
		assert.Equal(t, models.RoleAdmin, Role(c))
		c.Status(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusUnauthorized, serve(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Token good").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Bearer bad").Code)
	assert.Equal(t, http.StatusNoContent, serve(r, "Bearer good").Code)
}

func TestRequireAdminReadsCurrentRole(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	admin := testhelpers.CreateUser(t, db, "admin", models.RoleAdmin)
	member := testhelpers.CreateUser(t, db, "member", models.RoleStandard)

	build := func(user *models.User) *gin.Engine {
		r := gin.New()
		// the token claims admin for everyone; only the database decides
		claims := &types.TokenClaims{UserID: user.ID, Role: "admin"}
		r.GET("/", AuthMiddleware(stubValidator{claims: claims}), RequireAdmin(db), func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})
		return r
	}

	assert.Equal(t, http.StatusNoContent, serve(build(admin), "Bearer good").Code)
	assert.Equal(t, http.StatusForbidden, serve(build(member), "Bearer good").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(build(&models.User{ID: uuid.New()}), "Bearer good").Code)
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	r.GET("/error", func(c *gin.Context) {
		c.Status(http.StatusBadGateway)
		_ = c.Error(errors.New("upstream went away"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/error", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"error":"upstream went away"}`, w.Body.String())
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:5173"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRateLimiterFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	limiter := NewImportRateLimiter(client, 1)

	id := uuid.New()
	r := gin.New()
	r.GET("/", AuthMiddleware(stubValidator{claims: &types.TokenClaims{UserID: id}}), limiter.RateLimitMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := serve(r, "Bearer good")
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "rate limit check failed", w.Header().Get("X-RateLimit-Error"))
}

func TestLoginRateLimiterKeysByClientIP(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	limiter := NewLoginRateLimiter(client, 5)

	r := gin.New()
	r.GET("/", limiter.RateLimitMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	// no token needed; redis being down lets the request through
	w := serve(r, "")
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "rate limit check failed", w.Header().Get("X-RateLimit-Error"))
}

func TestRateLimiterCountsAgainstRedis(t *testing.T) {
	client := testhelpers.SetupRedis(t)
	limiter := NewLoginRateLimiter(client, 2)
	fixed := time.Date(2026, 3, 1, 12, 0, 30, 0, time.UTC)
	limiter.now = func() time.Time { return fixed }

	r := gin.New()
	r.POST("/login", limiter.RateLimitMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	attempt := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = ip + ":40000"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, attempt("10.0.0.1").Code)
	w := attempt("10.0.0.1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusTooManyRequests, attempt("10.0.0.1").Code)

	// other clients have their own window
	assert.Equal(t, http.StatusOK, attempt("10.0.0.2").Code)
}
