package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/larder/backend/internal/middleware"
	"github.com/pageza/larder/backend/internal/models"
	"github.com/pageza/larder/backend/internal/service"
	"github.com/pageza/larder/backend/internal/types"
)

type AuthHandler struct {
	authService service.IAuthService
	limiter     *middleware.RateLimiter
}

// NewAuthHandler builds the auth routes. limiter may be nil, which leaves
// login and registration unlimited.
func NewAuthHandler(authService service.IAuthService, limiter *middleware.RateLimiter) *AuthHandler {
	return &AuthHandler{authService: authService, limiter: limiter}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	var credentials []gin.HandlerFunc
	if h.limiter != nil {
		credentials = append(credentials, h.limiter.RateLimitMiddleware())
	}
	requireAuth := middleware.AuthMiddleware(h.authService)

	auth := router.Group("/auth")
	{
		auth.POST("/register", append(credentials, h.Register)...)
		auth.POST("/login", append(credentials, h.Login)...)
		auth.POST("/refresh", h.Refresh)
		auth.GET("/me", requireAuth, h.Me)
		auth.POST("/logout", requireAuth, h.Logout)
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondWithToken(c, http.StatusCreated, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondWithToken(c, http.StatusOK, user)
}

// Me returns the account behind the token.
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user)
}

// Refresh exchanges a refresh token for a new pair. The new access token
// carries the account's current role.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req types.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	user, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondWithToken(c, http.StatusOK, user)
}

// Logout revokes the caller's refresh tokens.
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	if err := h.authService.Logout(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) currentUser(c *gin.Context) (*models.User, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return nil, false
	}
	user, err := h.authService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return user, true
}

func (h *AuthHandler) respondWithToken(c *gin.Context, status int, user *models.User) {
	token, err := h.authService.GenerateToken(user)
	if err != nil {
		respondError(c, err)
		return
	}
	refresh, err := h.authService.GenerateRefreshToken(user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, types.AuthResponse{Token: token, RefreshToken: refresh, User: user})
}
