package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pageza/larder/backend/internal/models"
	"github.com/pageza/larder/backend/internal/types"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const defaultRefreshTTL = 7 * 24 * time.Hour

type AuthService struct {
	db         *gorm.DB
	jwtSecret  string
	tokenTTL   time.Duration
	refreshTTL time.Duration
}

func NewAuthService(db *gorm.DB, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		db:         db,
		jwtSecret:  jwtSecret,
		tokenTTL:   tokenTTL,
		refreshTTL: defaultRefreshTTL,
	}
}

// WithRefreshTTL sets how long refresh tokens stay valid.
func (s *AuthService) WithRefreshTTL(ttl time.Duration) *AuthService {
	if ttl > 0 {
		s.refreshTTL = ttl
	}
	return s
}

// Register creates an account. The first account ever created becomes admin.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	user, err := newUser(username, email, password, models.RoleStandard)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var total int64
		if err := tx.Model(&models.User{}).Count(&total).Error; err != nil {
			return err
		}
		if total == 0 {
			user.Role = models.RoleAdmin
		}
		return insertUser(tx, user)
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// GenerateToken signs an access token for user.
func (s *AuthService) GenerateToken(user *models.User) (string, error) {
	return s.sign(&types.TokenClaims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
		Type:     types.TokenTypeAccess,
	}, s.tokenTTL)
}

// GenerateRefreshToken signs a long-lived token that can only be exchanged
// for new tokens. It carries the user's token version, so Logout revokes it.
func (s *AuthService) GenerateRefreshToken(user *models.User) (string, error) {
	return s.sign(&types.TokenClaims{
		UserID:  user.ID,
		Type:    types.TokenTypeRefresh,
		Version: user.TokenVersion,
	}, s.refreshTTL)
}

func (s *AuthService) sign(claims *types.TokenClaims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.UserID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// ValidateToken accepts access tokens only.
func (s *AuthService) ValidateToken(tokenString string) (*types.TokenClaims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != types.TokenTypeAccess {
		return nil, errors.New("not an access token")
	}
	return claims, nil
}

// Refresh returns the user behind a refresh token that is still current.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.User, error) {
	claims, err := s.parse(refreshToken)
	if err != nil || claims.Type != types.TokenTypeRefresh {
		return nil, ErrInvalidToken
	}
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.TokenVersion != claims.Version {
		return nil, ErrInvalidToken
	}
	return &user, nil
}

// Logout revokes every refresh token issued to the user. Access tokens run
// until they expire.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("token_version", gorm.Expr("token_version + 1"))
	if result.Error != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *AuthService) parse(tokenString string) (*types.TokenClaims, error) {
	claims := &types.TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == uuid.Nil {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}
