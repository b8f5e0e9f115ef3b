package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pageza/larder/backend/internal/models"
	"github.com/pageza/larder/backend/internal/types"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserService is the admin view of accounts.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("created_at").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// Create adds an account on an admin's behalf.
func (s *UserService) Create(ctx context.Context, req *types.CreateUserRequest) (*models.User, error) {
	role := models.RoleStandard
	if req.Role != "" {
		role = req.Role
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, req.Role)
	}
	user, err := newUser(req.Username, req.Email, req.Password, role)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return insertUser(tx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func newUser(username, email, password string, role models.Role) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return &models.User{
		Username:     strings.TrimSpace(username),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hashed),
		Role:         role,
	}, nil
}

// insertUser creates user unless the username or email is taken.
func insertUser(tx *gorm.DB, user *models.User) error {
	var taken int64
	if err := tx.Model(&models.User{}).Where("email = ? OR username = ?", user.Email, user.Username).Count(&taken).Error; err != nil {
		return err
	}
	if taken > 0 {
		return ErrConflict
	}
	if err := tx.Create(user).Error; err != nil {
		return conflictOr(translateError("create user", err))
	}
	return nil
}

// GetByUsername looks a user up by username.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// FirstAdmin returns the earliest admin account.
func (s *UserService) FirstAdmin(ctx context.Context) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("role = ?", models.RoleAdmin).Order("created_at").First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// UpdateRole changes a user's role. The last admin cannot be demoted.
func (s *UserService) UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		if user.Role == models.RoleAdmin && role != models.RoleAdmin {
			if err := ensureAnotherAdmin(tx, user.ID); err != nil {
				return err
			}
		}
		user.Role = role
		return tx.Model(&user).Update("role", role).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Delete removes a user along with the recipes they own. Admins cannot
// delete themselves and the last admin cannot be deleted.
func (s *UserService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if actor.UserID == id {
		return fmt.Errorf("%w: cannot delete your own account", ErrForbidden)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		if user.IsAdmin() {
			if err := ensureAnotherAdmin(tx, user.ID); err != nil {
				return err
			}
		}
		owned := tx.Model(&models.Recipe{}).Select("id").Where("user_id = ?", id)
		if err := tx.Exec("DELETE FROM recipe_tags WHERE recipe_id IN (?)", owned).Error; err != nil {
			return fmt.Errorf("failed to unlink recipe tags: %w", err)
		}
		if err := tx.Exec("DELETE FROM recipes WHERE user_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete recipes: %w", err)
		}
		if err := tx.Exec("UPDATE ai_usage_logs SET user_id = NULL WHERE user_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to detach usage logs: %w", err)
		}
		return tx.Delete(&user).Error
	})
}

func ensureAnotherAdmin(tx *gorm.DB, except uuid.UUID) error {
	var admins int64
	if err := tx.Model(&models.User{}).Where("role = ? AND id <> ?", models.RoleAdmin, except).Count(&admins).Error; err != nil {
		return err
	}
	if admins == 0 {
		return fmt.Errorf("%w: at least one admin must remain", ErrForbidden)
	}
	return nil
}
