package testhelpers

import (
	"testing"

	"github.com/pageza/larder/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plaintext password of every user made by CreateUser.
const TestPassword = "correct-horse-battery"

// CreateUser inserts a user with the given role.
func CreateUser(t *testing.T, db *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

// CreateRecipe inserts a minimal valid recipe owned by owner.
func CreateRecipe(t *testing.T, db *gorm.DB, owner *models.User, title string, opts ...func(*models.Recipe)) *models.Recipe {
	t.Helper()
	recipe := &models.Recipe{
		Title:        title,
		Ingredients:  models.IngredientList{{Name: "salt"}},
		Instructions: models.InstructionList{{StepNumber: 1, Text: "Season"}},
		UserID:       owner.ID,
	}
	for _, opt := range opts {
		opt(recipe)
	}
	if err := db.Omit("Tags.*").Create(recipe).Error; err != nil {
		t.Fatalf("failed to create recipe %s: %v", title, err)
	}
	return recipe
}
