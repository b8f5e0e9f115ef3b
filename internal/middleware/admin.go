package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pageza/larder/backend/internal/models"
)

// RequireAdmin lets only admins through. The role is read from the database
// rather than the token, so a demotion takes effect immediately.
func RequireAdmin(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		var user models.User
		if err := db.WithContext(c.Request.Context()).Select("id", "role").First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "account no longer exists"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify user role"})
			}
			c.Abort()
			return
		}

		if !user.IsAdmin() {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			c.Abort()
			return
		}

		c.Set(ContextRole, user.Role)
		c.Next()
	}
}
