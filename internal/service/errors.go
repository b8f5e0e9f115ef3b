package service

import (
	"errors"
	"strings"

	"github.com/pageza/larder/backend/internal/backup"
	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
)

// translateError maps driver constraint failures onto backup.ConstraintError
// so callers can tell them apart from infrastructure errors.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrForeignKeyViolated) ||
		errors.Is(err, gorm.ErrCheckConstraintViolated) || looksLikeConstraint(err) {
		return &backup.ConstraintError{Op: op, Err: err}
	}
	return err
}

func looksLikeConstraint(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"unique constraint", "duplicate key", "foreign key constraint", "violates", "constraint failed"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
