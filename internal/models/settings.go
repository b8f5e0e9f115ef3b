package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AppSetting is an admin-managed key/value pair. Secret values are stored
// encrypted and flagged with IsEncrypted.
type AppSetting struct {
	Key         string    `gorm:"size:100;primarykey" json:"key"`
	Value       string    `gorm:"type:text;not null" json:"-"`
	IsEncrypted bool      `gorm:"not null;default:false" json:"is_encrypted"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AIUsageLog records one call to an extraction provider.
type AIUsageLog struct {
	ID           uuid.UUID  `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
	UserID       *uuid.UUID `gorm:"type:varchar(36);index" json:"user_id,omitempty"`
	Provider     string     `gorm:"size:50;not null;index" json:"provider"`
	Model        string     `gorm:"size:100" json:"model"`
	InputType    string     `gorm:"size:20;not null" json:"input_type"`
	InputTokens  *int       `json:"input_tokens,omitempty"`
	OutputTokens *int       `json:"output_tokens,omitempty"`
	Success      bool       `gorm:"not null" json:"success"`
	ErrorKind    *string    `gorm:"size:50" json:"error_kind,omitempty"`
	ErrorMessage *string    `gorm:"type:text" json:"error_message,omitempty"`
	DurationMS   int64      `json:"duration_ms"`
}

func (l *AIUsageLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// AllModels lists every table the application owns, in creation order.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&Tag{},
		&Recipe{},
		&AppSetting{},
		&AIUsageLog{},
	}
}
