package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UserProfile is the learner profile document the client syncs, one per email.
// UserID links it to a local account when one existed at first save.
type UserProfile struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Email     string         `gorm:"uniqueIndex;not null;size:255" json:"email"`
	UserID    *uuid.UUID     `gorm:"type:uuid;index" json:"userId,omitempty"`
	Profile   datatypes.JSON `gorm:"type:jsonb;not null" json:"profile"`
	CreatedAt time.Time      `gorm:"default:now()" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"default:now()" json:"updatedAt"`
}

// TableName specifies the table name for GORM
func (UserProfile) TableName() string {
	return "user_profiles"
}
