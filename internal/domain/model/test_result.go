package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// TestResult is one completed practice test. Fields the client sends beyond
// the scored ones are kept verbatim in Data.
type TestResult struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Email      string         `gorm:"not null;size:255;index:idx_test_results_email_timestamp,priority:1" json:"email"`
	UserID     *uuid.UUID     `gorm:"type:uuid;index" json:"userId,omitempty"`
	TestID     string         `gorm:"not null;size:100" json:"testId"`
	Level      *string        `gorm:"size:50" json:"level"`
	Section    *string        `gorm:"size:100" json:"section"`
	Score      *float64       `json:"score"`
	Total      *float64       `json:"total"`
	Percentage *float64       `json:"percentage"`
	Timestamp  time.Time      `gorm:"not null;index:idx_test_results_email_timestamp,priority:2,sort:desc" json:"timestamp"`
	Data       datatypes.JSON `gorm:"type:jsonb" json:"data,omitempty"`
	CreatedAt  time.Time      `gorm:"default:now()" json:"createdAt"`
}

// TableName specifies the table name for GORM
func (TestResult) TableName() string {
	return "test_results"
}
