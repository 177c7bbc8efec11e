package repository

import (
	"context"

	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/model"
)

// UserProfileRepository stores one profile document per email.
type UserProfileRepository interface {
	// GetByEmail returns nil, nil when no profile was saved
	GetByEmail(ctx context.Context, email string) (*model.UserProfile, error)
	// Upsert replaces the stored document; UserID is only set when the row is created
	Upsert(ctx context.Context, profile *model.UserProfile) error
}

type TestResultRepository interface {
	Create(ctx context.Context, result *model.TestResult) error
	// ListByEmail returns the newest results first
	ListByEmail(ctx context.Context, email string, limit int) ([]*model.TestResult, error)
}
