package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/model"
)

// UserRepository lookups return nil, nil when no row matches.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByStripeCustomerID(ctx context.Context, customerID string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	SetStripeCustomerID(ctx context.Context, id uuid.UUID, customerID string) error

	// Search matches email or name case-insensitively; an empty search lists all users.
	Search(ctx context.Context, search string, offset, limit int) ([]*model.User, int64, error)
	Count(ctx context.Context) (int64, error)
	ListRecent(ctx context.Context, limit int) ([]*model.User, error)
}
