package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/model"
)

type EmailLogRepository interface {
	Create(ctx context.Context, log *model.EmailLog) error
	ExistsSince(ctx context.Context, userID uuid.UUID, emailType model.EmailType, since time.Time) (bool, error)
}
