package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vihaglobalsystems-prog/selt-backend/internal/adapter/repository"
	domainRepo "github.com/vihaglobalsystems-prog/selt-backend/internal/domain/repository"
)

// NewRepositories creates the gorm-backed repositories on db
func NewRepositories(db *gorm.DB, logger *zap.Logger) *domainRepo.Repositories {
	return &domainRepo.Repositories{
		User:         repository.NewUserRepository(db, logger),
		Subscription: repository.NewSubscriptionRepository(db, logger),
		Payment:      repository.NewPaymentRepository(db, logger),
		Refund:       repository.NewRefundRepository(db, logger),
		EmailLog:     repository.NewEmailLogRepository(db, logger),
		Webhook:      repository.NewWebhookRepository(db, logger),
		Profile:      repository.NewUserProfileRepository(db, logger),
		TestResult:   repository.NewTestResultRepository(db, logger),
	}
}
