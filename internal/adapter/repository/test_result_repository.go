package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/model"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/repository"
)

type testResultRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewTestResultRepository creates a new test result repository
func NewTestResultRepository(db *gorm.DB, logger *zap.Logger) repository.TestResultRepository {
	return &testResultRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a test result
func (r *testResultRepository) Create(ctx context.Context, result *model.TestResult) error {
	if err := r.db.WithContext(ctx).Create(result).Error; err != nil {
		r.logger.Error("Failed to create test result",
			zap.String("email", result.Email),
			zap.String("test_id", result.TestID),
			zap.Error(err))
		return fmt.Errorf("failed to create test result: %w", err)
	}
	return nil
}

// ListByEmail returns up to limit results for email, newest first
func (r *testResultRepository) ListByEmail(ctx context.Context, email string, limit int) ([]*model.TestResult, error) {
	var results []*model.TestResult

	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		Order("timestamp DESC").
		Limit(limit).
		Find(&results).Error
	if err != nil {
		r.logger.Error("Failed to list test results",
			zap.String("email", email),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list test results: %w", err)
	}
	return results, nil
}
