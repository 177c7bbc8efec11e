package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/model"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/infrastructure/database"
)

// setupTestDB starts a disposable PostgreSQL container and runs migrations.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database integration test in short mode")
	}

	ctx := context.Background()
	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("selt_test"),
		tcpostgres.WithUsername("selt"),
		tcpostgres.WithPassword("selt"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, database.Migrate(db, zap.NewNop()))
	return db
}

func createUser(t *testing.T, db *gorm.DB, email, customerID string) *model.User {
	t.Helper()
	user := &model.User{Email: email, Name: "Test User", Role: model.UserRoleUser}
	if customerID != "" {
		user.StripeCustomerID = &customerID
	}
	require.NoError(t, db.Create(user).Error)
	return user
}
