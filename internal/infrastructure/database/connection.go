package database

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vihaglobalsystems-prog/selt-backend/internal/config"
	"github.com/vihaglobalsystems-prog/selt-backend/pkg/logger"
)

const defaultConnectTimeout = 30 * time.Second

// NewConnection opens the database, retrying with exponential backoff until
// cfg.ConnectTimeout elapses or ctx is done.
func NewConnection(ctx context.Context, cfg *config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	// Create GORM logger adapter
	gormLog := logger.NewGormLogger(log, gormlogger.Warn, 200*time.Millisecond, true)

	var db *gorm.DB
	operation := func() error {
		conn, err := open(ctx, cfg, gormLog)
		if err != nil {
			return err
		}
		db = conn
		return nil
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 500 * time.Millisecond
	expBackoff.MaxInterval = 5 * time.Second
	expBackoff.MaxElapsedTime = cfg.ConnectTimeout
	if expBackoff.MaxElapsedTime <= 0 {
		expBackoff.MaxElapsedTime = defaultConnectTimeout
	}

	notify := func(err error, wait time.Duration) {
		log.Warn("Database not ready, retrying",
			zap.String("host", cfg.Host),
			zap.Duration("retry_in", wait),
			zap.Error(err))
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(expBackoff, ctx), notify); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info("Database connection established",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Name),
	)

	return db, nil
}

func open(ctx context.Context, cfg *config.DatabaseConfig, gormLog gormlogger.Interface) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:                                   gormLog,
		DisableForeignKeyConstraintWhenMigrating: true,
		DisableAutomaticPing:                     true,
	})
	if err != nil {
		return nil, err
	}

	// Get underlying SQL database
	sqlDB, err := db.DB()
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to get underlying SQL database: %w", err))
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Ping runs a trivial query to check that the database answers
func Ping(ctx context.Context, db *gorm.DB) error {
	var one int
	return db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error
}

// Close closes the database connection
func Close(db *gorm.DB, log *zap.Logger) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL database: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}

	log.Info("Database connection closed")
	return nil
}
