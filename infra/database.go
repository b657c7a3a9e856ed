package infra

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/paygate/infra/migrations"
	"github.com/amirasaad/paygate/pkg/config"
	"github.com/amirasaad/paygate/pkg/domain"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDBConnection opens the Postgres pool and, when configured, applies
// pending migrations.
func NewDBConnection(cnf *config.DB, appEnv string, log *slog.Logger) (*gorm.DB, error) {
	if cnf == nil || cnf.Url == "" {
		return nil, &domain.ConfigError{Field: "DATABASE_URL", Reason: "not set"}
	}

	logMode := logger.Silent
	if appEnv == "development" {
		logMode = logger.Info
	}

	connection, err := gorm.Open(postgres.Open(cnf.Url), &gorm.Config{
		Logger:                 logger.Default.LogMode(logMode),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := connection.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)

	if cnf.MigrateOnBoot {
		if err := migrations.Up(sqlDB, log); err != nil {
			return nil, err
		}
	}
	return connection, nil
}
