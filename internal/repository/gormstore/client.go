package gormstore

import (
	"github.com/loopcart/loopcart/internal/config"
	"github.com/loopcart/loopcart/internal/domain/payment"
	"github.com/loopcart/loopcart/internal/domain/plan"
	"github.com/loopcart/loopcart/internal/domain/subscription"
	ierr "github.com/loopcart/loopcart/internal/errors"
	"github.com/loopcart/loopcart/internal/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB opens the Postgres connection pool and optionally migrates the schema.
func NewDB(cfg *config.Configuration, log *logger.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.Postgres.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to connect to Postgres").
			Mark(ierr.ErrDatabase)
	}

	if cfg.Postgres.AutoMigrate {
		if err := db.AutoMigrate(
			&plan.Plan{},
			&subscription.Subscription{},
			&payment.Payment{},
		); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to run schema migration").
				Mark(ierr.ErrDatabase)
		}
		log.Infow("schema migration complete")
	}

	log.Infow("connected to postgres",
		"host", cfg.Postgres.Host,
		"dbname", cfg.Postgres.DBName)
	return db, nil
}
