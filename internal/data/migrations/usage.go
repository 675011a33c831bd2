package migrations

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	usagedata "seopro/app/internal/data/usage"
)

// MigrateUsage applies the usage ledger schema using Gorm's AutoMigrate and logs progress.
func MigrateUsage(ctx context.Context, db *gorm.DB, logger *logrus.Logger) error {
	if db == nil {
		return eris.New("gorm DB is required")
	}

	logFields := logrus.Fields{"component": "usage.migrate"}
	if logger != nil {
		logger.WithFields(logFields).Info("applying usage schema")
	}

	if err := db.WithContext(ctx).AutoMigrate(&usagedata.RunRecord{}); err != nil {
		if logger != nil {
			logger.WithFields(logFields).WithField("error", err.Error()).Error("usage schema migration failed")
		}
		return eris.Wrap(err, "auto migrating usage schema")
	}

	if logger != nil {
		logger.WithFields(logFields).Info("usage schema migration complete")
	}

	return nil
}
