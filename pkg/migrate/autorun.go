package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/vendorhub-backend/pkg/config"
	"github.com/angelmondragon/vendorhub-backend/pkg/db"
	"github.com/angelmondragon/vendorhub-backend/pkg/logger"
)

// MaybeRun applies the embedded migrations on boot when
// VENDORHUB_AUTO_MIGRATE is set. Non-postgres databases are skipped.
func MaybeRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.DB.AutoMigrate || !db.IsPostgres(client.DB()) {
		return nil
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	source, err := Source("")
	if err != nil {
		return err
	}
	migrator, err := NewMigrator(sqlDB, source, logg)
	if err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	applied, err := migrator.Up(ctx)
	if err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	logg.Info(logg.WithField(ctx, "applied", applied), "migrate.auto_complete")
	return nil
}
