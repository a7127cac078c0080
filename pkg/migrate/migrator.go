package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/vendorhub-backend/pkg/logger"
)

// Migrator runs goose migrations from one source against postgres.
type Migrator struct {
	provider *goose.Provider
	logg     *logger.Logger
}

func NewMigrator(db *sql.DB, source fs.FS, logg *logger.Logger) (*Migrator, error) {
	if db == nil {
		return nil, fmt.Errorf("migrator requires a database")
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, db, source)
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	return &Migrator{provider: provider, logg: logg}, nil
}

// Up applies every pending migration and returns how many ran.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	results, err := m.provider.Up(ctx)
	m.logResults(ctx, results...)
	if err != nil {
		return len(results), fmt.Errorf("goose up: %w", err)
	}
	return len(results), nil
}

// Down rolls back the most recent migration.
func (m *Migrator) Down(ctx context.Context) error {
	result, err := m.provider.Down(ctx)
	if result != nil {
		m.logResults(ctx, result)
	}
	if err != nil {
		return fmt.Errorf("goose down: %w", err)
	}
	return nil
}

// To moves the schema up or down until version is the latest applied.
func (m *Migrator) To(ctx context.Context, version int64) error {
	current, err := m.provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	var results []*goose.MigrationResult
	switch {
	case version > current:
		results, err = m.provider.UpTo(ctx, version)
	case version < current:
		results, err = m.provider.DownTo(ctx, version)
	}
	m.logResults(ctx, results...)
	if err != nil {
		return fmt.Errorf("migrate %d -> %d: %w", current, version, err)
	}
	return nil
}

// Status logs one line per known migration.
func (m *Migrator) Status(ctx context.Context) error {
	statuses, err := m.provider.Status(ctx)
	if err != nil {
		return fmt.Errorf("goose status: %w", err)
	}
	for _, st := range statuses {
		fields := map[string]any{
			"version": st.Source.Version,
			"file":    st.Source.Path,
			"state":   string(st.State),
		}
		if !st.AppliedAt.IsZero() {
			fields["applied_at"] = st.AppliedAt
		}
		m.logg.Info(m.logg.WithFields(ctx, fields), "migrate.status")
	}
	return nil
}

func (m *Migrator) logResults(ctx context.Context, results ...*goose.MigrationResult) {
	for _, res := range results {
		if res == nil || res.Source == nil {
			continue
		}
		rctx := m.logg.WithFields(ctx, map[string]any{
			"version":     res.Source.Version,
			"direction":   res.Direction,
			"duration_ms": res.Duration.Milliseconds(),
		})
		if res.Error != nil {
			m.logg.Error(rctx, "migrate.step_failed", res.Error)
			continue
		}
		m.logg.Info(rctx, "migrate.step_applied")
	}
}
