package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/vendorhub-backend/pkg/config"
	"github.com/angelmondragon/vendorhub-backend/pkg/logger"
)

// Client owns the pooled gorm connection shared by every repository.
type Client struct {
	conn *gorm.DB
}

// New opens the configured database, applies pool limits and fails unless
// the server answers a ping. Slow and failed statements are logged through
// logg; a nil logg silences gorm.
func New(ctx context.Context, cfg config.DBConfig, logg *logger.Logger) (*Client, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	var queries gormlogger.Interface = gormlogger.Discard
	if logg != nil {
		queries = newQueryLogger(logg, cfg.SlowQueryThreshold)
	}
	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 queries,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	client := &Client{conn: conn}
	sqlDB, err := client.SQL()
	if err != nil {
		return nil, err
	}
	applyPoolSettings(sqlDB, cfg)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", conn.Dialector.Name(), err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "driver", conn.Dialector.Name()), "db.ready")
	}
	return client, nil
}

// NewFromGorm wraps a connection opened elsewhere, such as a test database.
func NewFromGorm(conn *gorm.DB) *Client {
	return &Client{conn: conn}
}

func dialectorFor(cfg config.DBConfig) (gorm.Dialector, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "postgres", "pgx":
		return postgres.New(postgres.Config{
			DSN:                  cfg.DSN,
			PreferSimpleProtocol: true,
		}), nil
	case "sqlite":
		return sqlite.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func applyPoolSettings(sqlDB *sql.DB, cfg config.DBConfig) {
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}

func (c *Client) DB() *gorm.DB {
	return c.conn
}

// SQL returns the database/sql pool behind gorm.
func (c *Client) SQL() (*sql.DB, error) {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return nil, fmt.Errorf("sql handle: %w", err)
	}
	return sqlDB, nil
}

func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.SQL()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (c *Client) Close() error {
	sqlDB, err := c.SQL()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WithTx runs fn in a transaction bound to ctx. An error or panic from fn
// rolls back; the panic is re-raised.
func (c *Client) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return c.conn.WithContext(ctx).Transaction(fn)
}

// IsPostgres reports whether tx talks to postgres. Row locks and advisory
// locks are skipped on sqlite, which serializes writers on its own.
func IsPostgres(tx *gorm.DB) bool {
	if tx == nil || tx.Dialector == nil {
		return false
	}
	return tx.Dialector.Name() == "postgres"
}

// AdvisoryXactLock takes a transaction scoped advisory lock on key. The lock
// is released on commit or rollback. No-op outside postgres.
func AdvisoryXactLock(tx *gorm.DB, key string) error {
	if !IsPostgres(tx) {
		return nil
	}
	return tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error
}
