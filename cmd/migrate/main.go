package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/vendorhub-backend/pkg/config"
	"github.com/angelmondragon/vendorhub-backend/pkg/db"
	"github.com/angelmondragon/vendorhub-backend/pkg/logger"
	"github.com/angelmondragon/vendorhub-backend/pkg/migrate"
)

const usage = `usage: migrate <command> [flags]

commands:
  up                 apply pending migrations
  down               roll back the latest migration
  to -version V      migrate up or down to version V
  status             list migrations and their state
  validate           check migration files
  new -name N        author a new migration in -dir

flags:
  -dir D             read migrations from D instead of the embedded set
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	command := os.Args[1]

	flags := flag.NewFlagSet(command, flag.ExitOnError)
	dir := flags.String("dir", "", "migrations directory")
	name := flags.String("name", "", "name for new migration")
	version := flags.Int64("version", 0, "target version for to")
	_ = flags.Parse(os.Args[2:])

	_ = godotenv.Load()
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	ctx := logg.WithField(context.Background(), "command", command)

	switch command {
	case "new":
		target := *dir
		if target == "" {
			target = migrate.SourceDir
		}
		path, err := migrate.NewMigrationFile(target, *name, time.Now())
		exitOn(ctx, logg, "migrate.new_failed", err)
		logg.Info(logg.WithField(ctx, "path", path), "migrate.created")
		return
	case "validate":
		source, err := migrate.Source(*dir)
		exitOn(ctx, logg, "migrate.source_failed", err)
		exitOn(ctx, logg, "migrate.invalid", migrate.Validate(source))
		logg.Info(ctx, "migrate.valid")
		return
	case "up", "down", "to", "status":
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", command, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	exitOn(ctx, logg, "migrate.config_failed", err)
	logg = logger.ForApp("migrate", cfg.App)
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "command": command})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	exitOn(ctx, logg, "migrate.db_failed", err)
	defer dbClient.Close()

	sqlDB, err := dbClient.SQL()
	exitOn(ctx, logg, "migrate.db_failed", err)
	source, err := migrate.Source(*dir)
	exitOn(ctx, logg, "migrate.source_failed", err)
	migrator, err := migrate.NewMigrator(sqlDB, source, logg)
	exitOn(ctx, logg, "migrate.load_failed", err)

	switch command {
	case "up":
		var applied int
		applied, err = migrator.Up(ctx)
		ctx = logg.WithField(ctx, "applied", applied)
	case "down":
		err = migrator.Down(ctx)
	case "to":
		if *version <= 0 {
			err = fmt.Errorf("to requires -version")
			break
		}
		ctx = logg.WithField(ctx, "target", strconv.FormatInt(*version, 10))
		err = migrator.To(ctx, *version)
	case "status":
		err = migrator.Status(ctx)
	}
	exitOn(ctx, logg, "migrate.failed", err)
	logg.Info(ctx, "migrate.done")
}

func exitOn(ctx context.Context, logg *logger.Logger, event string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, event, err)
	os.Exit(1)
}
