// Package migrate applies and authors the goose SQL migrations that define
// the fulfillment schema. Migrations are embedded in every binary so a
// deploy never depends on the working directory.
package migrate

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
)

//go:embed migrations/*.sql
var embedded embed.FS

// SourceDir is where new migrations are authored in the repository.
const SourceDir = "pkg/migrate/migrations"

var migrationNameRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// Source returns the embedded migrations, or the files in dir when dir is set.
func Source(dir string) (fs.FS, error) {
	if dir != "" {
		return os.DirFS(dir), nil
	}
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	return sub, nil
}

// Validate checks every .sql file in fsys: timestamped name, unique version,
// and both goose sections with a non-empty Up body.
func Validate(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}

	versions := make(map[string]string, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		match := migrationNameRe.FindStringSubmatch(name)
		if match == nil {
			return fmt.Errorf("migration %q: name must look like YYYYMMDDHHMMSS_snake_name.sql", name)
		}
		if other, dup := versions[match[1]]; dup {
			return fmt.Errorf("migration %q: version %s already used by %q", name, match[1], other)
		}
		versions[match[1]] = name

		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("migration %q: %w", name, err)
		}
		if err := checkSections(string(body)); err != nil {
			return fmt.Errorf("migration %q: %w", name, err)
		}
	}

	if len(versions) == 0 {
		return fmt.Errorf("no migrations found")
	}
	return nil
}

func checkSections(sql string) error {
	up := strings.Index(sql, "-- +goose Up")
	down := strings.Index(sql, "-- +goose Down")
	switch {
	case up < 0:
		return fmt.Errorf("missing -- +goose Up")
	case down < 0:
		return fmt.Errorf("missing -- +goose Down")
	case down < up:
		return fmt.Errorf("-- +goose Down precedes -- +goose Up")
	}
	upBody := sql[up+len("-- +goose Up") : down]
	for _, line := range strings.Split(upBody, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "--") {
			return nil
		}
	}
	return fmt.Errorf("empty -- +goose Up section")
}
