package migrate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var unsafeNameChars = regexp.MustCompile(`[^a-z0-9]+`)

const migrationTemplate = `-- +goose Up
-- +goose StatementBegin
SELECT 'up %[1]s';
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
SELECT 'down %[1]s';
-- +goose StatementEnd
`

// NewMigrationFile writes an empty timestamped migration into dir and
// returns its path. now is the version clock.
func NewMigrationFile(dir, name string, now time.Time) (string, error) {
	slug := strings.Trim(unsafeNameChars.ReplaceAllString(strings.ToLower(name), "_"), "_")
	if slug == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}

	path := filepath.Join(dir, now.UTC().Format("20060102150405")+"_"+slug+".sql")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return "", fmt.Errorf("migration %s already exists", path)
	}
	if err != nil {
		return "", err
	}
	if _, err := fmt.Fprintf(f, migrationTemplate, slug); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}
