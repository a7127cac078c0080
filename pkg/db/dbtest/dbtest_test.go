package dbtest_test

import (
	"bufio"
	"io/fs"
	"regexp"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/vendorhub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/vendorhub-backend/pkg/migrate"
)

var (
	createTable = regexp.MustCompile(`^CREATE TABLE IF NOT EXISTS (\w+) \($`)
	columnLine  = regexp.MustCompile(`^([a-z_][a-z0-9_]*)\s`)
)

// migrationColumns reads the column names of every table the embedded
// migrations create. Constraint and continuation lines start upper case.
func migrationColumns(t *testing.T) map[string][]string {
	t.Helper()
	source, err := migrate.Source("")
	require.NoError(t, err)
	names, err := fs.Glob(source, "*.sql")
	require.NoError(t, err)

	tables := map[string][]string{}
	for _, name := range names {
		raw, err := fs.ReadFile(source, name)
		require.NoError(t, err)

		table := ""
		scanner := bufio.NewScanner(strings.NewReader(string(raw)))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if m := createTable.FindStringSubmatch(line); m != nil {
				table = m[1]
				tables[table] = nil
				continue
			}
			if table == "" {
				continue
			}
			if strings.HasPrefix(line, ")") {
				table = ""
				continue
			}
			if m := columnLine.FindStringSubmatch(line); m != nil {
				tables[table] = append(tables[table], m[1])
			}
		}
		require.NoError(t, scanner.Err())
	}
	for _, cols := range tables {
		sort.Strings(cols)
	}
	return tables
}

func TestSchemaMatchesMigrations(t *testing.T) {
	want := migrationColumns(t)
	require.NotEmpty(t, want)
	conn := dbtest.Open(t)

	var tables []string
	require.NoError(t, conn.Raw(`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`).Scan(&tables).Error)
	got := make([]string, 0, len(want))
	for table := range want {
		got = append(got, table)
	}
	assert.ElementsMatch(t, got, tables)

	for table, cols := range want {
		var have []string
		require.NoError(t, conn.Raw(`SELECT name FROM pragma_table_info(?)`, table).Scan(&have).Error)
		sort.Strings(have)
		assert.Equal(t, cols, have, "columns of %s", table)
	}
}
