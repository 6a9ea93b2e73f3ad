// Package migrations applies the embedded schema of the PostgreSQL and
// ClickHouse stores.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
)

//go:embed postgres/*.sql clickhouse/*.sql
var files embed.FS

// Dialect directories.
const (
	DialectPostgres   = "postgres"
	DialectClickhouse = "clickhouse"
)

// Migration is one embedded SQL file. Version is the numeric file prefix
// (001_trade_caches.sql has version 1).
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Load returns the migrations of dialect ordered by version. Files without
// a numeric prefix, duplicate versions and empty files are errors.
func Load(dialect string) ([]Migration, error) {
	entries, err := fs.ReadDir(files, dialect)
	if err != nil {
		return nil, fmt.Errorf("read embedded %s migrations: %w", dialect, err)
	}

	seen := make(map[int]string)
	var out []Migration
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".sql" {
			continue
		}
		prefix, _, ok := strings.Cut(name, "_")
		version, err := strconv.Atoi(prefix)
		if !ok || err != nil || version <= 0 {
			return nil, fmt.Errorf("migration %s: missing numeric version prefix", name)
		}
		if other, dup := seen[version]; dup {
			return nil, fmt.Errorf("migration %s: version %d already used by %s", name, version, other)
		}
		seen[version] = name

		data, err := fs.ReadFile(files, dialect+"/"+name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			return nil, fmt.Errorf("migration %s is empty", name)
		}
		out = append(out, Migration{Version: version, Name: name, SQL: string(data)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}
