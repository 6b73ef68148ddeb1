package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// dropOrder lists tables children first so foreign keys never block a drop.
var dropOrder = []string{"bookings", "showtimes", "movie_genres", "movies", "genres"}

// Migrate creates any missing tables and indexes for dialect.  Every
// statement is idempotent (IF NOT EXISTS), so Migrate is safe to run on
// each start.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect) error {
	stmts, err := statements(dialect)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %q: %w", dialect, firstLine(stmt), err)
		}
	}
	return nil
}

// Reset drops every table and recreates the schema.
func Reset(ctx context.Context, db *sql.DB, dialect Dialect) error {
	for _, table := range dropOrder {
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return Migrate(ctx, db, dialect)
}

// statements reads schema/<dialect>.sql, drops comment lines and splits
// on semicolons.
func statements(dialect Dialect) ([]string, error) {
	raw, err := schemaFS.ReadFile("schema/" + string(dialect) + ".sql")
	if err != nil {
		return nil, fmt.Errorf("unknown dialect %q: %w", dialect, err)
	}
	var b strings.Builder
	for _, line := range strings.Split(string(raw), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	var out []string
	for _, stmt := range strings.Split(b.String(), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
