// Package storage implements cow-blog's data-access core: a thin,
// generics-based layer over database/sql that knows the blog's closed
// entity set, builds queries declaratively, batches eager loads, and
// surfaces storage errors without recovering from them.
package storage

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

var (
	SQLite     = &SQLiteDialect{}
	PostgreSQL = &PostgreSQLDialect{}
)

// Dialect abstracts the SQL differences between the supported databases:
// placeholder style and upsert syntax. SQLite is the shipped default,
// PostgreSQL the option for anyone hosting the blog off a single box.
type Dialect interface {
	// Name returns the driver name registered with database/sql.
	Name() string

	// PlaceholderFormat is the placeholder style squirrel should emit.
	PlaceholderFormat() sq.PlaceholderFormat

	// UpsertClause renders the ON CONFLICT suffix for an insert that may
	// collide on conflictCols. An empty updateCols list means DO NOTHING.
	UpsertClause(conflictCols, updateCols []string) string
}

// buildOnConflict renders ON CONFLICT (...) DO UPDATE SET ... against the
// proposed-row table, which both PostgreSQL and SQLite call excluded
// (PostgreSQL conventionally uppercase).
func buildOnConflict(conflictCols, updateCols []string, excluded string) string {
	if len(conflictCols) == 0 {
		return ""
	}
	target := strings.Join(conflictCols, ", ")
	if len(updateCols) == 0 {
		return fmt.Sprintf("ON CONFLICT (%s) DO NOTHING", target)
	}
	updates := make([]string, len(updateCols))
	for i, col := range updateCols {
		updates[i] = fmt.Sprintf("%s=%s.%s", col, excluded, col)
	}
	return fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s", target, strings.Join(updates, ", "))
}

// SQLiteDialect targets SQLite 3.24+ (the first release with upsert).
type SQLiteDialect struct{}

func (d *SQLiteDialect) Name() string { return "sqlite3" }

func (d *SQLiteDialect) PlaceholderFormat() sq.PlaceholderFormat { return sq.Question }

func (d *SQLiteDialect) UpsertClause(conflictCols, updateCols []string) string {
	return buildOnConflict(conflictCols, updateCols, "excluded")
}

// PostgreSQLDialect targets PostgreSQL 12+.
type PostgreSQLDialect struct{}

func (d *PostgreSQLDialect) Name() string { return "postgres" }

func (d *PostgreSQLDialect) PlaceholderFormat() sq.PlaceholderFormat { return sq.Dollar }

func (d *PostgreSQLDialect) UpsertClause(conflictCols, updateCols []string) string {
	return buildOnConflict(conflictCols, updateCols, "EXCLUDED")
}
