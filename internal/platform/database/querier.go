package database

import (
	"context"
	"database/sql"
	"strings"

	"guardhouse/pkg/platform/tx"
)

// Querier is the subset shared by *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Q returns the transaction carried by ctx, or db when there is none.
func Q(ctx context.Context, db *sql.DB) Querier {
	if sqlTx, ok := tx.From(ctx); ok {
		return sqlTx
	}
	return db
}

// NullString maps "" to NULL.
func NullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern builds an ILIKE pattern matching s anywhere, with LIKE
// wildcards in s taken literally.
func ContainsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
