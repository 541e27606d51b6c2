package sqlstore

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/allisson/volt/internal/database"
)

// Dialect captures the SQL differences between the supported databases.
type Dialect int

// Supported dialects.
const (
	PostgreSQL Dialect = iota
	MySQL
	SQLite
)

// String returns the dialect name.
func (d Dialect) String() string {
	switch d {
	case PostgreSQL:
		return "postgres"
	case MySQL:
		return "mysql"
	default:
		return "sqlite"
	}
}

// rebind rewrites "?" placeholders into the dialect's placeholder style.
func (d Dialect) rebind(query string) string {
	if d != PostgreSQL {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// insertID runs an INSERT and returns the generated id.
func (d Dialect) insertID(ctx context.Context, querier database.Querier, query string, args ...any) (int64, error) {
	if d == PostgreSQL {
		var id int64
		err := querier.QueryRowContext(ctx, d.rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}

	result, err := querier.ExecContext(ctx, d.rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (d Dialect) exec(ctx context.Context, querier database.Querier, query string, args ...any) (sql.Result, error) {
	return querier.ExecContext(ctx, d.rebind(query), args...)
}

func (d Dialect) query(ctx context.Context, querier database.Querier, query string, args ...any) (*sql.Rows, error) {
	return querier.QueryContext(ctx, d.rebind(query), args...)
}

func (d Dialect) queryRow(ctx context.Context, querier database.Querier, query string, args ...any) *sql.Row {
	return querier.QueryRowContext(ctx, d.rebind(query), args...)
}
