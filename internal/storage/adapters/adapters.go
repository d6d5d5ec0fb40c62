// Package adapters abstracts the concrete database driver behind a small
// interface so the repositories can run against a pgx pool or a
// database/sql-compatible stack (sqlx + lib/pq), selected by configuration.
package adapters

import (
	"context"
	"database/sql"
)

// DBAdapter defines the database operations the repositories need.
//
// Query may be served by a read replica when one is configured and is
// therefore subject to replication lag. QueryStrong always hits the
// primary; use it when a read must observe the latest committed write.
type DBAdapter interface {
	Query(ctx context.Context, query string) (DBRows, error)
	QueryStrong(ctx context.Context, query string) (DBRows, error)
	Exec(ctx context.Context, query string) (DBResult, error)
}

// DBRows defines the interface for query result rows.
//
// Err must be checked once Next returns false: the drivers report most
// execution failures (dropped connections, statement errors) only at
// iteration end, not from the Query call itself.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// DBResult defines the interface for execution results.
type DBResult interface {
	RowsAffected() (int64, error)
}

// stdRows wraps standard library sql.Rows to implement DBRows.
type stdRows struct {
	rows *sql.Rows
}

func (s *stdRows) Next() bool {
	return s.rows.Next()
}

func (s *stdRows) Scan(dest ...any) error {
	return s.rows.Scan(dest...)
}

func (s *stdRows) Err() error {
	return s.rows.Err()
}

func (s *stdRows) Close() error {
	return s.rows.Close()
}

// stdResult wraps standard library sql.Result to implement DBResult.
type stdResult struct {
	result sql.Result
}

func (s *stdResult) RowsAffected() (int64, error) {
	return s.result.RowsAffected()
}
