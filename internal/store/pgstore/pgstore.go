// Package pgstore implements store.Collection on a single PostgreSQL table
// holding JSONB bodies.
package pgstore

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"annotastore/internal/identity"
	"annotastore/internal/store"
	"annotastore/pkg/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies the embedded migrations with goose.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{})
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, "migrations")
}

type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...interface{}) { logger.Sugar.Infof(format, v...) }
func (gooseLogger) Fatalf(format string, v ...interface{}) { logger.Sugar.Fatalf(format, v...) }

type Collection[R any] struct {
	DB   *sql.DB
	name string
}

func NewCollection[R any](db *sql.DB, name string) *Collection[R] {
	return &Collection[R]{DB: db, name: name}
}

func (c *Collection[R]) Upsert(ctx context.Context, scope identity.Scope, key store.Key, record R) (R, error) {
	var zero R
	if err := store.CheckKey(scope, key); err != nil {
		return zero, err
	}
	body, err := json.Marshal(record)
	if err != nil {
		return zero, fmt.Errorf("encode record: %w", err)
	}
	_, err = c.DB.ExecContext(ctx, `
		INSERT INTO annotastore_records (collection, organization_id, partition, record_id, body, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (collection, organization_id, record_id)
		DO UPDATE SET partition = EXCLUDED.partition, body = EXCLUDED.body, updated_at = NOW()`,
		c.name, scope.OrganizationID(), key.Partition, key.ID, body)
	if err != nil {
		return zero, err
	}
	return record, nil
}

func (c *Collection[R]) FetchMany(ctx context.Context, scope identity.Scope, q store.Query) (map[string]R, error) {
	if err := scope.Check(); err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString(`SELECT record_id, body FROM annotastore_records WHERE collection = $1 AND organization_id = $2`)
	args := []any{c.name, scope.OrganizationID()}
	if len(q.IDs) > 0 {
		args = append(args, pq.Array(q.IDs))
		fmt.Fprintf(&sb, " AND record_id = ANY($%d)", len(args))
	}
	if len(q.Partitions) > 0 {
		args = append(args, pq.Array(q.Partitions))
		fmt.Fprintf(&sb, " AND partition = ANY($%d)", len(args))
	}
	sb.WriteString(" ORDER BY record_id")
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}

	rows, err := c.DB.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]R)
	for rows.Next() {
		var (
			id   string
			body []byte
		)
		if err := rows.Scan(&id, &body); err != nil {
			return nil, err
		}
		var rec R
		if err := json.Unmarshal(body, &rec); err != nil {
			return nil, fmt.Errorf("decode record %s: %w", id, err)
		}
		out[id] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Collection[R]) DeleteOne(ctx context.Context, scope identity.Scope, id string) error {
	if err := store.CheckKey(scope, store.Key{ID: id}); err != nil {
		return err
	}
	_, err := c.DB.ExecContext(ctx,
		`DELETE FROM annotastore_records WHERE collection = $1 AND organization_id = $2 AND record_id = $3`,
		c.name, scope.OrganizationID(), id)
	return err
}

var _ store.Collection[struct{}] = (*Collection[struct{}])(nil)
