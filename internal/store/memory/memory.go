// Package memory is an in-process store backend for tests and local runs.
// Records are kept JSON-encoded so callers never share memory with the store.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"annotastore/internal/identity"
	"annotastore/internal/store"
)

type row struct {
	partition string
	body      []byte
}

// Backend holds every collection created from it.
type Backend struct {
	mu   sync.RWMutex
	data map[string]map[string]map[string]row // collection -> org -> id -> row
}

func New() *Backend {
	return &Backend{data: make(map[string]map[string]map[string]row)}
}

type Collection[R any] struct {
	backend *Backend
	name    string
}

func NewCollection[R any](b *Backend, name string) *Collection[R] {
	return &Collection[R]{backend: b, name: name}
}

func (c *Collection[R]) Upsert(ctx context.Context, scope identity.Scope, key store.Key, record R) (R, error) {
	var zero R
	if err := store.CheckKey(scope, key); err != nil {
		return zero, err
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	body, err := json.Marshal(record)
	if err != nil {
		return zero, fmt.Errorf("encode record: %w", err)
	}

	b := c.backend
	b.mu.Lock()
	orgs, ok := b.data[c.name]
	if !ok {
		orgs = make(map[string]map[string]row)
		b.data[c.name] = orgs
	}
	rows, ok := orgs[scope.OrganizationID()]
	if !ok {
		rows = make(map[string]row)
		orgs[scope.OrganizationID()] = rows
	}
	rows[key.ID] = row{partition: key.Partition, body: body}
	b.mu.Unlock()

	var stored R
	if err := json.Unmarshal(body, &stored); err != nil {
		return zero, fmt.Errorf("decode record: %w", err)
	}
	return stored, nil
}

func (c *Collection[R]) FetchMany(ctx context.Context, scope identity.Scope, q store.Query) (map[string]R, error) {
	if err := scope.Check(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.backend.mu.RLock()
	rows := c.backend.data[c.name][scope.OrganizationID()]
	ids := make([]string, 0, len(rows))
	for id, r := range rows {
		if q.Match(r.partition, id) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if q.Limit > 0 && len(ids) > q.Limit {
		ids = ids[:q.Limit]
	}
	bodies := make(map[string][]byte, len(ids))
	for _, id := range ids {
		bodies[id] = rows[id].body
	}
	c.backend.mu.RUnlock()

	out := make(map[string]R, len(bodies))
	for id, body := range bodies {
		var rec R
		if err := json.Unmarshal(body, &rec); err != nil {
			return nil, fmt.Errorf("decode record %s: %w", id, err)
		}
		out[id] = rec
	}
	return out, nil
}

func (c *Collection[R]) DeleteOne(ctx context.Context, scope identity.Scope, id string) error {
	if err := store.CheckKey(scope, store.Key{ID: id}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c.backend.mu.Lock()
	delete(c.backend.data[c.name][scope.OrganizationID()], id)
	c.backend.mu.Unlock()
	return nil
}

var _ store.Collection[struct{}] = (*Collection[struct{}])(nil)
