// Package store defines the collection-oriented adapter every service persists
// through. Backends live in sub-packages; each one scopes every call with an
// identity.Scope so records never cross organizations.
package store

import (
	"context"
	"errors"
	"strings"

	"annotastore/internal/identity"
)

// Key addresses one record inside a scope. ID is the primary key; Partition
// is the secondary key (the document id) used for prefix queries.
type Key struct {
	Partition string
	ID        string
}

// Query selects records inside a scope. Partitions and IDs combine with AND;
// an empty query selects every record of the scope. Limit <= 0 is unbounded.
type Query struct {
	Partitions []string
	IDs        []string
	Limit      int
}

func (q Query) Empty() bool {
	return len(q.Partitions) == 0 && len(q.IDs) == 0
}

type Collection[R any] interface {
	// Upsert replaces or inserts the record at key and returns what was stored.
	Upsert(ctx context.Context, scope identity.Scope, key Key, record R) (R, error)
	// FetchMany returns the records matching q keyed by ID. Missing keys are
	// simply absent.
	FetchMany(ctx context.Context, scope identity.Scope, q Query) (map[string]R, error)
	// DeleteOne removes the record with id. Deleting a missing record succeeds.
	DeleteOne(ctx context.Context, scope identity.Scope, id string) error
}

var ErrMalformedKey = errors.New("malformed key")

// Names of the collections services use when none are configured.
const (
	DefaultComments    = "comment_annotations"
	DefaultReactions   = "reaction_annotations"
	DefaultAttachments = "attachments"
	DefaultUsers       = "users"
)

// CheckKey validates the parts of a key before a write.
func CheckKey(scope identity.Scope, key Key) error {
	if err := scope.Check(); err != nil {
		return err
	}
	if strings.TrimSpace(key.ID) == "" {
		return ErrMalformedKey
	}
	return nil
}

// FetchOne is a convenience over FetchMany for a single id.
func FetchOne[R any](ctx context.Context, c Collection[R], scope identity.Scope, id string) (R, bool, error) {
	var zero R
	found, err := c.FetchMany(ctx, scope, Query{IDs: []string{id}})
	if err != nil {
		return zero, false, err
	}
	rec, ok := found[id]
	return rec, ok, nil
}

// Match reports whether a record with the given partition and id satisfies q.
// Backends that cannot push a query down filter with it.
func (q Query) Match(partition, id string) bool {
	if len(q.Partitions) > 0 && !contains(q.Partitions, partition) {
		return false
	}
	if len(q.IDs) > 0 && !contains(q.IDs, id) {
		return false
	}
	return true
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
