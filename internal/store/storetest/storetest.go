// Package storetest holds the behavioural checks every store backend that can
// run in-process must pass.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"annotastore/internal/identity"
	"annotastore/internal/store"
)

type Sample struct {
	ID    string            `json:"id" bson:"id"`
	Doc   string            `json:"doc" bson:"doc"`
	Value string            `json:"value" bson:"value"`
	Tags  map[string]string `json:"tags,omitempty" bson:"tags,omitempty"`
}

func scope(t *testing.T, org string) identity.Scope {
	t.Helper()
	s, err := identity.NewScope(org)
	require.NoError(t, err)
	return s
}

// Run exercises c against the Collection contract. c must start empty.
func Run(t *testing.T, c store.Collection[Sample]) {
	ctx := context.Background()
	orgA := scope(t, "org-a")
	orgB := scope(t, "org-b")

	t.Run("upsert then fetch", func(t *testing.T) {
		stored, err := c.Upsert(ctx, orgA, store.Key{Partition: "doc-1", ID: "r1"}, Sample{ID: "r1", Doc: "doc-1", Value: "one"})
		require.NoError(t, err)
		assert.Equal(t, "one", stored.Value)

		got, err := c.FetchMany(ctx, orgA, store.Query{IDs: []string{"r1", "missing"}})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "one", got["r1"].Value)
	})

	t.Run("upsert replaces", func(t *testing.T) {
		_, err := c.Upsert(ctx, orgA, store.Key{Partition: "doc-1", ID: "r1"}, Sample{ID: "r1", Doc: "doc-1", Value: "uno"})
		require.NoError(t, err)
		got, err := c.FetchMany(ctx, orgA, store.Query{IDs: []string{"r1"}})
		require.NoError(t, err)
		assert.Equal(t, "uno", got["r1"].Value)
	})

	t.Run("partition query", func(t *testing.T) {
		_, err := c.Upsert(ctx, orgA, store.Key{Partition: "doc-2", ID: "r2"}, Sample{ID: "r2", Doc: "doc-2", Value: "two"})
		require.NoError(t, err)

		got, err := c.FetchMany(ctx, orgA, store.Query{Partitions: []string{"doc-2"}})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Contains(t, got, "r2")

		all, err := c.FetchMany(ctx, orgA, store.Query{})
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("isolation", func(t *testing.T) {
		_, err := c.Upsert(ctx, orgB, store.Key{Partition: "doc-1", ID: "r1"}, Sample{ID: "r1", Doc: "doc-1", Value: "b-side"})
		require.NoError(t, err)

		a, err := c.FetchMany(ctx, orgA, store.Query{IDs: []string{"r1"}})
		require.NoError(t, err)
		assert.Equal(t, "uno", a["r1"].Value)

		b, err := c.FetchMany(ctx, orgB, store.Query{})
		require.NoError(t, err)
		require.Len(t, b, 1)
		assert.Equal(t, "b-side", b["r1"].Value)

		require.NoError(t, c.DeleteOne(ctx, orgB, "r2"))
		a, err = c.FetchMany(ctx, orgA, store.Query{IDs: []string{"r2"}})
		require.NoError(t, err)
		assert.Contains(t, a, "r2", "delete in org-b must not reach org-a")
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, c.DeleteOne(ctx, orgA, "r2"))
		require.NoError(t, c.DeleteOne(ctx, orgA, "r2"))
		got, err := c.FetchMany(ctx, orgA, store.Query{Partitions: []string{"doc-2"}})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("limit", func(t *testing.T) {
		for _, id := range []string{"l1", "l2", "l3"} {
			_, err := c.Upsert(ctx, orgA, store.Key{Partition: "doc-l", ID: id}, Sample{ID: id, Doc: "doc-l"})
			require.NoError(t, err)
		}
		got, err := c.FetchMany(ctx, orgA, store.Query{Partitions: []string{"doc-l"}, Limit: 2})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("unscoped calls are rejected", func(t *testing.T) {
		_, err := c.Upsert(ctx, identity.Scope{}, store.Key{ID: "x"}, Sample{})
		assert.Error(t, err)
		_, err = c.FetchMany(ctx, identity.Scope{}, store.Query{})
		assert.Error(t, err)
		assert.Error(t, c.DeleteOne(ctx, identity.Scope{}, "x"))
	})

	t.Run("empty id is rejected", func(t *testing.T) {
		_, err := c.Upsert(ctx, orgA, store.Key{Partition: "doc-1"}, Sample{})
		assert.ErrorIs(t, err, store.ErrMalformedKey)
	})
}
