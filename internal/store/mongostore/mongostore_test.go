package mongostore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"annotastore/internal/identity"
	"annotastore/internal/store"
	"annotastore/internal/store/storetest"
)

func mustScope(t *testing.T, org string) identity.Scope {
	t.Helper()
	s, err := identity.NewScope(org)
	require.NoError(t, err)
	return s
}

func TestDocumentIDIsUnambiguous(t *testing.T) {
	assert.NotEqual(t, documentID("a:b", "c"), documentID("a", "b:c"))
	assert.Equal(t, "5:org-1:ann-1", documentID("org-1", "ann-1"))
}

func TestCollection(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("upsert", func(mt *mtest.T) {
		c := NewCollection[storetest.Sample](mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
			bson.E{Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: "5:org-1:r1"}}}},
		))

		rec := storetest.Sample{ID: "r1", Doc: "doc-1", Value: "one"}
		stored, err := c.Upsert(context.Background(), mustScope(mt.T, "org-1"), store.Key{Partition: "doc-1", ID: "r1"}, rec)
		require.NoError(mt, err)
		assert.Equal(mt, rec, stored)
	})

	mt.Run("fetch many filters by organization", func(mt *mtest.T) {
		c := NewCollection[storetest.Sample](mt.Coll)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: "5:org-1:r1"},
				{Key: "organizationId", Value: "org-1"},
				{Key: "partition", Value: "doc-1"},
				{Key: "key", Value: "r1"},
				{Key: "record", Value: bson.D{{Key: "id", Value: "r1"}, {Key: "doc", Value: "doc-1"}, {Key: "value", Value: "one"}}},
			},
		))

		got, err := c.FetchMany(context.Background(), mustScope(mt.T, "org-1"), store.Query{Partitions: []string{"doc-1"}})
		require.NoError(mt, err)
		require.Len(mt, got, 1)
		assert.Equal(mt, "one", got["r1"].Value)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		filter := started.Command.Lookup("filter").Document()
		assert.Equal(mt, "org-1", filter.Lookup("organizationId").StringValue())
	})

	mt.Run("fetch many rejects foreign records", func(mt *mtest.T) {
		c := NewCollection[storetest.Sample](mt.Coll)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: "5:org-2:r1"},
				{Key: "organizationId", Value: "org-2"},
				{Key: "key", Value: "r1"},
				{Key: "record", Value: bson.D{{Key: "id", Value: "r1"}}},
			},
		))

		_, err := c.FetchMany(context.Background(), mustScope(mt.T, "org-1"), store.Query{})
		assert.Error(mt, err)
	})

	mt.Run("delete missing record succeeds", func(mt *mtest.T) {
		c := NewCollection[storetest.Sample](mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		err := c.DeleteOne(context.Background(), mustScope(mt.T, "org-1"), "missing")
		assert.NoError(mt, err)
	})

	mt.Run("backend error surfaces", func(mt *mtest.T) {
		c := NewCollection[storetest.Sample](mt.Coll)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Name:    "BadValue",
			Message: "bad value",
		}))

		_, err := c.Upsert(context.Background(), mustScope(mt.T, "org-1"), store.Key{ID: "r1"}, storetest.Sample{ID: "r1"})
		assert.Error(mt, err)
	})

	mt.Run("unscoped calls never reach the server", func(mt *mtest.T) {
		c := NewCollection[storetest.Sample](mt.Coll)
		_, err := c.FetchMany(context.Background(), identity.Scope{}, store.Query{})
		assert.Error(mt, err)
		assert.Nil(mt, mt.GetStartedEvent())
	})
}
