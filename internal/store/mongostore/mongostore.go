// Package mongostore implements store.Collection on MongoDB. Each record is
// wrapped in a document whose _id embeds the organization, so equal record
// ids in different organizations never collide.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"annotastore/internal/identity"
	"annotastore/internal/store"
)

type document[R any] struct {
	ID             string `bson:"_id"`
	OrganizationID string `bson:"organizationId"`
	Partition      string `bson:"partition,omitempty"`
	Key            string `bson:"key"`
	Record         R      `bson:"record"`
}

type Collection[R any] struct {
	collection *mongo.Collection
}

func NewCollection[R any](collection *mongo.Collection) *Collection[R] {
	return &Collection[R]{collection: collection}
}

func documentID(org, id string) string {
	return fmt.Sprintf("%d:%s:%s", len(org), org, id)
}

// EnsureIndexes creates the indexes the query patterns rely on.
func (c *Collection[R]) EnsureIndexes(ctx context.Context) error {
	_, err := c.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "organizationId", Value: 1}, {Key: "key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "organizationId", Value: 1}, {Key: "partition", Value: 1}},
		},
	})
	return err
}

func (c *Collection[R]) Upsert(ctx context.Context, scope identity.Scope, key store.Key, record R) (R, error) {
	var zero R
	if err := store.CheckKey(scope, key); err != nil {
		return zero, err
	}
	org := scope.OrganizationID()
	doc := document[R]{
		ID:             documentID(org, key.ID),
		OrganizationID: org,
		Partition:      key.Partition,
		Key:            key.ID,
		Record:         record,
	}
	filter := bson.M{"_id": doc.ID, "organizationId": org}
	if _, err := c.collection.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true)); err != nil {
		return zero, err
	}
	return record, nil
}

func (c *Collection[R]) FetchMany(ctx context.Context, scope identity.Scope, q store.Query) (map[string]R, error) {
	if err := scope.Check(); err != nil {
		return nil, err
	}
	filter := bson.M{"organizationId": scope.OrganizationID()}
	if len(q.IDs) > 0 {
		filter["key"] = bson.M{"$in": q.IDs}
	}
	if len(q.Partitions) > 0 {
		filter["partition"] = bson.M{"$in": q.Partitions}
	}
	opts := options.Find().SetSort(bson.D{{Key: "key", Value: 1}})
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := c.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[string]R)
	for cur.Next(ctx) {
		var doc document[R]
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		if doc.OrganizationID != scope.OrganizationID() {
			return nil, errors.New("backend returned a record outside the requested organization")
		}
		out[doc.Key] = doc.Record
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Collection[R]) DeleteOne(ctx context.Context, scope identity.Scope, id string) error {
	if err := store.CheckKey(scope, store.Key{ID: id}); err != nil {
		return err
	}
	org := scope.OrganizationID()
	_, err := c.collection.DeleteOne(ctx, bson.M{"_id": documentID(org, id), "organizationId": org})
	return err
}

var _ store.Collection[struct{}] = (*Collection[struct{}])(nil)
