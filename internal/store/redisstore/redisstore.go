// Package redisstore implements store.Collection on Redis. Every record is a
// hash holding its partition and JSON body; per-organization sets index the
// ids and the ids of each partition.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"annotastore/internal/identity"
	"annotastore/internal/store"
)

const (
	fieldPartition = "partition"
	fieldBody      = "body"
)

type Collection[R any] struct {
	client redis.UniversalClient
	prefix string
}

// NewCollection stores records of collection name under keys starting with
// "annotastore:<name>:".
func NewCollection[R any](client redis.UniversalClient, name string) *Collection[R] {
	return &Collection[R]{client: client, prefix: "annotastore:" + name + ":"}
}

func (c *Collection[R]) orgPrefix(org string) string {
	return fmt.Sprintf("%s%d:%s:", c.prefix, len(org), org)
}

func (c *Collection[R]) recordKey(org, id string) string {
	return c.orgPrefix(org) + "r:" + id
}

func (c *Collection[R]) idsKey(org string) string {
	return c.orgPrefix(org) + "ids"
}

func (c *Collection[R]) partitionKey(org, partition string) string {
	return c.orgPrefix(org) + "p:" + partition
}

func (c *Collection[R]) currentPartition(ctx context.Context, org, id string) (string, bool, error) {
	p, err := c.client.HGet(ctx, c.recordKey(org, id), fieldPartition).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return p, true, nil
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
	org := scope.OrganizationID()

	previous, existed, err := c.currentPartition(ctx, org, key.ID)
	if err != nil {
		return zero, err
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, c.recordKey(org, key.ID), fieldPartition, key.Partition, fieldBody, body)
		pipe.SAdd(ctx, c.idsKey(org), key.ID)
		if existed && previous != key.Partition {
			pipe.SRem(ctx, c.partitionKey(org, previous), key.ID)
		}
		pipe.SAdd(ctx, c.partitionKey(org, key.Partition), key.ID)
		return nil
	})
	if err != nil {
		return zero, err
	}
	return record, nil
}

func (c *Collection[R]) candidates(ctx context.Context, org string, q store.Query) ([]string, error) {
	switch {
	case len(q.IDs) > 0:
		return q.IDs, nil
	case len(q.Partitions) > 0:
		keys := make([]string, len(q.Partitions))
		for i, p := range q.Partitions {
			keys[i] = c.partitionKey(org, p)
		}
		return c.client.SUnion(ctx, keys...).Result()
	default:
		return c.client.SMembers(ctx, c.idsKey(org)).Result()
	}
}

func (c *Collection[R]) FetchMany(ctx context.Context, scope identity.Scope, q store.Query) (map[string]R, error) {
	if err := scope.Check(); err != nil {
		return nil, err
	}
	org := scope.OrganizationID()

	ids, err := c.candidates(ctx, org, q)
	if err != nil {
		return nil, err
	}
	ids = append([]string(nil), ids...)
	sort.Strings(ids)

	cmds := make([]*redis.SliceCmd, len(ids))
	_, err = c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HMGet(ctx, c.recordKey(org, id), fieldPartition, fieldBody)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make(map[string]R)
	for i, id := range ids {
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
		vals := cmds[i].Val()
		if len(vals) != 2 || vals[1] == nil {
			continue
		}
		partition, _ := vals[0].(string)
		if !q.Match(partition, id) {
			continue
		}
		raw, ok := vals[1].(string)
		if !ok {
			return nil, fmt.Errorf("record %s: unexpected body type %T", id, vals[1])
		}
		var rec R
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
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
	org := scope.OrganizationID()

	partition, existed, err := c.currentPartition(ctx, org, id)
	if err != nil || !existed {
		return err
	}
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, c.recordKey(org, id))
		pipe.SRem(ctx, c.idsKey(org), id)
		pipe.SRem(ctx, c.partitionKey(org, partition), id)
		return nil
	})
	return err
}

var _ store.Collection[struct{}] = (*Collection[struct{}])(nil)
