package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/multierr"

	"annotastore/config"
	"annotastore/internal/store"
	"annotastore/internal/store/memory"
	"annotastore/internal/store/mongostore"
	"annotastore/internal/store/pgstore"
	"annotastore/internal/store/redisstore"
	"annotastore/pkg/logger"

	_ "github.com/lib/pq"
)

var (
	pingAttempts = 5
	pingDelay    = 2 * time.Second
)

// Backend is an open connection to the configured store.
type Backend struct {
	Type string

	memory  *memory.Backend
	mongo   *mongo.Client
	mongoDB *mongo.Database
	sql     *sql.DB
	redis   *redis.Client
}

func retryPing(ctx context.Context, name string, ping func(context.Context) error) error {
	var err error
	for i := 0; i < pingAttempts; i++ {
		if err = ping(ctx); err == nil {
			logger.Sugar.Infof("Successfully connected to %s", name)
			return nil
		}
		logger.Sugar.Infof("%s connection failed, retrying in %s... (%v)", name, pingDelay, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pingDelay):
		}
	}
	return fmt.Errorf("could not connect to %s after %d attempts: %w", name, pingAttempts, err)
}

// Connect opens the backend selected by cfg.Database.Type and verifies it is
// reachable.
func Connect(ctx context.Context, cfg *config.Config) (*Backend, error) {
	b := &Backend{Type: cfg.Database.Type}
	switch cfg.Database.Type {
	case "memory":
		b.memory = memory.New()
		return b, nil

	case "mongodb":
		opts := options.Client().
			ApplyURI(cfg.MongoURI()).
			SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})
		client, err := mongo.Connect(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("open mongodb connection: %w", err)
		}
		if err := retryPing(ctx, "mongodb", func(ctx context.Context) error { return client.Ping(ctx, nil) }); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		name := cfg.Database.DatabaseName
		if name == "" {
			name = "annotastore"
		}
		b.mongo = client
		b.mongoDB = client.Database(name)
		return b, nil

	case "postgres":
		db, err := sql.Open("postgres", cfg.PostgresDSN())
		if err != nil {
			return nil, fmt.Errorf("open postgres connection: %w", err)
		}
		if err := retryPing(ctx, "postgres", db.PingContext); err != nil {
			db.Close()
			return nil, err
		}
		if err := pgstore.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		b.sql = db
		return b, nil

	case "redis":
		client, err := redisClient(cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := retryPing(ctx, "redis", func(ctx context.Context) error { return client.Ping(ctx).Err() }); err != nil {
			client.Close()
			return nil, err
		}
		b.redis = client
		return b, nil
	}
	return nil, fmt.Errorf("unsupported database type %q", cfg.Database.Type)
}

func redisClient(db config.Database) (*redis.Client, error) {
	if db.ConnectionString != "" {
		opts, err := redis.ParseURL(db.ConnectionString)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     db.Host,
		Username: db.Username,
		Password: db.Password,
		DB:       db.RedisDB,
	}), nil
}

// NewCollection returns the collection called name on b's backend. For
// MongoDB the indexes are created on the way; failing to do so is logged
// and not fatal.
func NewCollection[R any](b *Backend, name string) store.Collection[R] {
	switch {
	case b.mongoDB != nil:
		c := mongostore.NewCollection[R](b.mongoDB.Collection(name))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.EnsureIndexes(ctx); err != nil {
			logger.Sugar.Errorf("Failed to create indexes on %s: %v", name, err)
		}
		return c
	case b.sql != nil:
		return pgstore.NewCollection[R](b.sql, name)
	case b.redis != nil:
		return redisstore.NewCollection[R](b.redis, name)
	default:
		if b.memory == nil {
			b.memory = memory.New()
		}
		return memory.NewCollection[R](b.memory, name)
	}
}

// Close releases every connection held by b.
func (b *Backend) Close(ctx context.Context) error {
	var err error
	if b.mongo != nil {
		err = multierr.Append(err, b.mongo.Disconnect(ctx))
	}
	if b.sql != nil {
		err = multierr.Append(err, b.sql.Close())
	}
	if b.redis != nil {
		err = multierr.Append(err, b.redis.Close())
	}
	return err
}
