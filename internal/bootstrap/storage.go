// Package bootstrap wires configured infrastructure for the binaries.
package bootstrap

import (
	"context"
	"log"

	"github.com/pkg/errors"

	"github.com/example/shop-pos/internal/config"
	"github.com/example/shop-pos/internal/infrastructure/store"
)

// OpenDocumentStore connects the backend named by cfg.Storage.Driver. The
// returned close func releases its connection and is never nil.
func OpenDocumentStore(ctx context.Context, cfg config.Storage) (store.DocumentStore, func(), error) {
	noop := func() {}

	switch cfg.Driver {
	case config.DriverMemory:
		log.Println("[Storage] Using in-memory documents (data is lost on exit)")
		return store.NewMemoryStore(), noop, nil

	case config.DriverFile:
		fs, err := store.NewFileStore(cfg.Dir)
		if err != nil {
			return nil, noop, err
		}
		log.Printf("[Storage] Using JSON files in %s", cfg.Dir)
		return fs, noop, nil

	case config.DriverPostgres:
		db, err := store.ConnectPostgres(cfg.Postgres.DSN)
		if err != nil {
			return nil, noop, err
		}
		ps := store.NewPostgresStore(db)
		if err := ps.Migrate(ctx); err != nil {
			db.Close()
			return nil, noop, err
		}
		log.Println("[Storage] Connected to PostgreSQL")
		return ps, func() { db.Close() }, nil

	case config.DriverDynamo:
		client, err := store.NewDynamoClient(ctx, cfg.Dynamo.Region, cfg.Dynamo.Endpoint)
		if err != nil {
			return nil, noop, err
		}
		log.Printf("[Storage] Using DynamoDB table %s", cfg.Dynamo.Table)
		return store.NewDynamoStore(client, cfg.Dynamo.Table), noop, nil

	case config.DriverMongo:
		client, err := store.ConnectMongo(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, noop, err
		}
		collection := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
		log.Printf("[Storage] Connected to MongoDB %s.%s", cfg.Mongo.Database, cfg.Mongo.Collection)
		return store.NewMongoStore(collection), func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Printf("[Storage] MongoDB disconnect: %v", err)
			}
		}, nil
	}

	return nil, noop, errors.Errorf("unknown storage driver %q", cfg.Driver)
}
