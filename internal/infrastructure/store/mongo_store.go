package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore stores documents in one MongoDB collection, one record per key
type MongoStore struct {
	collection *mongo.Collection
}

type mongoDocument struct {
	Key     string    `bson:"_id"`
	State   string    `bson:"state"`
	SavedAt time.Time `bson:"saved_at"`
}

func NewMongoStore(collection *mongo.Collection) *MongoStore {
	return &MongoStore{collection: collection}
}

// ConnectMongo connects to uri and verifies the connection
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connect mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, errors.Wrap(err, "ping mongo")
	}
	return client, nil
}

// Load decodes the record stored under key into dst
func (ms *MongoStore) Load(ctx context.Context, key string, dst any) (bool, error) {
	var record mongoDocument
	err := ms.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "find document %s", key)
	}

	doc := Document{
		Key:     record.Key,
		State:   json.RawMessage(record.State),
		SavedAt: record.SavedAt,
	}
	if err := doc.Decode(dst); err != nil {
		return false, err
	}
	return true, nil
}

// Save replaces the record stored under key, inserting it if missing
func (ms *MongoStore) Save(ctx context.Context, key string, src any) error {
	doc, err := NewDocument(key, src)
	if err != nil {
		return err
	}

	record := mongoDocument{
		Key:     doc.Key,
		State:   string(doc.State),
		SavedAt: doc.SavedAt,
	}
	_, err = ms.collection.ReplaceOne(ctx,
		bson.M{"_id": key},
		record,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return errors.Wrapf(err, "replace document %s", key)
	}
	return nil
}
