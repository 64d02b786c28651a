package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pkg/errors"
)

// DynamoStore stores documents in a DynamoDB table keyed by "doc_key".
type DynamoStore struct {
	client    *dynamodb.Client
	tableName string
}

// dynamoDocument represents the DynamoDB item structure
type dynamoDocument struct {
	Key     string `dynamodbav:"doc_key"`
	State   string `dynamodbav:"state"`
	SavedAt string `dynamodbav:"saved_at"`
}

func NewDynamoStore(client *dynamodb.Client, tableName string) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
	}
}

// NewDynamoClient builds a DynamoDB client from the default AWS credential
// chain. A non-empty endpoint overrides the service URL (DynamoDB Local).
func NewDynamoClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}

	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// Load decodes the item stored under key into dst
func (ds *DynamoStore) Load(ctx context.Context, key string, dst any) (bool, error) {
	result, err := ds.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(ds.tableName),
		Key: map[string]types.AttributeValue{
			"doc_key": &types.AttributeValueMemberS{Value: key},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return false, errors.Wrapf(err, "get document %s", key)
	}

	if result.Item == nil {
		return false, nil // Nothing saved yet
	}

	var item dynamoDocument
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return false, errors.Wrapf(err, "unmarshal document %s", key)
	}

	savedAt, _ := time.Parse(time.RFC3339Nano, item.SavedAt)
	doc := Document{
		Key:     item.Key,
		State:   json.RawMessage(item.State),
		SavedAt: savedAt,
	}
	if err := doc.Decode(dst); err != nil {
		return false, err
	}
	return true, nil
}

// Save overwrites the item stored under key (no condition)
func (ds *DynamoStore) Save(ctx context.Context, key string, src any) error {
	doc, err := NewDocument(key, src)
	if err != nil {
		return err
	}

	item := dynamoDocument{
		Key:     doc.Key,
		State:   string(doc.State),
		SavedAt: doc.SavedAt.Format(time.RFC3339Nano),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return errors.Wrapf(err, "marshal document %s", key)
	}

	_, err = ds.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(ds.tableName),
		Item:      av,
	})
	if err != nil {
		return errors.Wrapf(err, "put document %s", key)
	}
	return nil
}
