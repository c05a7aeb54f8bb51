package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/ikkim/storefront-backend/pkg/logger"
)

const (
	dynamoKeyAttr       = "collection_key"
	dynamoDataAttr      = "data"
	dynamoUpdatedAtAttr = "updated_at"
)

// DynamoDBAPI is the subset of *dynamodb.Client used by the repository.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

type dynamoCollectionRepository struct {
	client DynamoDBAPI
	table  string
}

// NewDynamoCollectionRepository expects a table with string partition key "collection_key".
func NewDynamoCollectionRepository(client DynamoDBAPI, table string) CollectionRepository {
	return &dynamoCollectionRepository{client: client, table: table}
}

func (r *dynamoCollectionRepository) Load(ctx context.Context, key string) ([]byte, bool, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			dynamoKeyAttr: &types.AttributeValueMemberS{Value: key},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		logger.Error("Failed to load collection from DynamoDB", err, map[string]interface{}{
			"collection": key,
			"table":      r.table,
		})
		return nil, false, err
	}
	if len(out.Item) == 0 {
		return nil, false, nil
	}

	data, ok := out.Item[dynamoDataAttr].(*types.AttributeValueMemberS)
	if !ok {
		return nil, false, fmt.Errorf("collection %s: attribute %q is not a string", key, dynamoDataAttr)
	}
	return []byte(data.Value), true, nil
}

func (r *dynamoCollectionRepository) Save(ctx context.Context, key string, data []byte) error {
	_, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item: map[string]types.AttributeValue{
			dynamoKeyAttr:       &types.AttributeValueMemberS{Value: key},
			dynamoDataAttr:      &types.AttributeValueMemberS{Value: string(data)},
			dynamoUpdatedAtAttr: &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
	})
	if err != nil {
		logger.Error("Failed to save collection to DynamoDB", err, map[string]interface{}{
			"collection": key,
			"table":      r.table,
		})
		return err
	}
	return nil
}
