package dynamosink

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// TableClient is the interface for table management operations.
type TableClient interface {
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	DeleteTable(ctx context.Context, params *dynamodb.DeleteTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteTableOutput, error)
}

// CreateTable provisions the sink table with on-demand billing and a
// NEW_AND_OLD_IMAGES stream for the change feed. A positive wait blocks
// until the table is active.
func CreateTable(ctx context.Context, client TableClient, cfg Config, wait time.Duration) error {
	cfg.validate()

	_, err := client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(cfg.Table),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(cfg.KeyAttribute), KeyType: types.KeyTypeHash},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(cfg.KeyAttribute), AttributeType: types.ScalarAttributeTypeB},
		},
		BillingMode: types.BillingModePayPerRequest,
		StreamSpecification: &types.StreamSpecification{
			StreamEnabled:  aws.Bool(true),
			StreamViewType: types.StreamViewTypeNewAndOldImages,
		},
	})
	if err != nil {
		return fmt.Errorf("create table %s: %w", cfg.Table, err)
	}

	if wait <= 0 {
		return nil
	}
	waiter := dynamodb.NewTableExistsWaiter(client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(cfg.Table),
	}, wait); err != nil {
		return fmt.Errorf("wait for table %s: %w", cfg.Table, err)
	}
	return nil
}

// DeleteTable drops the sink table.
func DeleteTable(ctx context.Context, client TableClient, cfg Config) error {
	cfg.validate()

	_, err := client.DeleteTable(ctx, &dynamodb.DeleteTableInput{
		TableName: aws.String(cfg.Table),
	})
	if err != nil {
		return fmt.Errorf("delete table %s: %w", cfg.Table, err)
	}
	return nil
}
