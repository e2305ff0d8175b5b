// Package dynamosink stores hash maps in a DynamoDB table.
//
// Every store key is one item, addressed by a binary partition key. Every
// field of the hash is one attribute of the item, named by [FieldAttr].
// Items that hold no field attributes read as absent.
//
// Table schema:
//   - Partition key: pk (binary) - the store key
//
// Create the table with [CreateTable] or:
//
//	aws dynamodb create-table \
//	  --table-name dine_features \
//	  --attribute-definitions AttributeName=pk,AttributeType=B \
//	  --key-schema AttributeName=pk,KeyType=HASH \
//	  --billing-mode PAY_PER_REQUEST
package dynamosink

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"golang.org/x/sync/errgroup"

	"github.com/jacentio/dine/sink"
)

// DDBClient is the interface for DynamoDB operations.
type DDBClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Sink is a DynamoDB-backed hash-map store.
type Sink struct {
	client DDBClient
	config Config
}

// New creates a sink on an existing client.
func New(client DDBClient, config Config) *Sink {
	config.validate()
	return &Sink{
		client: client,
		config: config,
	}
}

// NewClient loads the AWS configuration and builds a DynamoDB client.
// The load options are passed through to config.LoadDefaultConfig.
func NewClient(ctx context.Context, cfg Config, optFns ...func(*awsconfig.LoadOptions) error) (*dynamodb.Client, error) {
	if cfg.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// Open builds a client with NewClient and returns a sink on it.
func Open(ctx context.Context, cfg Config, optFns ...func(*awsconfig.LoadOptions) error) (*Sink, error) {
	client, err := NewClient(ctx, cfg, optFns...)
	if err != nil {
		return nil, err
	}
	return New(client, cfg), nil
}

// Config returns the effective configuration.
func (s *Sink) Config() Config {
	return s.config
}

// --------------------------------------------------------------------------
// Interface Methods (docu see sink.Sink)
// --------------------------------------------------------------------------

// Exec runs the commands of each key in order and distinct keys
// concurrently. A Delete directly followed by an HSetAll of the same key is
// sent as one PutItem. On error the replies gathered so far are discarded.
func (s *Sink) Exec(ctx context.Context, cmds []sink.Command) ([]sink.Reply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var keys []string
	byKey := make(map[string][]int)
	for i, cmd := range cmds {
		if _, ok := byKey[cmd.Key]; !ok {
			keys = append(keys, cmd.Key)
		}
		byKey[cmd.Key] = append(byKey[cmd.Key], i)
	}

	replies := make([]sink.Reply, len(cmds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Concurrency)

	for _, key := range keys {
		indices := byKey[key]
		g.Go(func() error {
			for j := 0; j < len(indices); j++ {
				i := indices[j]
				if j+1 < len(indices) && sink.Replaces(cmds[i], cmds[indices[j+1]]) {
					if err := s.replace(gctx, cmds[i].Key, cmds[indices[j+1]].Fields); err != nil {
						return err
					}
					j++
					continue
				}
				reply, err := s.apply(gctx, cmds[i])
				if err != nil {
					return err
				}
				replies[i] = reply
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return replies, nil
}

// apply runs one command.
func (s *Sink) apply(ctx context.Context, cmd sink.Command) (sink.Reply, error) {
	switch cmd.Op {
	case sink.OpHSetAll:
		return sink.Reply{}, s.setFields(ctx, cmd.Key, cmd.Fields)
	case sink.OpHSetOne:
		return sink.Reply{}, s.setFields(ctx, cmd.Key, map[string]sink.Value{cmd.Field: cmd.Value})
	case sink.OpHGetAll:
		return s.getAll(ctx, cmd.Key)
	case sink.OpHGetOne:
		return s.getOne(ctx, cmd.Key, cmd.Field)
	case sink.OpHDelOne:
		return sink.Reply{}, s.deleteField(ctx, cmd.Key, cmd.Field)
	case sink.OpDelete:
		_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(s.config.Table),
			Key:       s.key(cmd.Key),
		})
		return sink.Reply{}, err
	default:
		return sink.Reply{}, fmt.Errorf("dynamosink: unsupported command %s", cmd.Op)
	}
}

func (s *Sink) key(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		s.config.KeyAttribute: &types.AttributeValueMemberB{Value: []byte(key)},
	}
}

// setFields merges fields into the item with one UpdateItem call.
func (s *Sink) setFields(ctx context.Context, key string, fields map[string]sink.Value) error {
	if len(fields) == 0 {
		return nil
	}

	// Sorted for stable expressions.
	names := make([]string, 0, len(fields))
	for field := range fields {
		names = append(names, field)
	}
	sort.Strings(names)

	exprNames := make(map[string]string, len(names))
	exprValues := make(map[string]types.AttributeValue, len(names))
	sets := make([]string, 0, len(names))
	for i, field := range names {
		av, err := toAttr(fields[field])
		if err != nil {
			return err
		}
		n, v := fmt.Sprintf("#f%d", i), fmt.Sprintf(":v%d", i)
		exprNames[n] = FieldAttr(field)
		exprValues[v] = av
		sets = append(sets, n+" = "+v)
	}

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.config.Table),
		Key:                       s.key(key),
		UpdateExpression:          aws.String("SET " + strings.Join(sets, ", ")),
		ExpressionAttributeNames:  exprNames,
		ExpressionAttributeValues: exprValues,
	})
	return err
}

// replace writes the item holding exactly fields with one PutItem call.
// Without fields the item is deleted.
func (s *Sink) replace(ctx context.Context, key string, fields map[string]sink.Value) error {
	if len(fields) == 0 {
		_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(s.config.Table),
			Key:       s.key(key),
		})
		return err
	}

	item := s.key(key)
	for field, v := range fields {
		av, err := toAttr(v)
		if err != nil {
			return err
		}
		item[FieldAttr(field)] = av
	}
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.config.Table),
		Item:      item,
	})
	return err
}

func (s *Sink) getAll(ctx context.Context, key string) (sink.Reply, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.config.Table),
		Key:            s.key(key),
		ConsistentRead: aws.Bool(s.config.ConsistentRead),
	})
	if err != nil {
		return sink.Reply{}, err
	}
	if result.Item == nil {
		return sink.Reply{}, nil
	}

	fields, err := FieldsFromItem(result.Item, s.config.KeyAttribute)
	if err != nil {
		return sink.Reply{}, err
	}
	if len(fields) == 0 {
		return sink.Reply{}, nil
	}
	return sink.Reply{Found: true, Fields: fields}, nil
}

func (s *Sink) getOne(ctx context.Context, key, field string) (sink.Reply, error) {
	attr := FieldAttr(field)
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:                aws.String(s.config.Table),
		Key:                      s.key(key),
		ConsistentRead:           aws.Bool(s.config.ConsistentRead),
		ProjectionExpression:     aws.String("#f"),
		ExpressionAttributeNames: map[string]string{"#f": attr},
	})
	if err != nil {
		return sink.Reply{}, err
	}

	av, ok := result.Item[attr]
	if !ok {
		return sink.Reply{}, nil
	}
	v, err := FromAttr(av)
	if err != nil {
		return sink.Reply{}, err
	}
	return sink.Reply{Found: true, Value: v}, nil
}

// deleteField removes one attribute. A missing item is not an error.
func (s *Sink) deleteField(ctx context.Context, key, field string) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.config.Table),
		Key:                 s.key(key),
		UpdateExpression:    aws.String("REMOVE #f"),
		ConditionExpression: aws.String("attribute_exists(#k)"),
		ExpressionAttributeNames: map[string]string{
			"#f": FieldAttr(field),
			"#k": s.config.KeyAttribute,
		},
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return nil
		}
		return err
	}
	return nil
}
