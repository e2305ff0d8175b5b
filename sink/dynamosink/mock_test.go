package dynamosink

import (
	"context"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockDDBClient is an in-memory DynamoDB mock for testing.
// It understands the expressions the sink generates.
type mockDDBClient struct {
	mu      sync.RWMutex
	keyAttr string
	items   map[string]map[string]types.AttributeValue // key -> item
	calls   []string
	err     error
}

func newMockDDBClient() *mockDDBClient {
	return &mockDDBClient{
		keyAttr: defaultKeyAttribute,
		items:   make(map[string]map[string]types.AttributeValue),
	}
}

func keyOf(key map[string]types.AttributeValue) string {
	for _, v := range key {
		return string(v.(*types.AttributeValueMemberB).Value)
	}
	return ""
}

func (m *mockDDBClient) record(op, key string) {
	m.calls = append(m.calls, op+" "+key)
}

func (m *mockDDBClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := keyOf(params.Key)
	m.record("get", key)
	if m.err != nil {
		return nil, m.err
	}

	item, ok := m.items[key]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}

	out := make(map[string]types.AttributeValue, len(item))
	if params.ProjectionExpression != nil {
		for _, name := range strings.Split(aws.ToString(params.ProjectionExpression), ",") {
			attr := params.ExpressionAttributeNames[strings.TrimSpace(name)]
			if v, ok := item[attr]; ok {
				out[attr] = v
			}
		}
		return &dynamodb.GetItemOutput{Item: out}, nil
	}
	for k, v := range item {
		out[k] = v
	}
	return &dynamodb.GetItemOutput{Item: out}, nil
}

func (m *mockDDBClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := string(params.Item[m.keyAttr].(*types.AttributeValueMemberB).Value)
	m.record("put", key)
	if m.err != nil {
		return nil, m.err
	}

	item := make(map[string]types.AttributeValue, len(params.Item))
	for k, v := range params.Item {
		item[k] = v
	}
	m.items[key] = item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDDBClient) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := keyOf(params.Key)
	m.record("update", key)
	if m.err != nil {
		return nil, m.err
	}

	item, exists := m.items[key]
	if params.ConditionExpression != nil && strings.HasPrefix(*params.ConditionExpression, "attribute_exists") && !exists {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
	}
	if !exists {
		item = make(map[string]types.AttributeValue)
		for k, v := range params.Key {
			item[k] = v
		}
		m.items[key] = item
	}

	expr := aws.ToString(params.UpdateExpression)
	switch {
	case strings.HasPrefix(expr, "SET "):
		for _, assign := range strings.Split(strings.TrimPrefix(expr, "SET "), ", ") {
			name, value, _ := strings.Cut(assign, " = ")
			item[params.ExpressionAttributeNames[name]] = params.ExpressionAttributeValues[value]
		}
	case strings.HasPrefix(expr, "REMOVE "):
		for _, name := range strings.Split(strings.TrimPrefix(expr, "REMOVE "), ", ") {
			delete(item, params.ExpressionAttributeNames[name])
		}
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (m *mockDDBClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := keyOf(params.Key)
	m.record("delete", key)
	if m.err != nil {
		return nil, m.err
	}
	delete(m.items, key)
	return &dynamodb.DeleteItemOutput{}, nil
}

// callsFor returns the recorded operations on one key, in order.
func (m *mockDDBClient) callsFor(key string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for _, c := range m.calls {
		op, k, _ := strings.Cut(c, " ")
		if k == key {
			out = append(out, op)
		}
	}
	return out
}
