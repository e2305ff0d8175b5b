//go:build e2e

// Package e2e contains end-to-end integration tests using a real DynamoDB table.
// Run with: go test -tags=e2e -v ./e2e/...
//
// DINE_E2E_PROFILE selects a shared AWS profile. DINE_E2E_ENDPOINT points the
// suite at DynamoDB Local instead of AWS.
package e2e

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/dine/entity"
	"github.com/jacentio/dine/featurestore"
	"github.com/jacentio/dine/internal/testmodels"
	"github.com/jacentio/dine/schema"
	"github.com/jacentio/dine/sink"
	"github.com/jacentio/dine/sink/dynamosink"
	"github.com/jacentio/dine/store"
)

// Table name is unique per test run to avoid conflicts
const tablePrefix = "dine-e2e-test"

var (
	testID    string
	sinkCfg   dynamosink.Config
	ddbClient *dynamodb.Client

	registry  *schema.Registry
	orders    *schema.Schema
	profiles  *schema.Schema
	testSink  *dynamosink.Sink
	testStore *store.Store
	features  *featurestore.FeatureStore
)

// --- Test Setup & Teardown ---

func TestMain(m *testing.M) {
	testID = uuid.New().String()[:8]
	sinkCfg = dynamosink.DefaultConfig()
	sinkCfg.Table = fmt.Sprintf("%s-%s", tablePrefix, testID)

	fmt.Printf("Test ID: %s\n", testID)
	fmt.Printf("Table: %s\n", sinkCfg.Table)

	ctx := context.Background()
	var opts []func(*config.LoadOptions) error
	if profile := os.Getenv("DINE_E2E_PROFILE"); profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		fmt.Printf("Failed to load AWS config: %v\n", err)
		os.Exit(1)
	}

	ddbClient = dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint := os.Getenv("DINE_E2E_ENDPOINT"); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	fmt.Println("Creating test table...")
	if err := dynamosink.CreateTable(ctx, ddbClient, sinkCfg, 2*time.Minute); err != nil {
		fmt.Printf("Failed to create table: %v\n", err)
		os.Exit(1)
	}

	registry = testmodels.Registry()
	orders, _ = schema.Of[testmodels.Order](registry)
	profiles, _ = schema.Of[testmodels.Profile](registry)

	testSink = dynamosink.New(ddbClient, sinkCfg)
	testStore = store.New(testSink, store.DefaultConfig())
	features = featurestore.New(testStore)

	code := m.Run()

	fmt.Println("Deleting test table...")
	if err := dynamosink.DeleteTable(ctx, ddbClient, sinkCfg); err != nil {
		fmt.Printf("Warning: failed to delete table %s: %v\n", sinkCfg.Table, err)
	}

	os.Exit(code)
}

func newID() string {
	return "e2e:" + uuid.New().String()
}

// --- Store Tests ---

func TestPutRetrieve_FullRecord(t *testing.T) {
	ctx := context.Background()
	id := newID()
	order := testmodels.SampleOrder()
	code := "SPRING"
	order.DiscountCode = &code
	order.DiscountRate = 0.1

	require.NoError(t, testStore.Put(ctx, []entity.Request{
		entity.Must(entity.Write(registry, id, order)),
	}))

	res, err := testStore.Retrieve(ctx, []entity.Request{
		entity.Must(entity.Read(id, orders)),
		entity.Must(entity.Read(newID(), orders)),
	})
	require.NoError(t, err)
	require.Len(t, res, 2)

	got, ok := store.As[testmodels.Order](res[0])
	require.True(t, ok)
	if diff := cmp.Diff(order, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, res[1].Found())
}

func TestPartialOverwrite(t *testing.T) {
	ctx := context.Background()
	id := newID()
	order := testmodels.SampleOrder()

	require.NoError(t, testStore.Put(ctx, []entity.Request{entity.Must(entity.Write(registry, id, order))}))
	require.NoError(t, testStore.Put(ctx, []entity.Request{
		entity.Must(entity.WriteField(id, orders, "email", "other@email.com")),
		entity.Must(entity.WriteField(id, orders, "value", 11.22)),
	}))

	res, err := testStore.Retrieve(ctx, []entity.Request{
		entity.Must(entity.Read(id, orders)),
		entity.Must(entity.ReadField(id, orders, "email")),
		entity.Must(entity.ReadField(id, orders, "discount_code")),
	})
	require.NoError(t, err)

	want := order
	want.Email = "other@email.com"
	want.Value = 11.22

	got, ok := store.As[testmodels.Order](res[0])
	require.True(t, ok)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}

	email, ok := store.As[string](res[1])
	require.True(t, ok)
	assert.Equal(t, "other@email.com", email)
	assert.False(t, res[2].Found())
}

func TestDefaultsAndRemoveField(t *testing.T) {
	ctx := context.Background()
	id := newID()

	require.NoError(t, testStore.Put(ctx, []entity.Request{
		entity.Must(entity.Write(registry, id, testmodels.Profile{Name: "ada", Tier: "pro", Score: 99, Active: true})),
	}))
	require.NoError(t, testStore.Remove(ctx, []entity.Request{
		entity.Must(entity.ReadField(id, profiles, "tier")),
		entity.Must(entity.ReadField(id, profiles, "score")),
	}))

	res, err := testStore.Retrieve(ctx, []entity.Request{entity.Must(entity.Read(id, profiles))})
	require.NoError(t, err)

	got, ok := store.As[testmodels.Profile](res[0])
	require.True(t, ok)
	assert.Equal(t, testmodels.Profile{Name: "ada", Tier: "free", Score: 10, Active: true}, got)
}

func TestRemoveRecord(t *testing.T) {
	ctx := context.Background()
	id := newID()

	require.NoError(t, testStore.Put(ctx, []entity.Request{entity.Must(entity.Write(registry, id, testmodels.OtherOrder()))}))
	require.NoError(t, testStore.Remove(ctx, []entity.Request{entity.Must(entity.Read(id, orders))}))

	res, err := testStore.Retrieve(ctx, []entity.Request{entity.Must(entity.Read(id, orders))})
	require.NoError(t, err)
	assert.False(t, res[0].Found())

	// removing again is a no-op
	require.NoError(t, testStore.Remove(ctx, []entity.Request{entity.Must(entity.Read(id, orders))}))
}

func TestRemove_MissingDefaultLeavesRecord(t *testing.T) {
	ctx := context.Background()
	id := newID()

	require.NoError(t, testStore.Put(ctx, []entity.Request{entity.Must(entity.Write(registry, id, testmodels.SampleOrder()))}))

	err := testStore.Remove(ctx, []entity.Request{entity.Must(entity.ReadField(id, orders, "email"))})
	require.ErrorIs(t, err, store.ErrMissingDefault)

	res, err := testStore.Retrieve(ctx, []entity.Request{entity.Must(entity.ReadField(id, orders, "email"))})
	require.NoError(t, err)
	assert.True(t, res[0].Found())
}

// --- Sink Tests ---

func TestSink_CommandsOnOneKeyApplyInOrder(t *testing.T) {
	ctx := context.Background()
	key := entity.Must(entity.Read(newID(), orders)).Key()

	replies, err := sink.Begin(testSink).
		HSetOne(key, "a", sink.Int(1)).
		HSetOne(key, "a", sink.Int(2)).
		HGetOne(key, "a").
		HDelOne(key, "a").
		HGetAll(key).
		Exec(ctx)
	require.NoError(t, err)
	require.Len(t, replies, 5)

	assert.True(t, replies[2].Found)
	assert.Equal(t, int64(2), replies[2].Value.Int())
	assert.False(t, replies[4].Found)
}

// --- Feature Store Tests ---

func TestFeatureStore_BlockingAndAsync(t *testing.T) {
	ctx := context.Background()
	id := newID()
	order := testmodels.SampleOrder()

	require.NoError(t, features.PutOnlineFeatures(ctx, []entity.Request{entity.Must(entity.Write(registry, id, order))}))

	reqs := []entity.Request{
		entity.Must(entity.Read(id, orders)),
		entity.Must(entity.ReadField(id, orders, "email")),
	}
	blocking, err := features.GetOnlineFeatures(ctx, reqs)
	require.NoError(t, err)

	async, err := features.GetOnlineFeaturesAsync(ctx, reqs).Await(ctx)
	require.NoError(t, err)

	assert.Equal(t, blocking, async)
	assert.Equal(t, featurestore.Features(order.Featurize()), blocking[0])
	assert.Equal(t, featurestore.Features{"email": order.Email}, blocking[1])

	_, err = features.DelOnlineFeaturesAsync(ctx, reqs[:1]).Await(ctx)
	require.NoError(t, err)

	after, err := features.GetOnlineFeatures(ctx, reqs[:1])
	require.NoError(t, err)
	assert.Nil(t, after[0])
}
