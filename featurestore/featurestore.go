// Package featurestore serves features from an online store.
//
// Every operation comes in a blocking form, which must not be called with the
// context of an active bridge scheduler, and an Async form returning a future.
package featurestore

import (
	"context"
	"fmt"

	"github.com/jacentio/dine/bridge"
	"github.com/jacentio/dine/entity"
	"github.com/jacentio/dine/store"
)

// Features is the served form of one record.
type Features = map[string]any

// Featurizer is implemented by records that derive their own features.
type Featurizer interface {
	Featurize() Features
}

// FeatureStore reads and writes features through an online store.
type FeatureStore struct {
	online *store.Store
}

// New creates a FeatureStore on top of an online store.
func New(online *store.Store) *FeatureStore {
	return &FeatureStore{online: online}
}

// Online returns the underlying store.
func (fs *FeatureStore) Online() *store.Store {
	return fs.online
}

// GetOnlineFeatures retrieves features for each request. Whole records are
// featurized with Featurize when they implement Featurizer and rendered as a
// field map otherwise. Single fields come back as {field: value}. Missing
// records and fields leave a nil slot.
func (fs *FeatureStore) GetOnlineFeatures(ctx context.Context, reqs []entity.Request) ([]Features, error) {
	return bridge.Block(ctx, fs.get(reqs))
}

// GetOnlineFeaturesAsync is the non-blocking form of GetOnlineFeatures.
func (fs *FeatureStore) GetOnlineFeaturesAsync(ctx context.Context, reqs []entity.Request) *bridge.Future[[]Features] {
	return bridge.Go(ctx, fs.get(reqs))
}

// PutOnlineFeatures writes records and fields.
func (fs *FeatureStore) PutOnlineFeatures(ctx context.Context, reqs []entity.Request) error {
	_, err := bridge.Block(ctx, fs.put(reqs))
	return err
}

// PutOnlineFeaturesAsync is the non-blocking form of PutOnlineFeatures.
func (fs *FeatureStore) PutOnlineFeaturesAsync(ctx context.Context, reqs []entity.Request) *bridge.Future[struct{}] {
	return bridge.Go(ctx, fs.put(reqs))
}

// DelOnlineFeatures removes records and fields.
func (fs *FeatureStore) DelOnlineFeatures(ctx context.Context, reqs []entity.Request) error {
	_, err := bridge.Block(ctx, fs.del(reqs))
	return err
}

// DelOnlineFeaturesAsync is the non-blocking form of DelOnlineFeatures.
func (fs *FeatureStore) DelOnlineFeaturesAsync(ctx context.Context, reqs []entity.Request) *bridge.Future[struct{}] {
	return bridge.Go(ctx, fs.del(reqs))
}

func (fs *FeatureStore) get(reqs []entity.Request) bridge.Op[[]Features] {
	return func(ctx context.Context) ([]Features, error) {
		results, err := fs.online.Retrieve(ctx, reqs)
		if err != nil {
			return nil, err
		}

		out := make([]Features, len(results))
		for i, res := range results {
			if !res.Found() {
				continue
			}
			features, err := featurize(reqs[i], res.Value())
			if err != nil {
				return nil, err
			}
			out[i] = features
		}
		return out, nil
	}
}

func (fs *FeatureStore) put(reqs []entity.Request) bridge.Op[struct{}] {
	return func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fs.online.Put(ctx, reqs)
	}
}

func (fs *FeatureStore) del(reqs []entity.Request) bridge.Op[struct{}] {
	return func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fs.online.Remove(ctx, reqs)
	}
}

func featurize(r entity.Request, v any) (Features, error) {
	if r.Partial() {
		return Features{r.Field(): v}, nil
	}
	if f, ok := v.(Featurizer); ok {
		return f.Featurize(), nil
	}
	features, err := r.Schema().Map(v)
	if err != nil {
		return nil, fmt.Errorf("featurize %s: %w", r, err)
	}
	return features, nil
}
