package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/VictoriaMetrics/metrics"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/dine/entity"
	"github.com/jacentio/dine/internal/testmodels"
	"github.com/jacentio/dine/schema"
	"github.com/jacentio/dine/sink"
	"github.com/jacentio/dine/sink/memsink"
	"github.com/jacentio/dine/store"
)

var errUnreachable = errors.New("connection refused")

// recordingSink forwards to a backend and keeps every batch it saw.
type recordingSink struct {
	mu      sync.Mutex
	backend sink.Sink
	batches [][]sink.Command
	err     error
}

func (r *recordingSink) Exec(ctx context.Context, cmds []sink.Command) ([]sink.Reply, error) {
	r.mu.Lock()
	r.batches = append(r.batches, append([]sink.Command(nil), cmds...))
	r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.backend.Exec(ctx, cmds)
}

func (r *recordingSink) commands() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, b := range r.batches {
		n += len(b)
	}
	return n
}

type fixture struct {
	reg     *schema.Registry
	order   *schema.Schema
	profile *schema.Schema
	mem     *memsink.Sink
	rec     *recordingSink
	set     *metrics.Set
	store   *store.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg := testmodels.Registry()
	order, ok := schema.Of[testmodels.Order](reg)
	require.True(t, ok)
	profile, ok := schema.Of[testmodels.Profile](reg)
	require.True(t, ok)

	mem := memsink.New()
	rec := &recordingSink{backend: mem}
	set := metrics.NewSet()

	cfg := store.DefaultConfig()
	cfg.Metrics = set
	return &fixture{
		reg:     reg,
		order:   order,
		profile: profile,
		mem:     mem,
		rec:     rec,
		set:     set,
		store:   store.New(rec, cfg),
	}
}

func (f *fixture) write(t *testing.T, id string, v any) entity.Request {
	t.Helper()
	r, err := entity.Write(f.reg, id, v)
	require.NoError(t, err)
	return r
}

func (f *fixture) writeField(t *testing.T, id, field string, v any) entity.Request {
	t.Helper()
	r, err := entity.WriteField(id, f.order, field, v)
	require.NoError(t, err)
	return r
}

func (f *fixture) read(t *testing.T, id string) entity.Request {
	t.Helper()
	r, err := entity.Read(id, f.order)
	require.NoError(t, err)
	return r
}

func (f *fixture) readField(t *testing.T, id, field string) entity.Request {
	t.Helper()
	r, err := entity.ReadField(id, f.order, field)
	require.NoError(t, err)
	return r
}
