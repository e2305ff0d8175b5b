package memsink

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/dine/sink"
)

func TestSink_SetAndGet(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := sink.Begin(s).
		HSetAll("k", map[string]sink.Value{"a": sink.Int(1), "b": sink.String("x")}).
		HSetOne("k", "c", sink.Float(1.5)).
		Exec(ctx)
	require.NoError(t, err)

	replies, err := sink.Begin(s).
		HGetAll("k").
		HGetOne("k", "b").
		HGetOne("k", "zzz").
		HGetAll("missing").
		Exec(ctx)
	require.NoError(t, err)

	require.True(t, replies[0].Found)
	assert.Len(t, replies[0].Fields, 3)
	assert.Equal(t, 1.5, replies[0].Fields["c"].Float())

	require.True(t, replies[1].Found)
	assert.Equal(t, "x", string(replies[1].Value.Bytes()))

	assert.False(t, replies[2].Found)
	assert.False(t, replies[3].Found)
}

func TestSink_CommandsApplyInOrder(t *testing.T) {
	ctx := context.Background()
	s := New()

	replies, err := sink.Begin(s).
		HSetOne("k", "a", sink.Int(1)).
		HGetOne("k", "a").
		HSetOne("k", "a", sink.Int(2)).
		HGetOne("k", "a").
		Delete("k").
		HGetAll("k").
		Exec(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1), replies[1].Value.Int())
	assert.Equal(t, int64(2), replies[3].Value.Int())
	assert.False(t, replies[5].Found)
}

func TestSink_DeletingLastFieldRemovesHash(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := sink.Begin(s).
		HSetAll("k", map[string]sink.Value{"a": sink.Int(1), "b": sink.Int(2)}).
		HDelOne("k", "a").
		Exec(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())

	_, err = sink.Begin(s).HDelOne("k", "b").HDelOne("nope", "x").Exec(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
	assert.Nil(t, s.Dump("k"))
}

func TestSink_EmptySetAllIsNoop(t *testing.T) {
	s := New()
	_, err := sink.Begin(s).HSetAll("k", map[string]sink.Value{}).Exec(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestSink_RepliesDoNotAliasStorage(t *testing.T) {
	ctx := context.Background()
	s := New()
	payload := []byte("abc")

	_, err := sink.Begin(s).HSetOne("k", "f", sink.Bytes(payload)).Exec(ctx)
	require.NoError(t, err)
	payload[0] = 'z'

	replies, err := sink.Begin(s).HGetOne("k", "f").Exec(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(replies[0].Value.Bytes()))

	replies[0].Value.Bytes()[0] = 'q'
	assert.Equal(t, "abc", string(s.Dump("k")["f"].Bytes()))
}

func TestSink_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New()
	_, err := sink.Begin(s).HSetOne("k", "f", sink.Int(1)).Exec(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, s.Len())
}

func TestSink_ConcurrentFieldWrites(t *testing.T) {
	ctx := context.Background()
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			field := fmt.Sprintf("f%d", i)
			_, err := sink.Begin(s).HSetOne("k", field, sink.Int(int64(i))).Exec(ctx)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.Dump("k"), 64)
}

func TestSink_Flush(t *testing.T) {
	s := New()
	_, err := sink.Begin(s).
		HSetOne("a", "f", sink.Int(1)).
		HSetOne("b", "f", sink.Int(1)).
		Exec(context.Background())
	require.NoError(t, err)

	s.Flush()
	assert.Equal(t, 0, s.Len())
}

func TestSink_ReplaceDropsStaleFields(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := sink.Begin(s).
		HSetAll("k", map[string]sink.Value{"a": sink.Int(1), "b": sink.Int(2)}).
		Exec(ctx)
	require.NoError(t, err)

	replies, err := sink.Begin(s).
		HReplace("k", map[string]sink.Value{"a": sink.Int(3)}).
		HGetAll("k").
		Exec(ctx)
	require.NoError(t, err)
	require.Len(t, replies, 3)

	require.True(t, replies[2].Found)
	assert.Equal(t, map[string]sink.Value{"a": sink.Int(3)}, replies[2].Fields)
}

func TestSink_ReplaceWithoutFieldsDeletes(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := sink.Begin(s).
		HSetOne("k", "a", sink.Int(1)).
		HReplace("k", map[string]sink.Value{}).
		Exec(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}
