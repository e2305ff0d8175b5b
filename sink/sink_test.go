package sink_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/dine/sink"
)

type recordingSink struct {
	got     []sink.Command
	replies []sink.Reply
	err     error
}

func (r *recordingSink) Exec(_ context.Context, cmds []sink.Command) ([]sink.Reply, error) {
	r.got = append(r.got, cmds...)
	if r.err != nil {
		return nil, r.err
	}
	if r.replies != nil {
		return r.replies, nil
	}
	return make([]sink.Reply, len(cmds)), nil
}

func TestPipeline_QueuesInOrder(t *testing.T) {
	rec := &recordingSink{}
	p := sink.Begin(rec).
		HSetAll("k1", map[string]sink.Value{"f": sink.Int(1)}).
		HSetOne("k1", "g", sink.String("x")).
		HGetAll("k2").
		HGetOne("k2", "f").
		HDelOne("k3", "f").
		Delete("k4")

	require.Equal(t, 6, p.Len())

	replies, err := p.Exec(context.Background())
	require.NoError(t, err)
	require.Len(t, replies, 6)

	ops := make([]sink.Op, 0, len(rec.got))
	for _, c := range rec.got {
		ops = append(ops, c.Op)
	}
	assert.Equal(t, []sink.Op{
		sink.OpHSetAll, sink.OpHSetOne, sink.OpHGetAll,
		sink.OpHGetOne, sink.OpHDelOne, sink.OpDelete,
	}, ops)
	assert.Equal(t, "g", rec.got[1].Field)
	assert.Equal(t, "k4", rec.got[5].Key)
}

func TestPipeline_HReplace(t *testing.T) {
	rec := &recordingSink{}
	fields := map[string]sink.Value{"f": sink.Int(1)}
	p := sink.Begin(rec).HReplace("k", fields)
	require.Equal(t, 2, p.Len())

	_, err := p.Exec(context.Background())
	require.NoError(t, err)

	require.Len(t, rec.got, 2)
	assert.Equal(t, sink.OpDelete, rec.got[0].Op)
	assert.Equal(t, sink.OpHSetAll, rec.got[1].Op)
	assert.Equal(t, fields, rec.got[1].Fields)
	assert.True(t, sink.Replaces(rec.got[0], rec.got[1]))
}

func TestReplaces(t *testing.T) {
	del := sink.Command{Op: sink.OpDelete, Key: "k"}
	set := sink.Command{Op: sink.OpHSetAll, Key: "k"}

	assert.True(t, sink.Replaces(del, set))
	assert.False(t, sink.Replaces(set, del))
	assert.False(t, sink.Replaces(del, sink.Command{Op: sink.OpHSetAll, Key: "other"}))
	assert.False(t, sink.Replaces(del, sink.Command{Op: sink.OpHSetOne, Key: "k"}))
}

func TestPipeline_EmptyDoesNotReachSink(t *testing.T) {
	rec := &recordingSink{err: errors.New("must not be called")}
	replies, err := sink.Begin(rec).Exec(context.Background())
	require.NoError(t, err)
	assert.Nil(t, replies)
	assert.Empty(t, rec.got)
}

func TestPipeline_PropagatesSinkError(t *testing.T) {
	boom := errors.New("connection refused")
	rec := &recordingSink{err: boom}
	_, err := sink.Begin(rec).Delete("k").Exec(context.Background())
	assert.Same(t, boom, err)
}

func TestPipeline_ReplyMismatch(t *testing.T) {
	rec := &recordingSink{replies: []sink.Reply{{}}}
	_, err := sink.Begin(rec).Delete("a").Delete("b").Exec(context.Background())
	assert.ErrorIs(t, err, sink.ErrReplyMismatch)
}

func TestValue_Scalars(t *testing.T) {
	assert.Equal(t, int64(-42), sink.Int(-42).Int())
	assert.Equal(t, sink.KindInt, sink.Int(1).Kind())
	assert.Equal(t, 12.34, sink.Float(12.34).Float())
	assert.True(t, math.IsInf(sink.Float(math.Inf(1)).Float(), 1))
	assert.True(t, sink.Bool(true).Bool())
	assert.False(t, sink.Bool(false).Bool())
	assert.Equal(t, []byte("abc"), sink.String("abc").Bytes())
}

func TestValue_Text(t *testing.T) {
	tests := []struct {
		v    sink.Value
		want string
	}{
		{sink.Int(12), "12"},
		{sink.Float(11.22), "11.22"},
		{sink.Bool(true), "true"},
		{sink.String("buyer@good.store"), "buyer@good.store"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.v.Text())
	}
}

func TestValue_EqualAndClone(t *testing.T) {
	b := []byte("abc")
	v := sink.Bytes(b)
	c := v.Clone()
	b[0] = 'z'

	assert.Equal(t, "abc", string(c.Bytes()))
	assert.False(t, v.Equal(c))
	assert.True(t, sink.Int(1).Equal(sink.Int(1)))
	assert.False(t, sink.Int(1).Equal(sink.Bool(true)))
	assert.True(t, sink.Value{}.Equal(sink.Bytes(nil)))
}

func TestOp(t *testing.T) {
	assert.True(t, sink.OpHGetAll.IsRead())
	assert.True(t, sink.OpHGetOne.IsRead())
	assert.False(t, sink.OpDelete.IsRead())
	assert.Equal(t, "HSETALL", sink.OpHSetAll.String())
	assert.Equal(t, "UNKNOWN", sink.Op(0).String())
}
