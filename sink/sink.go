// Package sink defines the command surface of the backing hash-map store.
//
// A sink stores hash maps addressed by binary keys. Commands are queued on a
// [Pipeline] and sent to the sink in one batch; replies come back aligned
// with the queued commands. A hash whose last field is removed stops
// existing, so reading it reports it as absent.
package sink

import (
	"context"
	"errors"
	"fmt"
)

// ErrReplyMismatch is returned when a sink answers a batch with the wrong number of replies.
var ErrReplyMismatch = errors.New("dine: sink reply count does not match command count")

// Op identifies a hash-map command.
type Op uint8

const (
	OpHSetAll Op = iota + 1 // set several fields of a hash
	OpHSetOne               // set one field of a hash
	OpHGetAll               // read a whole hash
	OpHGetOne               // read one field of a hash
	OpHDelOne               // delete one field of a hash
	OpDelete                // delete a whole hash
)

func (o Op) String() string {
	switch o {
	case OpHSetAll:
		return "HSETALL"
	case OpHSetOne:
		return "HSETONE"
	case OpHGetAll:
		return "HGETALL"
	case OpHGetOne:
		return "HGETONE"
	case OpHDelOne:
		return "HDELONE"
	case OpDelete:
		return "DEL"
	default:
		return "UNKNOWN"
	}
}

// IsRead reports whether the command only reads.
func (o Op) IsRead() bool {
	return o == OpHGetAll || o == OpHGetOne
}

// Replaces reports whether del and set form a replacement of one hash: a
// Delete directly followed by an HSetAll of the same key.
func Replaces(del, set Command) bool {
	return del.Op == OpDelete && set.Op == OpHSetAll && del.Key == set.Key
}

// Command is one queued hash-map operation.
type Command struct {
	Op Op

	// Key is the binary store key of the hash.
	Key string

	// Field is the binary field key for single-field commands.
	Field string

	// Value is the payload of OpHSetOne.
	Value Value

	// Fields is the payload of OpHSetAll.
	Fields map[string]Value
}

// Reply is the outcome of one command.
// Write commands reply with the zero Reply.
type Reply struct {
	// Found is false when the key (or field) does not exist.
	Found bool

	// Value is set for OpHGetOne.
	Value Value

	// Fields is set for OpHGetAll.
	Fields map[string]Value
}

// Sink executes a batch of commands in one round trip.
// Commands on the same key are applied in submission order.
// Errors are returned as produced by the underlying store.
type Sink interface {
	Exec(ctx context.Context, cmds []Command) ([]Reply, error)
}

// Pipeline queues commands for a single batch.
type Pipeline struct {
	sink Sink
	cmds []Command
}

// Begin starts a new pipeline against s.
func Begin(s Sink) *Pipeline {
	return &Pipeline{sink: s}
}

// HSetAll queues setting every field in fields on key.
func (p *Pipeline) HSetAll(key string, fields map[string]Value) *Pipeline {
	p.cmds = append(p.cmds, Command{Op: OpHSetAll, Key: key, Fields: fields})
	return p
}

// HSetOne queues setting a single field on key.
func (p *Pipeline) HSetOne(key, field string, v Value) *Pipeline {
	p.cmds = append(p.cmds, Command{Op: OpHSetOne, Key: key, Field: field, Value: v})
	return p
}

// HGetAll queues reading the whole hash at key.
func (p *Pipeline) HGetAll(key string) *Pipeline {
	p.cmds = append(p.cmds, Command{Op: OpHGetAll, Key: key})
	return p
}

// HGetOne queues reading a single field of key.
func (p *Pipeline) HGetOne(key, field string) *Pipeline {
	p.cmds = append(p.cmds, Command{Op: OpHGetOne, Key: key, Field: field})
	return p
}

// HDelOne queues deleting a single field of key.
func (p *Pipeline) HDelOne(key, field string) *Pipeline {
	p.cmds = append(p.cmds, Command{Op: OpHDelOne, Key: key, Field: field})
	return p
}

// Delete queues deleting the whole hash at key.
func (p *Pipeline) Delete(key string) *Pipeline {
	p.cmds = append(p.cmds, Command{Op: OpDelete, Key: key})
	return p
}

// HReplace queues replacing the hash at key with exactly fields. It queues a
// Delete followed by an HSetAll; sinks that can apply the pair atomically do
// so, see [Replaces].
func (p *Pipeline) HReplace(key string, fields map[string]Value) *Pipeline {
	return p.Delete(key).HSetAll(key, fields)
}

// Len returns the number of queued commands.
func (p *Pipeline) Len() int {
	return len(p.cmds)
}

// Commands returns the queued commands.
func (p *Pipeline) Commands() []Command {
	return p.cmds
}

// Exec sends the queued commands and returns one reply per command.
// An empty pipeline does not reach the sink.
func (p *Pipeline) Exec(ctx context.Context) ([]Reply, error) {
	if len(p.cmds) == 0 {
		return nil, nil
	}
	replies, err := p.sink.Exec(ctx, p.cmds)
	if err != nil {
		return nil, err
	}
	if len(replies) != len(p.cmds) {
		return nil, fmt.Errorf("%w: sent %d, got %d", ErrReplyMismatch, len(p.cmds), len(replies))
	}
	return replies, nil
}
