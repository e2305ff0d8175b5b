// Package memsink implements an in-process hash-map sink.
//
// It follows the semantics of a remote hash-map store closely enough to serve
// as a test double and as an embedded backend: commands in a batch are
// applied in order, every single-hash command is atomic, and a hash without
// fields does not exist.
package memsink

import (
	"context"
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/jacentio/dine/sink"
)

type hash = map[string]sink.Value

// Sink is an in-memory hash-map store. It is safe for concurrent use.
type Sink struct {
	data *xsync.MapOf[string, hash]
}

// New creates an empty in-memory sink.
func New() *Sink {
	return &Sink{
		data: xsync.NewMapOf[string, hash](),
	}
}

// Len returns the number of stored hashes.
func (s *Sink) Len() int {
	return s.data.Size()
}

// Flush removes every stored hash.
func (s *Sink) Flush() {
	s.data.Clear()
}

// Dump returns a copy of the hash at key, or nil if it does not exist.
func (s *Sink) Dump(key string) map[string]sink.Value {
	h, ok := s.data.Load(key)
	if !ok {
		return nil
	}
	return sink.CloneFields(h)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see sink.Sink)
// --------------------------------------------------------------------------

func (s *Sink) Exec(ctx context.Context, cmds []sink.Command) ([]sink.Reply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	replies := make([]sink.Reply, len(cmds))
	for i := 0; i < len(cmds); i++ {
		cmd := cmds[i]
		if i+1 < len(cmds) && sink.Replaces(cmd, cmds[i+1]) {
			s.replace(cmd.Key, cmds[i+1].Fields)
			i++
			continue
		}
		switch cmd.Op {
		case sink.OpHSetAll:
			s.setFields(cmd.Key, cmd.Fields)
		case sink.OpHSetOne:
			s.setFields(cmd.Key, map[string]sink.Value{cmd.Field: cmd.Value})
		case sink.OpHGetAll:
			if h, ok := s.data.Load(cmd.Key); ok {
				replies[i] = sink.Reply{Found: true, Fields: sink.CloneFields(h)}
			}
		case sink.OpHGetOne:
			if h, ok := s.data.Load(cmd.Key); ok {
				if v, ok := h[cmd.Field]; ok {
					replies[i] = sink.Reply{Found: true, Value: v.Clone()}
				}
			}
		case sink.OpHDelOne:
			s.deleteField(cmd.Key, cmd.Field)
		case sink.OpDelete:
			s.data.Delete(cmd.Key)
		default:
			return nil, fmt.Errorf("memsink: unsupported command %s", cmd.Op)
		}
	}
	return replies, nil
}

// setFields merges fields into the hash at key, creating it if needed.
// Hashes are replaced copy-on-write so readers never observe a partial update.
func (s *Sink) setFields(key string, fields map[string]sink.Value) {
	if len(fields) == 0 {
		return
	}
	s.data.Compute(key, func(old hash, loaded bool) (hash, bool) {
		next := make(hash, len(old)+len(fields))
		for k, v := range old {
			next[k] = v
		}
		for k, v := range fields {
			next[k] = v.Clone()
		}
		return next, false
	})
}

// replace swaps the hash at key for fields in one step.
func (s *Sink) replace(key string, fields map[string]sink.Value) {
	if len(fields) == 0 {
		s.data.Delete(key)
		return
	}
	s.data.Store(key, sink.CloneFields(fields))
}

// deleteField removes one field and drops the hash once it is empty.
func (s *Sink) deleteField(key, field string) {
	s.data.Compute(key, func(old hash, loaded bool) (hash, bool) {
		if !loaded {
			return nil, true
		}
		if _, ok := old[field]; !ok {
			return old, false
		}
		next := make(hash, len(old))
		for k, v := range old {
			if k != field {
				next[k] = v
			}
		}
		return next, len(next) == 0
	})
}
