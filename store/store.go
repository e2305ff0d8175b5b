package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jacentio/dine/codec"
	"github.com/jacentio/dine/entity"
	"github.com/jacentio/dine/sink"
)

// Store executes entity requests against a sink.
// It holds no record state and is safe for concurrent use.
type Store struct {
	sink    sink.Sink
	config  Config
	logger  *slog.Logger
	metrics *storeMetrics
}

// New creates a new Store instance.
func New(s sink.Sink, config Config) *Store {
	config.validate()
	return &Store{
		sink:    s,
		config:  config,
		logger:  config.Logger,
		metrics: newStoreMetrics(config.Metrics),
	}
}

// Sink returns the backing sink.
func (s *Store) Sink() sink.Sink {
	return s.sink
}

// Put writes whole records and single fields.
// Every request must be a write request. A whole record replaces whatever was
// stored under its key, so fields left at their default or unset no longer
// read back from an earlier write. A record whose fields all hold their
// defaults is stored as nothing and reads back as missing.
func (s *Store) Put(ctx context.Context, reqs []entity.Request) error {
	if err := s.check(opPut, reqs, entity.Kind.Write); err != nil {
		return err
	}
	if len(reqs) == 0 {
		return nil
	}

	p := sink.Begin(s.sink)
	for _, r := range reqs {
		switch r.Kind() {
		case entity.KindWriteFull:
			fields, err := codec.EncodeRecord(r.Schema(), r.Value())
			if err != nil {
				return fmt.Errorf("encode %s: %w", r, err)
			}
			p.HReplace(r.Key(), fields)

		case entity.KindWriteField:
			f, _ := r.FieldInfo()
			v, err := codec.EncodeField(r.Schema(), f, r.Reflect())
			if err != nil {
				return fmt.Errorf("encode %s: %w", r, err)
			}
			p.HSetOne(r.Key(), r.FieldKey(), v)
		}
	}

	_, err := s.exec(ctx, opPut, len(reqs), p)
	return err
}

// Retrieve reads whole records and single fields.
// Every request must be a reference. The results are aligned with reqs.
func (s *Store) Retrieve(ctx context.Context, reqs []entity.Request) ([]Result, error) {
	if err := s.check(opRetrieve, reqs, entity.Kind.Read); err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return []Result{}, nil
	}

	p := sink.Begin(s.sink)
	for _, r := range reqs {
		if r.Partial() {
			p.HGetOne(r.Key(), r.FieldKey())
		} else {
			p.HGetAll(r.Key())
		}
	}

	replies, err := s.exec(ctx, opRetrieve, len(reqs), p)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(reqs))
	for i, r := range reqs {
		reply := replies[i]
		if !reply.Found {
			s.metrics.missing.Inc()
			continue
		}

		if r.Partial() {
			f, _ := r.FieldInfo()
			v, err := codec.DecodeField(r.Schema(), f, reply.Value)
			if err != nil {
				return nil, fmt.Errorf("decode %s: %w", r, err)
			}
			results[i] = found(v.Interface())
			continue
		}

		v, err := codec.DecodeRecord(r.Schema(), reply.Fields)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", r, err)
		}
		results[i] = found(v.Interface())
	}
	return results, nil
}

// Remove deletes whole records and single fields.
// Every request must be a reference. Removing a field without a default
// fails with ErrMissingDefault before anything is sent.
func (s *Store) Remove(ctx context.Context, reqs []entity.Request) error {
	if err := s.check(opRemove, reqs, entity.Kind.Read); err != nil {
		return err
	}
	for _, r := range reqs {
		if f, ok := r.FieldInfo(); ok && !f.HasDefault() {
			return fmt.Errorf("%w: %s.%s", ErrMissingDefault, r.TypeName(), f.Name)
		}
	}
	if len(reqs) == 0 {
		return nil
	}

	p := sink.Begin(s.sink)
	for _, r := range reqs {
		if r.Partial() {
			p.HDelOne(r.Key(), r.FieldKey())
		} else {
			p.Delete(r.Key())
		}
	}

	_, err := s.exec(ctx, opRemove, len(reqs), p)
	return err
}

// check validates the batch shape before any command is built.
func (s *Store) check(op string, reqs []entity.Request, accept func(entity.Kind) bool) error {
	if len(reqs) > s.config.MaxBatchSize {
		return fmt.Errorf("%w: %d requests, max %d", ErrBatchTooLarge, len(reqs), s.config.MaxBatchSize)
	}
	for i, r := range reqs {
		if !accept(r.Kind()) {
			return fmt.Errorf("%w: %s request at index %d passed to %s", ErrInvalidRequest, r.Kind(), i, op)
		}
	}
	return nil
}

// exec sends one batch and records its outcome.
func (s *Store) exec(ctx context.Context, op string, n int, p *sink.Pipeline) ([]sink.Reply, error) {
	batch := uuid.NewString()
	start := time.Now()

	s.logger.Debug("executing batch",
		"op", op,
		"batch", batch,
		"requests", n,
		"commands", p.Len(),
	)

	replies, err := p.Exec(ctx)
	s.metrics.observe(op, n, start, err)
	if err != nil {
		s.logger.Error("batch failed",
			"op", op,
			"batch", batch,
			"error", err,
		)
		return nil, err
	}

	s.logger.Debug("batch completed",
		"op", op,
		"batch", batch,
		"duration", time.Since(start),
	)
	return replies, nil
}
