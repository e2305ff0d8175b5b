// Package store executes batched entity requests against a hash-map sink.
//
// Each record lives under one store key as a hash of encoded fields. A call
// turns its requests into sink commands, sends them as a single pipelined
// batch and decodes the replies in request order:
//
//	st := store.New(memsink.New(), store.DefaultConfig())
//
//	w, _ := entity.Write(reg, "orders:12345", order)
//	err := st.Put(ctx, []entity.Request{w})
//
//	r, _ := entity.ReadField("orders:12345", orderSchema, "email")
//	res, err := st.Retrieve(ctx, []entity.Request{r})
//	email, ok := store.As[string](res[0])
//
// Absent records and fields come back as results with Found() == false, never
// as errors. Sink errors are returned as produced by the sink; the store does
// not retry.
//
// # Errors
//
//   - [ErrMissingDefault] - removing a field that has no default
//   - [ErrInvalidRequest] - request variant does not fit the operation
//   - [ErrBatchTooLarge] - more requests than Config.MaxBatchSize
//   - [schema.ErrValidation] - a value failed encoding or decoding
package store
