// Package stream provides a DynamoDB Streams handler that turns item changes
// on a dynamosink table into typed record changes.
package stream

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/dine/codec"
	"github.com/jacentio/dine/entity"
	"github.com/jacentio/dine/internal/keyhash"
	"github.com/jacentio/dine/schema"
	"github.com/jacentio/dine/sink/dynamosink"
)

// Stream event names.
const (
	EventInsert = "INSERT"
	EventModify = "MODIFY"
	EventRemove = "REMOVE"
)

// Change is one decoded item change.
type Change struct {
	EventID   string
	EventName string

	// Schema is the record type resolved from the store key.
	Schema *schema.Schema

	// Key is the binary store key of the record.
	Key []byte

	// Record is the record after the change, nil for removals.
	Record any

	// Old is the record before the change, nil for inserts or when the old
	// image could not be decoded.
	Old any
}

// Callback receives every decoded change. An error fails the batch so that
// Lambda retries it.
type Callback func(ctx context.Context, c Change) error

// Handler processes DynamoDB stream events for a dynamosink table.
type Handler struct {
	registry *schema.Registry
	keyAttr  string
	callback Callback
	logger   *slog.Logger
}

// NewHandler creates a new stream handler.
func NewHandler(reg *schema.Registry, cfg dynamosink.Config, fn Callback, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	keyAttr := cfg.KeyAttribute
	if keyAttr == "" {
		keyAttr = dynamosink.DefaultConfig().KeyAttribute
	}
	return &Handler{
		registry: reg,
		keyAttr:  keyAttr,
		callback: fn,
		logger:   logger,
	}
}

// HandleChanges processes DynamoDB stream events and delivers decoded changes.
// This function is designed to be used as an AWS Lambda handler.
func (h *Handler) HandleChanges(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process record",
				"eventID", record.EventID,
				"error", err,
			)
			return err // Will retry, eventually DLQ
		}
	}
	return nil
}

// processRecord processes a single DynamoDB stream record.
func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	key := getBinaryAttr(record.Change.Keys, h.keyAttr)
	s, ok := h.resolve(key)
	if !ok {
		h.logger.Debug("skipping record of unknown type",
			"eventID", record.EventID,
		)
		return nil
	}

	c := Change{
		EventID:   record.EventID,
		EventName: record.EventName,
		Schema:    s,
		Key:       key,
	}

	newRec, newErr := h.decode(s, record.Change.NewImage)
	oldRec, oldErr := h.decode(s, record.Change.OldImage)
	c.Record, c.Old = newRec, oldRec

	// The image describing the event must decode.
	primary, primaryErr := newRec, newErr
	if record.EventName == EventRemove {
		primary, primaryErr = oldRec, oldErr
	}
	if primaryErr != nil {
		h.logger.Warn("skipping undecodable record",
			"eventID", record.EventID,
			"type", s.Name(),
			"error", primaryErr,
		)
		return nil
	}
	if primary == nil {
		h.logger.Debug("skipping record without fields",
			"eventID", record.EventID,
			"type", s.Name(),
		)
		return nil
	}
	if oldErr != nil {
		h.logger.Debug("old image not decodable",
			"eventID", record.EventID,
			"error", oldErr,
		)
	}

	if h.callback == nil {
		return nil
	}
	if err := h.callback(ctx, c); err != nil {
		return fmt.Errorf("deliver %s %s: %w", record.EventName, s.Name(), err)
	}
	return nil
}

// resolve finds the schema whose type digest prefixes key. Keys written under
// another schema version do not resolve.
func (h *Handler) resolve(key []byte) (*schema.Schema, bool) {
	if h.registry == nil || len(key) != keyhash.EntityKeySize {
		return nil, false
	}
	if !bytes.HasSuffix(key, keyhash.VersionSuffix(entity.DefaultVersion)) {
		return nil, false
	}
	for _, s := range h.registry.Schemas() {
		if bytes.HasPrefix(key, keyhash.TypePrefix(s.Name())) {
			return s, true
		}
	}
	return nil, false
}

// decode rebuilds a record from an image. An image without fields yields nil.
func (h *Handler) decode(s *schema.Schema, image map[string]events.DynamoDBAttributeValue) (any, error) {
	if len(image) == 0 {
		return nil, nil
	}
	fields, err := dynamosink.FieldsFromItem(ConvertImage(image), h.keyAttr)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	rv, err := codec.DecodeRecord(s, fields)
	if err != nil {
		return nil, err
	}
	return rv.Interface(), nil
}

// getBinaryAttr extracts a binary attribute from a DynamoDB stream image.
func getBinaryAttr(image map[string]events.DynamoDBAttributeValue, key string) []byte {
	if v, ok := image[key]; ok {
		if v.DataType() == events.DataTypeBinary {
			return v.Binary()
		}
	}
	return nil
}

// ConvertImage converts a DynamoDB stream image to SDK attribute values.
// Scalar, boolean and null attributes are converted; other types are dropped.
func ConvertImage(image map[string]events.DynamoDBAttributeValue) map[string]types.AttributeValue {
	result := make(map[string]types.AttributeValue, len(image))
	for k, v := range image {
		switch v.DataType() {
		case events.DataTypeString:
			result[k] = &types.AttributeValueMemberS{Value: v.String()}
		case events.DataTypeNumber:
			result[k] = &types.AttributeValueMemberN{Value: v.Number()}
		case events.DataTypeBinary:
			result[k] = &types.AttributeValueMemberB{Value: v.Binary()}
		case events.DataTypeBoolean:
			result[k] = &types.AttributeValueMemberBOOL{Value: v.Boolean()}
		case events.DataTypeNull:
			result[k] = &types.AttributeValueMemberNULL{Value: true}
		}
	}
	return result
}
