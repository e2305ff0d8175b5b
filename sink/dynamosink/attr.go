package dynamosink

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/dine/sink"
)

const fieldAttrPrefix = "f"

// FieldAttr returns the item attribute name holding a field key.
func FieldAttr(field string) string {
	return fieldAttrPrefix + hex.EncodeToString([]byte(field))
}

// ParseFieldAttr reverses FieldAttr. It reports false for attributes that do
// not hold a field, such as the partition key.
func ParseFieldAttr(attr string) (string, bool) {
	if !strings.HasPrefix(attr, fieldAttrPrefix) {
		return "", false
	}
	b, err := hex.DecodeString(attr[len(fieldAttrPrefix):])
	if err != nil {
		return "", false
	}
	return string(b), true
}

// toAttr converts a sink value into an attribute value.
func toAttr(v sink.Value) (types.AttributeValue, error) {
	switch v.Kind() {
	case sink.KindBytes:
		return &types.AttributeValueMemberB{Value: v.Bytes()}, nil
	case sink.KindInt:
		return attributevalue.Marshal(v.Int())
	case sink.KindFloat:
		return attributevalue.Marshal(v.Float())
	case sink.KindBool:
		return attributevalue.Marshal(v.Bool())
	default:
		return nil, fmt.Errorf("dynamosink: unsupported value kind %s", v.Kind())
	}
}

// FromAttr converts an attribute value read from the table into a sink value.
// Numbers that parse as integers become integer scalars.
func FromAttr(av types.AttributeValue) (sink.Value, error) {
	switch t := av.(type) {
	case *types.AttributeValueMemberB:
		return sink.Bytes(t.Value), nil
	case *types.AttributeValueMemberS:
		return sink.String(t.Value), nil
	case *types.AttributeValueMemberBOOL:
		return sink.Bool(t.Value), nil
	case *types.AttributeValueMemberNULL:
		return sink.Bytes(nil), nil
	case *types.AttributeValueMemberN:
		if i, err := strconv.ParseInt(t.Value, 10, 64); err == nil {
			return sink.Int(i), nil
		}
		var f float64
		if err := attributevalue.Unmarshal(t, &f); err != nil {
			return sink.Value{}, fmt.Errorf("dynamosink: number %q: %w", t.Value, err)
		}
		return sink.Float(f), nil
	default:
		return sink.Value{}, fmt.Errorf("dynamosink: unsupported attribute type %T", av)
	}
}

// FieldsFromItem extracts the field map of an item. The key attribute and
// attributes that are not fields are skipped.
func FieldsFromItem(item map[string]types.AttributeValue, keyAttr string) (map[string]sink.Value, error) {
	fields := make(map[string]sink.Value, len(item))
	for attr, av := range item {
		if attr == keyAttr {
			continue
		}
		field, ok := ParseFieldAttr(attr)
		if !ok {
			continue
		}
		v, err := FromAttr(av)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", attr, err)
		}
		fields[field] = v
	}
	return fields, nil
}
