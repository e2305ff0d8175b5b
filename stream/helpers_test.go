package stream

import (
	"testing"

	"github.com/aws/aws-lambda-go/events"
)

// --- getBinaryAttr Tests ---

func TestGetBinaryAttr_ExistingBinary(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"pk": events.NewBinaryAttribute([]byte{0xde, 0xad}),
	}

	result := getBinaryAttr(image, "pk")
	if string(result) != "\xde\xad" {
		t.Errorf("expected 0xdead, got %x", result)
	}
}

func TestGetBinaryAttr_MissingKey(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"other": events.NewBinaryAttribute([]byte{1}),
	}

	if result := getBinaryAttr(image, "pk"); result != nil {
		t.Errorf("expected nil for missing key, got %x", result)
	}
}

func TestGetBinaryAttr_NilImage(t *testing.T) {
	var image map[string]events.DynamoDBAttributeValue

	if result := getBinaryAttr(image, "pk"); result != nil {
		t.Errorf("expected nil for nil image, got %x", result)
	}
}

func TestGetBinaryAttr_StringAttribute(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"pk": events.NewStringAttribute("not-binary"),
	}

	if result := getBinaryAttr(image, "pk"); result != nil {
		t.Errorf("expected nil for string attribute, got %x", result)
	}
}
