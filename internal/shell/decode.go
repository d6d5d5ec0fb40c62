package shell

import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// UntypedPayload is the loosely typed form of a foreign-schema event body.
// The producing service evolves its event shape independently of this
// consumer, so fields are extracted one by one with explicit presence
// checks instead of unmarshaling into a shared struct.
type UntypedPayload map[string]any

// DecodeError describes why extraction of a mandatory field failed. It
// always wraps ErrMalformedEvent, so it is classified as poison and is
// acknowledged rather than redelivered.
type DecodeError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding payload field %q failed: %s", e.Field, e.Reason)
}

// Unwrap makes DecodeError match ErrMalformedEvent in errors.Is checks.
func (e *DecodeError) Unwrap() error {
	return ErrMalformedEvent
}

// DecodeUntypedPayload parses raw JSON into an UntypedPayload.
func DecodeUntypedPayload(raw []byte) (UntypedPayload, error) {
	payload := UntypedPayload{}
	if err := jsoniter.ConfigFastest.Unmarshal(raw, &payload); err != nil {
		return nil, errors.Join(ErrMalformedEvent, err)
	}

	return payload, nil
}

// StringField extracts a mandatory non-empty string field.
func (p UntypedPayload) StringField(field string) (string, error) {
	value, present := p[field]
	if !present {
		return "", &DecodeError{Field: field, Reason: "field is missing"}
	}

	s, ok := value.(string)
	if !ok {
		return "", &DecodeError{Field: field, Reason: fmt.Sprintf("expected string, got %T", value)}
	}

	if s == "" {
		return "", &DecodeError{Field: field, Reason: "field is empty"}
	}

	return s, nil
}

// OptionalStringField extracts a string field, returning "" when absent.
// A present field of the wrong type is still a decode error.
func (p UntypedPayload) OptionalStringField(field string) (string, error) {
	value, present := p[field]
	if !present || value == nil {
		return "", nil
	}

	s, ok := value.(string)
	if !ok {
		return "", &DecodeError{Field: field, Reason: fmt.Sprintf("expected string, got %T", value)}
	}

	return s, nil
}

// IntField extracts a mandatory integer field. JSON numbers arrive as
// float64 from the generic decoder; fractional values are rejected.
func (p UntypedPayload) IntField(field string) (int, error) {
	value, present := p[field]
	if !present {
		return 0, &DecodeError{Field: field, Reason: "field is missing"}
	}

	f, ok := value.(float64)
	if !ok {
		return 0, &DecodeError{Field: field, Reason: fmt.Sprintf("expected number, got %T", value)}
	}

	n := int(f)
	if float64(n) != f {
		return 0, &DecodeError{Field: field, Reason: "expected integer, got fractional number"}
	}

	return n, nil
}
