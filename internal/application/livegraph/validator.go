package livegraph

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Recognised envelope types.
const typeNewEdge = "new_edge"

// Discard reasons reported to metrics.
const (
	reasonMalformed     = "malformed"
	reasonMissingFields = "missing_fields"
	reasonUnknownType   = "unknown_type"
)

var (
	errMalformedEnvelope = errors.New("malformed envelope")
	errMissingEndpoints  = errors.New("new_edge event missing from/to")
)

// envelope is the wire shape of every inbound stream message.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// EdgeEvent is the payload of a new_edge envelope.
type EdgeEvent struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Arrows string `json:"arrows,omitempty"`
	Label  string `json:"label,omitempty"`
}

// Validator checks inbound messages against the envelope schema.
type Validator struct{}

// NewValidator creates a new envelope validator
func NewValidator() *Validator {
	return &Validator{}
}

// Validate decodes msg. It returns (nil, nil) for a well-formed envelope of
// an unrecognised type, and an error for anything that must be discarded.
func (v *Validator) Validate(msg []byte) (*EdgeEvent, error) {
	var env envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedEnvelope, err)
	}

	if env.Type != typeNewEdge {
		return nil, nil
	}

	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, errMissingEndpoints
	}

	// Field values must be strings; anything else is rejected rather than coerced.
	var ev EdgeEvent
	if err := json.Unmarshal(env.Data, &ev); err != nil {
		return nil, fmt.Errorf("%w: data: %v", errMalformedEnvelope, err)
	}

	if ev.From == "" || ev.To == "" {
		return nil, errMissingEndpoints
	}

	return &ev, nil
}

// discardReason maps a validation error to its metrics label.
func discardReason(err error) string {
	if errors.Is(err, errMissingEndpoints) {
		return reasonMissingFields
	}
	return reasonMalformed
}
