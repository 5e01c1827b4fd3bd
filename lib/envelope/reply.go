// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package envelope

import (
	"errors"
	"fmt"

	"github.com/SmartHomeBobby/Module-CodingCrew/lib/codec"
)

// Reply is a decoded inbound envelope. Fields beyond the ones a caller
// asks for are ignored.
type Reply struct {
	fields map[string]any
}

// NewReply wraps an already-decoded object. Used by tests and by
// responders that build replies in memory.
func NewReply(fields map[string]any) *Reply {
	return &Reply{fields: fields}
}

// String returns the first of names present with a string value. A key
// present with a non-string value is treated as absent so that a
// malformed field cannot be mistaken for a correlation id.
func (r *Reply) String(names ...string) (string, bool) {
	for _, name := range names {
		value, present := r.fields[name]
		if !present {
			continue
		}
		if text, ok := value.(string); ok {
			return text, true
		}
	}
	return "", false
}

// DecodeError reports an inbound payload that is not a valid envelope.
type DecodeError struct {
	Codec string
	Size  int
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("envelope: decoding %d-byte %s payload: %v", e.Size, e.Codec, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// errNotObject is wrapped by DecodeError when the payload decodes to
// something other than an object (a bare string, number, array, null).
var errNotObject = errors.New("payload is not an object")

// DecodeReply decodes payload with c. Anything other than a
// well-formed object yields a *DecodeError.
func DecodeReply(c codec.Codec, payload []byte) (*Reply, error) {
	var decoded any
	if err := c.Unmarshal(payload, &decoded); err != nil {
		return nil, &DecodeError{Codec: c.Name(), Size: len(payload), Err: err}
	}
	fields, ok := decoded.(map[string]any)
	if !ok {
		return nil, &DecodeError{Codec: c.Name(), Size: len(payload), Err: errNotObject}
	}
	return &Reply{fields: fields}, nil
}

// Encode marshals an outbound envelope with c.
func Encode(c codec.Codec, envelope any) ([]byte, error) {
	data, err := c.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("envelope: encoding %T as %s: %w", envelope, c.Name(), err)
	}
	return data, nil
}

// Decode unmarshals payload into a typed envelope such as
// DecisionRequest. Responders use it on the request side of a family.
// JSON key matching is case-insensitive, which covers camelCase peers.
func Decode(c codec.Codec, payload []byte, target any) error {
	if err := c.Unmarshal(payload, target); err != nil {
		return &DecodeError{Codec: c.Name(), Size: len(payload), Err: err}
	}
	return nil
}
