// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// Codec converts envelope values to and from bytes.
type Codec interface {
	// Name is the configuration name of the codec ("json", "cbor").
	Name() string

	// Marshal encodes v.
	Marshal(v any) ([]byte, error)

	// Unmarshal decodes data into v. Objects decoded into an `any`
	// target become map[string]any.
	Unmarshal(data []byte, v any) error
}

var (
	// JSON is the default envelope codec.
	JSON Codec = jsonCodec{}

	// CBOR encodes envelopes with Core Deterministic Encoding.
	CBOR Codec = cborCodec{}
)

// ByName returns the codec registered under name. The empty string
// selects JSON.
func ByName(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return JSON, nil
	case "cbor":
		return CBOR, nil
	default:
		return nil, fmt.Errorf("codec: unknown encoding %q (want json or cbor)", name)
	}
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// encMode and decMode are built once in init. A failure there means the
// options themselves are invalid, which is a programming error.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Reply envelopes are decoded into map[string]any so that the
		// dispatcher can resolve PascalCase and camelCase keys. The CBOR
		// default of map[interface{}]interface{} would defeat that.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

type cborCodec struct{}

func (cborCodec) Name() string { return "cbor" }

func (cborCodec) Marshal(v any) ([]byte, error) { return encMode.Marshal(v) }

func (cborCodec) Unmarshal(data []byte, v any) error { return decMode.Unmarshal(data, v) }

// Diagnose renders CBOR bytes in diagnostic notation (RFC 8949 §8).
// Used when logging envelopes that failed to decode.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}
