// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec selects the byte encoding used for MQTT envelopes.
//
// The modules on the other side of the broker speak JSON, so [JSON] is
// the default. [CBOR] uses Core Deterministic Encoding (RFC 8949 §4.2)
// for deployments that prefer a binary wire format. Both codecs honour
// the same `json` struct tags, so envelope types are declared once.
//
// Decoders are lenient in the same way for both encodings: unknown
// fields are ignored, and object keys decoded into map[string]any keep
// their original spelling so callers can resolve alternate casings
// themselves.
package codec
