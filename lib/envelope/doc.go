// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

// Package envelope defines the message bodies exchanged with the LLM
// module and the stakeholder over MQTT.
//
// Outbound requests are plain structs ([GenerationRequest],
// [DecisionRequest]) sharing a [Header]. They are always emitted with
// PascalCase keys. Inbound replies are decoded into a [Reply], a thin
// wrapper over the decoded object that resolves each logical field by a
// list of accepted spellings, primary spelling first. The peers in this
// system are not consistent about key casing (C# modules emit
// PascalCase, scripts tend to emit camelCase), so every read goes
// through a spelling list such as [TraceIDKeys].
package envelope
