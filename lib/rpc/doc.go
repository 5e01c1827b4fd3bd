// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

// Package rpc bridges blocking callers to the MQTT publish/subscribe
// bus: a caller publishes a request on one topic and receives, in the
// same call, the reply that another module later publishes on a
// different topic.
//
// The pieces:
//
//   - [Store] maps a correlation id to a one-shot waiter. It is the only
//     shared mutable state and its lock is never held across a wait.
//
//   - [Dispatcher] is the single inbound callback. It decodes each
//     message, picks the correlation key for the topic's [Family], and
//     delivers to the store. Malformed, unknown, late, and duplicate
//     messages are logged and dropped; none of them can wake the wrong
//     caller or stop the transport loop.
//
//   - [Bridge] owns the store, the dispatcher and the [Transport]
//     lifecycle, and exposes [Bridge.Call] plus the typed
//     [Bridge.Generate] and [Bridge.Decide] wrappers.
//
// A [Family] parameterizes the engine: request and response topics,
// which envelope field carries the correlation key, which carries the
// result, and the default timeout. The generation family (LLM prompts)
// and the decision family (questions for a human) share every line of
// the call path.
//
// Exactly one Bridge should exist per process. It is constructed by the
// binary and passed to whatever needs it; there is no package-level
// instance.
package rpc
