// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

// Package mqtt provides the publish/subscribe transports that lib/rpc
// runs over.
//
// [Client] is the production transport, built on the Eclipse Paho
// client. It uses a clean session, publishes and subscribes at QoS 2,
// and delivers inbound messages to a single handler from Paho's ordered
// router goroutine, so the handler is never invoked concurrently. With
// auto-reconnect enabled, subscriptions are re-established from the
// on-connect hook after every reconnect.
//
// [MemoryBroker] is an in-process broker for tests and local tooling.
// Each [MemoryClient] it hands out has its own delivery goroutine, so
// the same single-handler contract holds. Topic filters follow MQTT
// wildcard rules (see [MatchTopic]).
//
// Both satisfy lib/rpc's Transport interface without importing it.
package mqtt
