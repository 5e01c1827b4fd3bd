// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package rpc

import "context"

// Transport is the publish/subscribe connection the bridge runs over.
// lib/mqtt provides the paho-backed client and an in-memory broker.
type Transport interface {
	// Start connects, installs handler as the callback for every
	// message on topics, and subscribes with acknowledged delivery.
	// Inbound messages must be delivered on the transport's own
	// goroutine; handler never blocks for long.
	Start(ctx context.Context, handler func(topic string, payload []byte), topics ...string) error

	// Publish sends payload and returns once the broker has accepted
	// it exactly once (QoS 2), or ctx ends.
	Publish(ctx context.Context, topic string, payload []byte) error

	// Stop unsubscribes and closes the connection.
	Stop() error
}
