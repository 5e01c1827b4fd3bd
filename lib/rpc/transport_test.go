// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/SmartHomeBobby/Module-CodingCrew/lib/testutil"
)

type publishedMessage struct {
	topic   string
	payload []byte
}

// fakeTransport records publishes and lets the test play the remote
// module by calling the installed handler directly.
type fakeTransport struct {
	mu         sync.Mutex
	handler    func(topic string, payload []byte)
	topics     []string
	startErr   error
	publishErr error
	stopErr    error

	// stallPublish makes Publish block until its ctx ends, as a QoS 2
	// publish does while the broker is unreachable.
	stallPublish bool
	stops      int

	// deliverMu keeps handler invocations serial, as a real transport's
	// receive loop would.
	deliverMu sync.Mutex

	published chan publishedMessage
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{published: make(chan publishedMessage, 256)}
}

func (f *fakeTransport) Start(_ context.Context, handler func(topic string, payload []byte), topics ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.handler = handler
	f.topics = append([]string(nil), topics...)
	return nil
}

func (f *fakeTransport) Publish(ctx context.Context, topic string, payload []byte) error {
	f.mu.Lock()
	err, stall := f.publishErr, f.stallPublish
	f.mu.Unlock()
	if stall {
		<-ctx.Done()
		return ctx.Err()
	}
	if err != nil {
		return err
	}
	f.published <- publishedMessage{topic: topic, payload: bytes.Clone(payload)}
	return nil
}

func (f *fakeTransport) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return f.stopErr
}

func (f *fakeTransport) setPublishErr(err error) {
	f.mu.Lock()
	f.publishErr = err
	f.mu.Unlock()
}

func (f *fakeTransport) setStallPublish() {
	f.mu.Lock()
	f.stallPublish = true
	f.mu.Unlock()
}

// deliver hands payload to the installed handler as an inbound message.
func (f *fakeTransport) deliver(topic string, payload []byte) {
	f.mu.Lock()
	handler := f.handler
	f.mu.Unlock()

	f.deliverMu.Lock()
	defer f.deliverMu.Unlock()
	handler(topic, payload)
}

// nextPublished waits for the next published request.
func (f *fakeTransport) nextPublished(t *testing.T) publishedMessage {
	t.Helper()
	return testutil.RequireReceive(t, f.published, 5*time.Second, "waiting for a request to be published")
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	return data
}
