// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package mqtt

import (
	"bytes"
	"context"
	"errors"
	"sync"
)

// Message is one publish seen by a MemoryBroker.
type Message struct {
	Topic   string
	Payload []byte
}

// MemoryBroker is an in-process broker. Publishes from any of its
// clients, and messages passed to Inject, are routed to every started
// client with a matching filter.
type MemoryBroker struct {
	mu         sync.Mutex
	clients    map[*MemoryClient]struct{}
	history    []Message
	publishErr error
}

// NewMemoryBroker returns an empty broker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{clients: make(map[*MemoryClient]struct{})}
}

// NewClient returns an unstarted client attached to b.
func (b *MemoryBroker) NewClient() *MemoryClient {
	return &MemoryClient{broker: b}
}

// Inject routes a message as if an outside publisher had sent it. The
// payload is not validated, so tests can deliver arbitrary bytes.
func (b *MemoryBroker) Inject(topic string, payload []byte) {
	b.route(Message{Topic: topic, Payload: bytes.Clone(payload)})
}

// FailPublishes makes every client Publish return err until called
// again with nil.
func (b *MemoryBroker) FailPublishes(err error) {
	b.mu.Lock()
	b.publishErr = err
	b.mu.Unlock()
}

// Published returns every message accepted by a client Publish, in
// order. Injected messages are not included.
func (b *MemoryBroker) Published() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Message(nil), b.history...)
}

// Subscribers returns the number of started clients.
func (b *MemoryBroker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

func (b *MemoryBroker) publish(message Message) error {
	b.mu.Lock()
	if b.publishErr != nil {
		err := b.publishErr
		b.mu.Unlock()
		return err
	}
	b.history = append(b.history, message)
	b.mu.Unlock()

	b.route(message)
	return nil
}

func (b *MemoryBroker) route(message Message) {
	b.mu.Lock()
	var targets []*MemoryClient
	for client := range b.clients {
		if client.matches(message.Topic) {
			targets = append(targets, client)
		}
	}
	b.mu.Unlock()

	for _, client := range targets {
		client.enqueue(message)
	}
}

func (b *MemoryBroker) attach(client *MemoryClient) {
	b.mu.Lock()
	b.clients[client] = struct{}{}
	b.mu.Unlock()
}

func (b *MemoryBroker) detach(client *MemoryClient) {
	b.mu.Lock()
	delete(b.clients, client)
	b.mu.Unlock()
}

// MemoryClient is one connection to a MemoryBroker. Messages are
// queued without bound and delivered to the handler, in arrival order,
// by a single goroutine per client.
type MemoryClient struct {
	broker *MemoryBroker

	mu      sync.Mutex
	handler func(topic string, payload []byte)
	filters []string
	queue   []Message
	started bool
	wake    chan struct{}
	stop    chan struct{}
	stopped chan struct{}
}

// Start subscribes to topics and launches the delivery goroutine.
func (c *MemoryClient) Start(ctx context.Context, handler func(topic string, payload []byte), topics ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if handler == nil {
		return errors.New("mqtt: handler is required")
	}
	for _, topic := range topics {
		if err := ValidateFilter(topic); err != nil {
			return err
		}
	}

	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return errors.New("mqtt: client already started")
	}
	c.started = true
	c.handler = handler
	c.filters = append([]string(nil), topics...)
	c.queue = nil
	c.wake = make(chan struct{}, 1)
	c.stop = make(chan struct{})
	c.stopped = make(chan struct{})
	c.mu.Unlock()

	go c.deliver()
	c.broker.attach(c)
	return nil
}

// Publish hands a copy of payload to the broker.
func (c *MemoryClient) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateTopic(topic); err != nil {
		return err
	}
	c.mu.Lock()
	started := c.started
	c.mu.Unlock()
	if !started {
		return ErrNotConnected
	}
	return c.broker.publish(Message{Topic: topic, Payload: bytes.Clone(payload)})
}

// Stop detaches from the broker and waits for the delivery goroutine
// to exit. Queued messages not yet delivered are discarded. Stop must
// not be called from the handler.
func (c *MemoryClient) Stop() error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = false
	stop, stopped := c.stop, c.stopped
	c.mu.Unlock()

	c.broker.detach(c)
	close(stop)
	<-stopped
	return nil
}

func (c *MemoryClient) matches(topic string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, filter := range c.filters {
		if MatchTopic(filter, topic) {
			return true
		}
	}
	return false
}

func (c *MemoryClient) enqueue(message Message) {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	c.queue = append(c.queue, message)
	wake := c.wake
	c.mu.Unlock()

	select {
	case wake <- struct{}{}:
	default:
	}
}

func (c *MemoryClient) next() (Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return Message{}, false
	}
	message := c.queue[0]
	c.queue = c.queue[1:]
	return message, true
}

func (c *MemoryClient) deliver() {
	c.mu.Lock()
	wake, stop, stopped, handler := c.wake, c.stop, c.stopped, c.handler
	c.mu.Unlock()
	defer close(stopped)

	for {
		select {
		case <-stop:
			return
		case <-wake:
		}
		for {
			select {
			case <-stop:
				return
			default:
			}
			message, ok := c.next()
			if !ok {
				break
			}
			handler(message.Topic, message.Payload)
		}
	}
}
