// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package rpc

import (
	"fmt"
	"log/slog"

	"github.com/SmartHomeBobby/Module-CodingCrew/lib/codec"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/envelope"
)

// Dispatcher routes inbound replies to pending calls. HandleMessage is
// installed as the transport callback; it never blocks and never
// panics out to the transport.
type Dispatcher struct {
	store   *Store
	codec   codec.Codec
	byTopic map[string]*Family
	logger  *slog.Logger
}

// NewDispatcher builds a dispatcher for families. Two families may not
// share a response topic: the topic is what decides which correlation
// field applies.
func NewDispatcher(store *Store, c codec.Codec, families []*Family, logger *slog.Logger) (*Dispatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	byTopic := make(map[string]*Family, len(families))
	for _, family := range families {
		if existing, taken := byTopic[family.ResponseTopic]; taken {
			return nil, fmt.Errorf("rpc: families %q and %q share response topic %q",
				existing.Name, family.Name, family.ResponseTopic)
		}
		byTopic[family.ResponseTopic] = family
	}
	return &Dispatcher{
		store:   store,
		codec:   c,
		byTopic: byTopic,
		logger:  logger,
	}, nil
}

// Topics returns the response topics to subscribe to.
func (d *Dispatcher) Topics() []string {
	topics := make([]string, 0, len(d.byTopic))
	for topic := range d.byTopic {
		topics = append(topics, topic)
	}
	return topics
}

// HandleMessage delivers one inbound message. Undecodable payloads,
// replies without a correlation id, and replies nobody is waiting for
// are logged and dropped.
func (d *Dispatcher) HandleMessage(topic string, payload []byte) {
	defer func() {
		if recovered := recover(); recovered != nil {
			d.logger.Error("dispatcher recovered from panic",
				"topic", topic,
				"panic", recovered,
			)
		}
	}()

	family, ok := d.byTopic[topic]
	if !ok {
		d.logger.Warn("message on unexpected topic", "topic", topic, "bytes", len(payload))
		return
	}

	reply, err := envelope.DecodeReply(d.codec, payload)
	if err != nil {
		d.logger.Warn("discarding undecodable reply",
			"family", family.Name,
			"topic", topic,
			"error", err,
		)
		if d.codec == codec.CBOR {
			if text, diagnoseErr := codec.Diagnose(payload); diagnoseErr == nil {
				d.logger.Debug("undecodable reply in diagnostic notation", "family", family.Name, "cbor", text)
			}
		}
		return
	}

	id, ok := reply.String(family.Correlation.Keys()...)
	if !ok || id == "" {
		d.logger.Warn("discarding reply without correlation id",
			"family", family.Name,
			"field", family.Correlation.String(),
		)
		return
	}

	if !d.store.Deliver(id, reply) {
		// Late (timed out), duplicate (at-least-once redelivery), or
		// addressed to another process sharing the topic.
		d.logger.Debug("no pending call for reply", "family", family.Name, "id", id)
		return
	}
	d.logger.Debug("reply delivered", "family", family.Name, "id", id)
}
