// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package rpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/SmartHomeBobby/Module-CodingCrew/lib/clock"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/codec"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/envelope"
)

const tracerName = "github.com/SmartHomeBobby/Module-CodingCrew/lib/rpc"

// Config holds the parameters for NewBridge.
type Config struct {
	// Transport carries requests and replies. Required.
	Transport Transport

	// Families are the exchanges this bridge serves. Required; response
	// topics must be distinct.
	Families []*Family

	// Codec encodes requests and decodes replies. Defaults to
	// codec.JSON.
	Codec codec.Codec

	// Sender is stamped into every request header. A family's Module
	// replaces Sender.Module.
	Sender envelope.Sender

	// Clock drives CreationTime and call timeouts. Defaults to
	// clock.Real().
	Clock clock.Clock

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Tracer opens one span per call. Defaults to the global provider.
	Tracer trace.Tracer

	// CancelPendingOnStop makes Stop resolve every outstanding call
	// with ErrShutdown. When false, outstanding calls run to their
	// timeouts.
	CancelPendingOnStop bool

	// NewID mints correlation ids. Defaults to uuid.NewString.
	NewID func() string
}

// CallParams describes one call on a family.
type CallParams struct {
	// Priority is copied into the header verbatim.
	Priority int

	// Timeout overrides the family default when positive.
	Timeout time.Duration

	// Build returns the request envelope for the given header. The
	// returned value is encoded with the bridge codec.
	Build func(header envelope.Header) any
}

// GenerateParams is a generation call.
type GenerateParams struct {
	Prompt      string
	RequestType int
	Priority    int
	Timeout     time.Duration
}

// DecideParams is a decision call.
type DecideParams struct {
	Question string
	Context  string
	Priority int
	Timeout  time.Duration
}

type bridgeState int

const (
	stateIdle bridgeState = iota
	stateRunning
	stateStopped
)

// Bridge turns publish/subscribe exchanges into blocking calls. One
// Bridge is shared by every component of a process; Call is safe for
// any number of concurrent callers.
type Bridge struct {
	transport           Transport
	store               *Store
	dispatcher          *Dispatcher
	families            map[string]*Family
	codec               codec.Codec
	sender              envelope.Sender
	clock               clock.Clock
	logger              *slog.Logger
	tracer              trace.Tracer
	newID               func() string
	cancelPendingOnStop bool

	// mu serializes Start and Stop. Call reads running without it.
	mu      sync.Mutex
	state   bridgeState
	running atomic.Bool
}

// NewBridge validates config and returns an unstarted Bridge.
func NewBridge(config Config) (*Bridge, error) {
	if config.Transport == nil {
		return nil, errors.New("rpc: transport is required")
	}
	if len(config.Families) == 0 {
		return nil, errors.New("rpc: at least one family is required")
	}
	families := make(map[string]*Family, len(config.Families))
	for _, family := range config.Families {
		if family == nil {
			return nil, errors.New("rpc: nil family")
		}
		if err := family.Validate(); err != nil {
			return nil, err
		}
		if _, exists := families[family.Name]; exists {
			return nil, fmt.Errorf("rpc: duplicate family %q", family.Name)
		}
		families[family.Name] = family
	}

	if config.Codec == nil {
		config.Codec = codec.JSON
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Tracer == nil {
		config.Tracer = otel.Tracer(tracerName)
	}
	if config.NewID == nil {
		config.NewID = uuid.NewString
	}

	store := NewStore()
	dispatcher, err := NewDispatcher(store, config.Codec, config.Families, config.Logger)
	if err != nil {
		return nil, err
	}

	return &Bridge{
		transport:           config.Transport,
		store:               store,
		dispatcher:          dispatcher,
		families:            families,
		codec:               config.Codec,
		sender:              config.Sender,
		clock:               config.Clock,
		logger:              config.Logger,
		tracer:              config.Tracer,
		newID:               config.NewID,
		cancelPendingOnStop: config.CancelPendingOnStop,
	}, nil
}

// Pending returns the number of calls waiting for a reply.
func (b *Bridge) Pending() int { return b.store.Len() }

// Start connects the transport, installs the dispatcher, and subscribes
// to every family's response topic. A Bridge can be started once.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateRunning:
		return errors.New("rpc: bridge already started")
	case stateStopped:
		return errors.New("rpc: bridge already stopped")
	}

	topics := b.dispatcher.Topics()
	if err := b.transport.Start(ctx, b.dispatcher.HandleMessage, topics...); err != nil {
		return &TransportError{Op: "start", Err: err}
	}
	b.state = stateRunning
	b.running.Store(true)
	b.logger.Info("rpc bridge started", "topics", topics, "codec", b.codec.Name())
	return nil
}

// Stop closes the transport. Calls in flight either time out on their
// own clocks or, with CancelPendingOnStop, return ErrShutdown now.
// Stopping a bridge that is not running is a no-op.
func (b *Bridge) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != stateRunning {
		return nil
	}
	b.state = stateStopped
	b.running.Store(false)

	stopErr := b.transport.Stop()

	if b.cancelPendingOnStop {
		if woken := b.store.CancelAll(ErrShutdown); woken > 0 {
			b.logger.Info("cancelled pending calls on stop", "count", woken)
		}
	} else if pending := b.store.Len(); pending > 0 {
		b.logger.Warn("stopping with calls pending; they will time out", "count", pending)
	}

	if stopErr != nil {
		return &TransportError{Op: "stop", Err: stopErr}
	}
	b.logger.Info("rpc bridge stopped")
	return nil
}

// Call publishes one request on family and blocks until the matching
// reply arrives, the timeout elapses, or ctx ends. It returns the
// family's result field, or "" when the reply lacks it.
func (b *Bridge) Call(ctx context.Context, family *Family, params CallParams) (string, error) {
	if !b.running.Load() {
		return "", ErrNotStarted
	}
	if family == nil {
		return "", errors.New("rpc: nil family")
	}
	if params.Build == nil {
		return "", fmt.Errorf("rpc: %s call has no envelope builder", family.Name)
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = family.Timeout
	}

	traceID, eventID := b.newID(), b.newID()
	id := family.Correlation.pick(traceID, eventID)

	ctx, span := b.tracer.Start(ctx, "rpc.call",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("rpc.family", family.Name),
			attribute.String("rpc.id", id),
			attribute.String("messaging.destination", family.RequestTopic),
			attribute.Int("rpc.priority", params.Priority),
		),
	)
	defer span.End()

	result, err := b.call(ctx, family, id, traceID, eventID, timeout, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return result, err
}

func (b *Bridge) call(ctx context.Context, family *Family, id, traceID, eventID string, timeout time.Duration, params CallParams) (string, error) {
	sender := b.sender
	if family.Module != "" {
		sender.Module = family.Module
	}
	header := envelope.Header{
		TraceID:      traceID,
		EventID:      eventID,
		CreationTime: envelope.Timestamp(b.clock.Now()),
		Sender:       sender,
		Priority:     params.Priority,
	}
	payload, err := envelope.Encode(b.codec, params.Build(header))
	if err != nil {
		return "", fmt.Errorf("rpc: encoding %s request %s: %w", family.Name, id, err)
	}

	if err := ctx.Err(); err != nil {
		return "", &CancelledError{Family: family.Name, ID: id, Err: err}
	}

	waiter, err := b.store.Register(id)
	if err != nil {
		return "", err
	}
	defer b.store.Remove(id)

	started := b.clock.Now()
	timer := b.clock.NewTimer(timeout)
	defer timer.Stop()

	// The publish is bounded by the call: a queued QoS 2 publish during a
	// broker outage ends with the timer or the caller's ctx.
	publishCtx, cancelPublish := context.WithCancel(ctx)
	defer cancelPublish()
	published := make(chan error, 1)
	b.logger.Debug("publishing request",
		"family", family.Name,
		"id", id,
		"topic", family.RequestTopic,
		"timeout", timeout,
	)
	go func() {
		published <- b.transport.Publish(publishCtx, family.RequestTopic, payload)
	}()

	for {
		select {
		case err := <-published:
			// A nil channel never fires again once the publish is done.
			published = nil
			if err == nil {
				continue
			}
			if ctx.Err() != nil {
				return "", &CancelledError{
					Family:  family.Name,
					ID:      id,
					Elapsed: b.clock.Now().Sub(started),
					Err:     ctx.Err(),
				}
			}
			return "", &TransportError{Op: "publish", Topic: family.RequestTopic, Err: err}

		case <-waiter.Done():
			reply, err := waiter.Result()
			if err != nil {
				return "", fmt.Errorf("rpc: %s request %s: %w", family.Name, id, err)
			}
			result, _ := reply.String(family.ResultKeys...)
			b.logger.Debug("reply received",
				"family", family.Name,
				"id", id,
				"elapsed", b.clock.Now().Sub(started),
			)
			return result, nil

		case <-timer.C:
			elapsed := b.clock.Now().Sub(started)
			b.logger.Error("request timed out",
				"family", family.Name,
				"id", id,
				"timeout", timeout,
				"published", published == nil,
			)
			return "", &TimeoutError{Family: family.Name, ID: id, Elapsed: elapsed}

		case <-ctx.Done():
			return "", &CancelledError{
				Family:  family.Name,
				ID:      id,
				Elapsed: b.clock.Now().Sub(started),
				Err:     ctx.Err(),
			}
		}
	}
}

// Generate sends a prompt on the generation family and returns the
// completion text.
func (b *Bridge) Generate(ctx context.Context, params GenerateParams) (string, error) {
	family, ok := b.families[FamilyGeneration]
	if !ok {
		return "", fmt.Errorf("rpc: bridge has no %s family", FamilyGeneration)
	}
	return b.Call(ctx, family, CallParams{
		Priority: params.Priority,
		Timeout:  params.Timeout,
		Build: func(header envelope.Header) any {
			return envelope.GenerationRequest{
				Header:      header,
				RequestType: params.RequestType,
				Request:     params.Prompt,
			}
		},
	})
}

// Decide asks the stakeholder a question on the decision family and
// returns the answer.
func (b *Bridge) Decide(ctx context.Context, params DecideParams) (string, error) {
	family, ok := b.families[FamilyDecision]
	if !ok {
		return "", fmt.Errorf("rpc: bridge has no %s family", FamilyDecision)
	}
	return b.Call(ctx, family, CallParams{
		Priority: params.Priority,
		Timeout:  params.Timeout,
		Build: func(header envelope.Header) any {
			return envelope.DecisionRequest{
				Header:   header,
				Question: params.Question,
				Context:  params.Context,
			}
		},
	})
}
