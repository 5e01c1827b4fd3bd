// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/SmartHomeBobby/Module-CodingCrew/lib/codec"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/envelope"
)

const answerPrompt = "Answer> "

// publisher is the publishing half of an MQTT client.
type publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// responder answers decision requests one at a time from a line-based
// input.
type responder struct {
	codec         codec.Codec
	publisher     publisher
	responseTopic string
	input         <-chan string
	output        io.Writer
	renderer      *renderer
	logger        *slog.Logger
}

// serve answers requests until ctx ends or the input is exhausted.
func (r *responder) serve(ctx context.Context, requests <-chan []byte) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case payload := <-requests:
			err := r.handle(ctx, payload)
			switch {
			case err == nil:
			case errors.Is(err, io.EOF):
				r.logger.Info("input closed, exiting")
				return nil
			case ctx.Err() != nil:
				return nil
			default:
				return err
			}
		}
	}
}

// handle shows one request, reads the answer and publishes the reply.
// Undecodable requests are logged and skipped.
func (r *responder) handle(ctx context.Context, payload []byte) error {
	var request envelope.DecisionRequest
	if err := envelope.Decode(r.codec, payload, &request); err != nil {
		r.logger.Warn("discarding undecodable decision request", "error", err, "bytes", len(payload))
		return nil
	}
	if request.EventID == "" {
		r.logger.Warn("discarding decision request without EventId", "trace_id", request.TraceID)
		return nil
	}

	fmt.Fprint(r.output, r.renderer.render(request))
	answer, err := r.readAnswer(ctx)
	if err != nil {
		return err
	}

	reply, err := envelope.Encode(r.codec, envelope.DecisionReply{
		TraceID: request.TraceID,
		EventID: request.EventID,
		Answer:  answer,
	})
	if err != nil {
		return err
	}
	if err := r.publisher.Publish(ctx, r.responseTopic, reply); err != nil {
		return fmt.Errorf("publishing answer to %s: %w", request.EventID, err)
	}
	r.logger.Info("answer sent", "event_id", request.EventID, "bytes", len(answer))
	return nil
}

// readAnswer prompts until a non-blank line is entered.
func (r *responder) readAnswer(ctx context.Context) (string, error) {
	for {
		fmt.Fprint(r.output, answerPrompt)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case line, ok := <-r.input:
			if !ok {
				return "", io.EOF
			}
			if answer := strings.TrimSpace(line); answer != "" {
				return answer, nil
			}
		}
	}
}

// readLines delivers reader's lines on the returned channel and closes
// it at end of input.
func readLines(reader io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(reader)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}
