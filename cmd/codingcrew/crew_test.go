// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SmartHomeBobby/Module-CodingCrew/lib/codec"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/config"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/envelope"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/mqtt"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/testutil"
)

// startLLM answers every generation request on broker with a final
// answer naming the request type, and records the request types seen.
func startLLM(t *testing.T, broker *mqtt.MemoryBroker, cfg *config.Config, envelopeCodec codec.Codec) *[]int {
	t.Helper()
	var mu sync.Mutex
	var requestTypes []int

	responder := broker.NewClient()
	err := responder.Start(context.Background(), func(_ string, payload []byte) {
		var request envelope.GenerationRequest
		if err := envelope.Decode(envelopeCodec, payload, &request); err != nil {
			t.Errorf("undecodable request: %v", err)
			return
		}
		mu.Lock()
		requestTypes = append(requestTypes, request.RequestType)
		mu.Unlock()

		answer := "Thought: I now know the final answer\nFinal Answer: done by type " + strconv.Itoa(request.RequestType)
		reply, err := envelope.Encode(envelopeCodec, envelope.GenerationReply{TraceID: request.TraceID, Response: answer})
		if err != nil {
			t.Errorf("encoding reply: %v", err)
			return
		}
		responder.Publish(context.Background(), cfg.Topics.Response, reply)
	}, cfg.Topics.Request)
	if err != nil {
		t.Fatalf("starting LLM responder: %v", err)
	}
	t.Cleanup(func() { responder.Stop() })
	return &requestTypes
}

func TestRunCrewOverMemoryBroker(t *testing.T) {
	for _, encoding := range []string{"json", "cbor"} {
		t.Run(encoding, func(t *testing.T) {
			cfg := config.Default()
			cfg.Encoding = encoding
			cfg.Crew.OutputDir = t.TempDir()
			envelopeCodec, err := codec.ByName(encoding)
			if err != nil {
				t.Fatal(err)
			}

			broker := mqtt.NewMemoryBroker()
			requestTypes := startLLM(t, broker, cfg, envelopeCodec)

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			output, err := runCrew(ctx, cfg, broker.NewClient(), testutil.DiscardLogger())
			if err != nil {
				t.Fatalf("runCrew: %v", err)
			}

			if len(output.Tasks) != 4 {
				t.Fatalf("tasks = %d, want 4", len(output.Tasks))
			}
			want := []string{"done by type 0", "done by type 1", "done by type 0", "done by type 0"}
			for index, task := range output.Tasks {
				if task.Raw != want[index] {
					t.Errorf("task %d (%s) = %q, want %q", index, task.Task, task.Raw, want[index])
				}
			}
			if got := *requestTypes; len(got) != 4 || got[1] != 1 {
				t.Errorf("request types = %v", got)
			}
			// The bridge unsubscribed on the way out; only the responder is left.
			if got := broker.Subscribers(); got != 1 {
				t.Errorf("subscribers after run = %d, want 1", got)
			}
		})
	}
}

func TestRunCrewFailsWhenBrokerRejectsPublishes(t *testing.T) {
	cfg := config.Default()
	cfg.Crew.OutputDir = t.TempDir()
	broker := mqtt.NewMemoryBroker()
	broker.FailPublishes(mqtt.ErrNotConnected)

	_, err := runCrew(context.Background(), cfg, broker.NewClient(), testutil.DiscardLogger())
	if err == nil || !strings.Contains(err.Error(), "not connected") {
		t.Fatalf("runCrew error = %v, want publish failure", err)
	}
}
