// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package crew

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/SmartHomeBobby/Module-CodingCrew/lib/llm"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/rpc"
)

// timedOut scripts a generation timeout.
const timedOut = "\x00timed out"

// scriptedProvider returns canned completions in order and records
// every request. An empty completion is reported as ErrEmptyResponse
// and timedOut as a wrapped *rpc.TimeoutError.
type scriptedProvider struct {
	mu        sync.Mutex
	responses []string
	requests  []llm.Request
}

func script(responses ...string) *scriptedProvider {
	return &scriptedProvider{responses: responses}
}

func (p *scriptedProvider) Complete(_ context.Context, request llm.Request) (*llm.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	request.Messages = append([]llm.Message(nil), request.Messages...)
	p.requests = append(p.requests, request)
	if len(p.responses) == 0 {
		return nil, errors.New("script exhausted")
	}
	next := p.responses[0]
	p.responses = p.responses[1:]
	switch next {
	case "":
		return nil, llm.ErrEmptyResponse
	case timedOut:
		return nil, fmt.Errorf("llm: generation: %w", &rpc.TimeoutError{Family: rpc.FamilyGeneration, ID: "x", Elapsed: 300 * time.Second})
	}
	return &llm.Response{Content: next}, nil
}

func (p *scriptedProvider) requestCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

// lastPrompt returns the rendered prompt of request index.
func (p *scriptedProvider) prompt(index int) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return llm.Prompt(p.requests[index].Messages)
}

func action(name, input string) string {
	return "Thought: I should use a tool\nAction: " + name + "\nAction Input: " + input
}

func final(answer string) string {
	return "Thought: I now know the final answer\nFinal Answer: " + answer
}

func containsAll(text string, parts ...string) bool {
	for _, part := range parts {
		if !strings.Contains(text, part) {
			return false
		}
	}
	return true
}
