// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/SmartHomeBobby/Module-CodingCrew/lib/clock"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/rpc"
)

// Provider is the interface for chat-model backends.
type Provider interface {
	// Complete sends a request and blocks until the full response is
	// available.
	Complete(ctx context.Context, request Request) (*Response, error)
}

// Generator is the generation call of an rpc.Bridge.
type Generator interface {
	Generate(ctx context.Context, params rpc.GenerateParams) (string, error)
}

// BridgeConfig holds the parameters for NewBridgeProvider.
type BridgeConfig struct {
	// Generator is the shared rpc.Bridge. Required.
	Generator Generator

	// RequestType is the LLM module's discriminator: 0 for planning
	// and conversation, 1 for code generation.
	RequestType int

	// Priority is copied into every request envelope.
	Priority int

	// Timeout overrides the generation family default when positive.
	Timeout time.Duration

	// Clock measures completion latency. Defaults to clock.Real().
	Clock clock.Clock

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// BridgeProvider completes prompts through the generation family.
type BridgeProvider struct {
	generator   Generator
	requestType int
	priority    int
	timeout     time.Duration
	clock       clock.Clock
	logger      *slog.Logger
}

// NewBridgeProvider returns a Provider backed by config.Generator.
func NewBridgeProvider(config BridgeConfig) (*BridgeProvider, error) {
	if config.Generator == nil {
		return nil, errors.New("llm: generator is required")
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &BridgeProvider{
		generator:   config.Generator,
		requestType: config.RequestType,
		priority:    config.Priority,
		timeout:     config.Timeout,
		clock:       config.Clock,
		logger:      config.Logger,
	}, nil
}

// Complete flattens the conversation into one prompt, sends it, and
// returns the cleaned completion.
func (provider *BridgeProvider) Complete(ctx context.Context, request Request) (*Response, error) {
	if len(request.Messages) == 0 {
		return nil, errors.New("llm: request has no messages")
	}
	prompt := Prompt(request.Messages)

	started := provider.clock.Now()
	provider.logger.Info("sending prompt to LLM",
		"request_type", provider.requestType,
		"prompt_bytes", len(prompt),
	)
	raw, err := provider.generator.Generate(ctx, rpc.GenerateParams{
		Prompt:      prompt,
		RequestType: provider.requestType,
		Priority:    provider.priority,
		Timeout:     provider.timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: generation: %w", err)
	}
	duration := provider.clock.Now().Sub(started)
	provider.logger.Info("LLM response received",
		"request_type", provider.requestType,
		"duration", duration,
		"response_bytes", len(raw),
	)

	content := Clean(raw, request.Stop)
	if content == "" {
		return nil, ErrEmptyResponse
	}
	return &Response{Content: content, Duration: duration}, nil
}

// Prompt renders messages one per line as "Role: content", with the
// role's first letter upper-cased.
func Prompt(messages []Message) string {
	lines := make([]string, len(messages))
	for index, message := range messages {
		lines[index] = capitalize(string(message.Role)) + ": " + message.Content
	}
	return strings.Join(lines, "\n")
}

func capitalize(word string) string {
	first, size := utf8.DecodeRuneInString(word)
	if size == 0 {
		return word
	}
	return string(unicode.ToUpper(first)) + strings.ToLower(word[size:])
}
