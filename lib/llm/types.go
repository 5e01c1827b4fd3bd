// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"errors"
	"time"
)

// Role identifies the author of a message.
type Role string

const (
	RoleSystem Role = "system"
	RoleHuman  Role = "human"
	RoleAI     Role = "ai"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role
	Content string
}

// SystemMessage, HumanMessage and AIMessage are shorthands for building
// conversations.
func SystemMessage(content string) Message { return Message{Role: RoleSystem, Content: content} }
func HumanMessage(content string) Message  { return Message{Role: RoleHuman, Content: content} }
func AIMessage(content string) Message     { return Message{Role: RoleAI, Content: content} }

// Request is a completion request.
type Request struct {
	Messages []Message

	// Stop truncates the completion at the earliest occurrence of any
	// of these strings.
	Stop []string
}

// Response is a completed generation.
type Response struct {
	Content  string
	Duration time.Duration
}

// ErrEmptyResponse is returned when nothing is left of a completion
// after stop words and cleanup are applied.
var ErrEmptyResponse = errors.New("llm: empty response from model")
