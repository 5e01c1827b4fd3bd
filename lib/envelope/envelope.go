// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package envelope

import (
	"time"
)

// TimeLayout is the CreationTime format: ISO-8601, UTC, second precision.
const TimeLayout = "2006-01-02T15:04:05Z"

// Accepted key spellings for reply fields, primary spelling first.
var (
	TraceIDKeys  = []string{"TraceId", "traceId"}
	EventIDKeys  = []string{"EventId", "eventId"}
	ResponseKeys = []string{"Response", "response"}
	AnswerKeys   = []string{"Answer", "answer"}
)

// Sender identifies the module that published an envelope.
type Sender struct {
	Module  string `json:"Module"`
	Host    string `json:"Host"`
	Version string `json:"Version"`
}

// Header carries the fields common to every request envelope.
type Header struct {
	TraceID      string `json:"TraceId"`
	EventID      string `json:"EventId"`
	CreationTime string `json:"CreationTime"`
	Sender       Sender `json:"Sender"`
	Priority     int    `json:"Priority"`
}

// Timestamp formats t as a CreationTime value.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// GenerationRequest asks the LLM module for a completion. RequestType
// is the module's discriminator (0 planning, 1 code generation).
type GenerationRequest struct {
	Header
	RequestType int    `json:"RequestType"`
	Request     string `json:"Request"`
}

// DecisionRequest asks a human stakeholder a question.
type DecisionRequest struct {
	Header
	Question string `json:"Question"`
	Context  string `json:"Context"`
}

// GenerationReply is the body the LLM module publishes in answer to a
// GenerationRequest. Only TraceId and Response are read by this module.
type GenerationReply struct {
	TraceID  string `json:"TraceId"`
	EventID  string `json:"EventId,omitempty"`
	Response string `json:"Response"`
}

// DecisionReply is the body a stakeholder publishes in answer to a
// DecisionRequest. It correlates on EventId.
type DecisionReply struct {
	TraceID string `json:"TraceId,omitempty"`
	EventID string `json:"EventId"`
	Answer  string `json:"Answer"`
}
