// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package rpc

import (
	"errors"
	"fmt"
	"time"

	"github.com/SmartHomeBobby/Module-CodingCrew/lib/envelope"
)

// Family names used by the typed wrappers.
const (
	FamilyGeneration = "generation"
	FamilyDecision   = "decision"
)

// Default timeouts. A generation call waits for a local LLM; a decision
// call waits for a human.
const (
	DefaultGenerationTimeout = 300 * time.Second
	DefaultDecisionTimeout   = time.Hour
)

// DefaultPriority is the envelope priority used when a caller has no
// opinion.
const DefaultPriority = 2

// Correlation selects which of the two ids minted per call is used as
// the store key, and therefore which reply field is matched against it.
type Correlation int

const (
	// CorrelateTraceID keys the call by TraceId.
	CorrelateTraceID Correlation = iota
	// CorrelateEventID keys the call by EventId.
	CorrelateEventID
)

// Keys returns the reply field spellings carrying the correlation key.
func (c Correlation) Keys() []string {
	if c == CorrelateEventID {
		return envelope.EventIDKeys
	}
	return envelope.TraceIDKeys
}

func (c Correlation) pick(traceID, eventID string) string {
	if c == CorrelateEventID {
		return eventID
	}
	return traceID
}

func (c Correlation) String() string {
	if c == CorrelateEventID {
		return "EventId"
	}
	return "TraceId"
}

// Family is one request/reply exchange carried by the shared engine.
type Family struct {
	// Name identifies the family in logs, spans and errors.
	Name string

	// RequestTopic is where requests are published.
	RequestTopic string

	// ResponseTopic is subscribed at Start; every message on it is
	// treated as a reply for this family.
	ResponseTopic string

	// Timeout is used when a call does not set its own.
	Timeout time.Duration

	// Correlation selects the key id.
	Correlation Correlation

	// ResultKeys are the reply field spellings holding the result,
	// primary first. A reply without any of them yields "".
	ResultKeys []string

	// Module overrides Sender.Module on this family's requests.
	Module string
}

// GenerationFamily is the LLM prompt/completion exchange.
func GenerationFamily(requestTopic, responseTopic string, timeout time.Duration) *Family {
	if timeout <= 0 {
		timeout = DefaultGenerationTimeout
	}
	return &Family{
		Name:          FamilyGeneration,
		RequestTopic:  requestTopic,
		ResponseTopic: responseTopic,
		Timeout:       timeout,
		Correlation:   CorrelateTraceID,
		ResultKeys:    envelope.ResponseKeys,
		Module:        "codingcrew",
	}
}

// DecisionFamily is the stakeholder question/answer exchange.
func DecisionFamily(requestTopic, responseTopic string, timeout time.Duration) *Family {
	if timeout <= 0 {
		timeout = DefaultDecisionTimeout
	}
	return &Family{
		Name:          FamilyDecision,
		RequestTopic:  requestTopic,
		ResponseTopic: responseTopic,
		Timeout:       timeout,
		Correlation:   CorrelateEventID,
		ResultKeys:    envelope.AnswerKeys,
		Module:        "codingcrew-stakeholder-tool",
	}
}

// Validate reports missing or contradictory settings.
func (f *Family) Validate() error {
	var errs []error
	if f.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if f.RequestTopic == "" {
		errs = append(errs, errors.New("request topic is required"))
	}
	if f.ResponseTopic == "" {
		errs = append(errs, errors.New("response topic is required"))
	}
	if f.RequestTopic != "" && f.RequestTopic == f.ResponseTopic {
		errs = append(errs, fmt.Errorf("request and response topic are both %q", f.RequestTopic))
	}
	if f.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive (got %s)", f.Timeout))
	}
	if len(f.ResultKeys) == 0 {
		errs = append(errs, errors.New("at least one result key is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("rpc: family %q: %w", f.Name, errors.Join(errs...))
	}
	return nil
}
