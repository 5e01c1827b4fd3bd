// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package crew

import (
	"errors"
	"fmt"
	"strings"

	"github.com/SmartHomeBobby/Module-CodingCrew/lib/llm"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/toolserver"
)

// DefaultMaxIterations bounds the tool-use turns of one task before the
// agent is told to answer.
const DefaultMaxIterations = 15

// Agent is one member of a crew.
type Agent struct {
	Role      string
	Goal      string
	Backstory string

	// AllowDelegation adds the coworker delegation tools when the agent
	// runs a crew task.
	AllowDelegation bool

	// LLM completes the agent's prompts. Required.
	LLM llm.Provider

	Tools []toolserver.Tool

	// MaxIterations defaults to DefaultMaxIterations.
	MaxIterations int
}

func (a *Agent) maxIterations() int {
	if a.MaxIterations > 0 {
		return a.MaxIterations
	}
	return DefaultMaxIterations
}

func (a *Agent) validate() error {
	var errs []error
	if strings.TrimSpace(a.Role) == "" {
		errs = append(errs, errors.New("role is required"))
	}
	if a.LLM == nil {
		errs = append(errs, errors.New("LLM is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("crew: agent %q: %w", a.Role, err)
	}
	return nil
}

// Task is one unit of work assigned to an agent.
type Task struct {
	Name           string
	Description    string
	ExpectedOutput string
	Agent          *Agent
}

// TaskOutput is the final answer an agent gave for a task.
type TaskOutput struct {
	Task  string
	Agent string
	Raw   string

	// Iterations is the number of model turns the task took.
	Iterations int
}

// Output is the result of a crew run.
type Output struct {
	Tasks []TaskOutput

	// Raw is the final answer of the last task.
	Raw string
}

func (o *Output) String() string { return o.Raw }
