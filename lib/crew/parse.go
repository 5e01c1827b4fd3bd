// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package crew

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/jsonc"
)

const (
	finalAnswerMarker = "Final Answer:"

	// stopWord ends a completion before the model invents its own
	// observation.
	stopWord = "\nObservation:"
)

var (
	errMissingAction      = errors.New("missing action")
	errMissingActionInput = errors.New("missing action input")
	errActionAndFinal     = errors.New("both action and final answer")
)

var (
	actionPattern      = regexp.MustCompile(`(?s)Action\s*\d*\s*:[ \t]*([^\n]*?)\s*\n\s*Action\s*\d*\s*Input\s*\d*\s*:\s*(.*)`)
	actionOnlyPattern  = regexp.MustCompile(`(?m)^\s*Action\s*\d*\s*:`)
	codeFencePattern   = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
	toolNameTrimCutset = " \t*`\"'"
)

// step is one parsed model turn.
type step struct {
	action      string
	actionInput string
	finalAnswer string
	final       bool
}

// parseStep reads a ReAct turn. A turn either names an action with its
// input or gives a final answer.
func parseStep(text string) (step, error) {
	finalIndex := strings.Index(text, finalAnswerMarker)
	match := actionPattern.FindStringSubmatchIndex(text)

	if match != nil && finalIndex >= 0 && match[0] < finalIndex {
		return step{}, errActionAndFinal
	}
	if finalIndex >= 0 {
		answer := strings.TrimSpace(text[finalIndex+len(finalAnswerMarker):])
		return step{finalAnswer: answer, final: true}, nil
	}
	if match == nil {
		if actionOnlyPattern.MatchString(text) {
			return step{}, errMissingActionInput
		}
		return step{}, errMissingAction
	}

	action := strings.Trim(text[match[2]:match[3]], toolNameTrimCutset)
	input := strings.TrimSpace(text[match[4]:match[5]])
	if index := strings.Index(input, stopWord); index >= 0 {
		input = strings.TrimSpace(input[:index])
	}
	return step{action: action, actionInput: input}, nil
}

// formatHint is the observation returned for a turn that could not be
// parsed.
func formatHint(err error) string {
	switch {
	case errors.Is(err, errActionAndFinal):
		return "Invalid format: give either an Action with its Action Input, or a Final Answer, not both in one turn."
	case errors.Is(err, errMissingActionInput):
		return "Invalid format: an 'Action:' line must be followed by an 'Action Input:' line holding a JSON object."
	default:
		return "Invalid format: use 'Action:' and 'Action Input:' lines to call a tool, or start a line with 'Final Answer:' to finish."
	}
}

// toolArguments turns an Action Input into a JSON object. Code fences,
// comments and trailing commas are tolerated; an empty input is an
// empty object.
func toolArguments(input string) (json.RawMessage, error) {
	input = strings.TrimSpace(input)
	if match := codeFencePattern.FindStringSubmatch(input); match != nil {
		input = match[1]
	}
	if input == "" {
		return json.RawMessage("{}"), nil
	}

	converted := jsonc.ToJSON([]byte(input))
	trimmed := strings.TrimSpace(string(converted))
	if !strings.HasPrefix(trimmed, "{") || !json.Valid([]byte(trimmed)) {
		return nil, fmt.Errorf("Action Input is not a JSON object: %s", input)
	}
	return json.RawMessage(trimmed), nil
}
