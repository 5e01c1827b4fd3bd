// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import "testing"

func TestClean(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		response string
		stop     []string
		want     string
	}{
		{
			name:     "plain text untouched",
			response: "Thought: I know the answer\nFinal Answer: 42",
			want:     "Thought: I know the answer\nFinal Answer: 42",
		},
		{
			name:     "earliest stop word wins",
			response: "Action: x\nAction Input: {}\nObservation: made up\nFinal Answer: fake",
			stop:     []string{"\nFinal Answer:", "\nObservation:"},
			want:     "Action: x\nAction Input: {}",
		},
		{
			name:     "repaired json marker removed",
			response: "Repaired JSON: {\"a\": 1}",
			want:     `{"a": 1}`,
		},
		{
			name:     "action input array collapsed",
			response: "Thought: run it\nAction: CommandExecutionTool\nAction Input: [{\"command\": \"ls\"}, {\"command\": \"pwd\"}]\nmore",
			want:     "Thought: run it\nAction: CommandExecutionTool\nAction Input: {\"command\":\"ls\"}\nmore",
		},
		{
			name:     "action input array at end with trailing comma",
			response: "Action: CommandExecutionTool\nAction Input: [{\"command\": \"ls\", \"cwd\": \"/tmp\"},]",
			want:     "Action: CommandExecutionTool\nAction Input: {\"command\":\"ls\",\"cwd\":\"/tmp\"}",
		},
		{
			name:     "action input array of strings untouched",
			response: "Action: x\nAction Input: [\"ls\"]",
			want:     "Action: x\nAction Input: [\"ls\"]",
		},
		{
			name:     "action input array followed by text on same line untouched",
			response: "Action Input: [{\"a\": 1}] trailing",
			want:     "Action Input: [{\"a\": 1}] trailing",
		},
		{
			name:     "action input malformed untouched",
			response: "Action Input: [{\"a\": }",
			want:     "Action Input: [{\"a\": }",
		},
		{
			name:     "whole response array collapsed",
			response: "  [{\"name\": \"b\", \"arguments\": {}}, {\"name\": \"c\"}]  ",
			want:     `{"name":"b","arguments":{}}`,
		},
		{
			name:     "whole response array of null untouched",
			response: "[null]",
			want:     "[null]",
		},
		{
			name:     "stop word leaves nothing",
			response: "\nObservation: hallucinated",
			stop:     []string{"\nObservation:"},
			want:     "",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Clean(test.response, test.stop); got != test.want {
				t.Errorf("Clean(%q) =\n%q\nwant\n%q", test.response, got, test.want)
			}
		})
	}
}

func TestTruncateAtStopIgnoresEmptyWord(t *testing.T) {
	t.Parallel()

	if got := TruncateAtStop("abc", []string{""}); got != "abc" {
		t.Errorf("TruncateAtStop = %q, want abc", got)
	}
}
