// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package crew

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseStep(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		text    string
		want    step
		wantErr error
	}{
		{
			name: "final answer",
			text: "Thought: done\nFinal Answer: the plan\nwith two lines",
			want: step{finalAnswer: "the plan\nwith two lines", final: true},
		},
		{
			name: "action",
			text: "Thought: list files\nAction: CommandExecutionTool\nAction Input: {\"command\": \"ls\"}",
			want: step{action: "CommandExecutionTool", actionInput: `{"command": "ls"}`},
		},
		{
			name: "decorated action name",
			text: "Action: **AskStakeholderTool**\nAction Input: {\"question\": \"q\", \"context\": \"c\"}\n",
			want: step{action: "AskStakeholderTool", actionInput: `{"question": "q", "context": "c"}`},
		},
		{
			name: "input cut at observation",
			text: "Action: CommandExecutionTool\nAction Input: {\"command\": \"ls\"}\nObservation: made up",
			want: step{action: "CommandExecutionTool", actionInput: `{"command": "ls"}`},
		},
		{
			name: "final answer after action text wins when it comes first",
			text: "Final Answer: done. Next time use Action: x\nAction Input: {}",
			want: step{finalAnswer: "done. Next time use Action: x\nAction Input: {}", final: true},
		},
		{
			name:    "action and final answer",
			text:    "Action: CommandExecutionTool\nAction Input: {}\nFinal Answer: done",
			wantErr: errActionAndFinal,
		},
		{
			name:    "action without input",
			text:    "Thought: hmm\nAction: CommandExecutionTool",
			wantErr: errMissingActionInput,
		},
		{
			name:    "prose",
			text:    "I think we should build a Flutter app.",
			wantErr: errMissingAction,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := parseStep(test.text)
			if test.wantErr != nil {
				if !errors.Is(err, test.wantErr) {
					t.Fatalf("parseStep error = %v, want %v", err, test.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseStep: %v", err)
			}
			if got != test.want {
				t.Errorf("parseStep = %+v, want %+v", got, test.want)
			}
		})
	}
}

func TestToolArguments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input       string
		wantCommand string
		wantErr     bool
	}{
		{input: ""},
		{input: `{"command": "ls"}`, wantCommand: "ls"},
		{input: "```json\n{\"command\": \"ls\"}\n```", wantCommand: "ls"},
		{input: "{\"command\": \"ls\", // list files\n}", wantCommand: "ls"},
		{input: "ls -la", wantErr: true},
		{input: `["ls"]`, wantErr: true},
	}
	for _, test := range tests {
		got, err := toolArguments(test.input)
		if test.wantErr {
			if err == nil {
				t.Errorf("toolArguments(%q) = %s, want error", test.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("toolArguments(%q): %v", test.input, err)
			continue
		}
		var decoded struct {
			Command string `json:"command"`
		}
		if err := json.Unmarshal(got, &decoded); err != nil {
			t.Errorf("toolArguments(%q) = %s, not a JSON object: %v", test.input, got, err)
			continue
		}
		if decoded.Command != test.wantCommand {
			t.Errorf("toolArguments(%q) command = %q, want %q", test.input, decoded.Command, test.wantCommand)
		}
	}
}
