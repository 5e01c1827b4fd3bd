// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package crew

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/SmartHomeBobby/Module-CodingCrew/lib/testutil"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/toolserver"
)

func recordingTool(name string, calls *[]string, result string, err error) toolserver.Tool {
	return &toolserver.Func{
		ToolName:        name,
		ToolDescription: "Test tool.",
		Schema:          json.RawMessage(`{"type":"object"}`),
		Fn: func(_ context.Context, arguments json.RawMessage) (string, error) {
			*calls = append(*calls, string(arguments))
			return result, err
		},
	}
}

func TestKickoffRunsTasksInOrderWithContext(t *testing.T) {
	t.Parallel()

	var calls []string
	planner := script(
		action("Lookup", `{"key": "stack"}`),
		final("Use Flutter and ASP.NET."),
	)
	coder := script(final("Implemented."))

	architect := &Agent{Role: "Architect", Goal: "design", Backstory: "expert", LLM: planner,
		Tools: []toolserver.Tool{recordingTool("Lookup", &calls, "stack: flutter", nil)}}
	developer := &Agent{Role: "Developer", Goal: "code", Backstory: "seasoned", LLM: coder}

	crew := &Crew{
		Agents: []*Agent{architect, developer},
		Tasks: []*Task{
			{Name: "plan", Description: "Plan the app", ExpectedOutput: "a plan", Agent: architect},
			{Name: "code", Description: "Write the app", ExpectedOutput: "code", Agent: developer},
		},
		Logger: testutil.DiscardLogger(),
	}
	output, err := crew.Kickoff(context.Background())
	if err != nil {
		t.Fatalf("Kickoff: %v", err)
	}

	if len(output.Tasks) != 2 || output.Raw != "Implemented." {
		t.Fatalf("output = %+v", output)
	}
	if output.Tasks[0].Raw != "Use Flutter and ASP.NET." || output.Tasks[0].Iterations != 2 {
		t.Errorf("plan output = %+v", output.Tasks[0])
	}
	if len(calls) != 1 || calls[0] != `{"key": "stack"}` {
		t.Errorf("tool calls = %v", calls)
	}

	// The observation is fed back on the second turn.
	if second := planner.prompt(1); !strings.Contains(second, "Observation: stack: flutter") {
		t.Errorf("second planner prompt lacks observation:\n%s", second)
	}
	// The stop word is sent with every turn.
	if stop := planner.requests[0].Stop; len(stop) != 1 || stop[0] != stopWord {
		t.Errorf("stop = %q", stop)
	}
	// The developer sees the plan as context.
	if prompt := coder.prompt(0); !containsAll(prompt, "Write the app", "context you're working with", "Use Flutter and ASP.NET.") {
		t.Errorf("developer prompt lacks context:\n%s", prompt)
	}
}

func TestAgentWithoutToolsGetsAnswerOnlyFormat(t *testing.T) {
	t.Parallel()

	provider := script(final("ok"))
	agent := &Agent{Role: "Product Owner", Goal: "g", Backstory: "b", LLM: provider}
	crew := &Crew{Agents: []*Agent{agent}, Tasks: []*Task{{Name: "t", Description: "d", Agent: agent}}, Logger: testutil.DiscardLogger()}
	if _, err := crew.Kickoff(context.Background()); err != nil {
		t.Fatalf("Kickoff: %v", err)
	}
	prompt := provider.prompt(0)
	if strings.Contains(prompt, "Action Input:") {
		t.Errorf("tool-less prompt describes actions:\n%s", prompt)
	}
	if !containsAll(prompt, "System: You are Product Owner.", "Final Answer:") {
		t.Errorf("prompt = %s", prompt)
	}
}

func TestCorrectiveObservations(t *testing.T) {
	t.Parallel()

	var calls []string
	provider := script(
		"I will just think out loud.",
		action("Nonexistent", `{}`),
		action("Failing", `{}`),
		action("Failing", `not json`),
		"",
		final("done"),
	)
	agent := &Agent{Role: "Dev", Goal: "g", Backstory: "b", LLM: provider,
		Tools: []toolserver.Tool{recordingTool("Failing", &calls, "", errors.New("boom"))}}
	crew := &Crew{Agents: []*Agent{agent}, Tasks: []*Task{{Name: "t", Description: "d", Agent: agent}}, Logger: testutil.DiscardLogger()}

	output, err := crew.Kickoff(context.Background())
	if err != nil {
		t.Fatalf("Kickoff: %v", err)
	}
	if output.Raw != "done" || output.Tasks[0].Iterations != 6 {
		t.Fatalf("output = %+v", output.Tasks[0])
	}
	if len(calls) != 1 {
		t.Errorf("Failing called %d times, want 1 (bad input must not reach the tool)", len(calls))
	}

	checks := []struct {
		request int
		want    string
	}{
		{1, "Invalid format"},
		{2, `Error: tool "Nonexistent" does not exist. Use one of: Failing.`},
		{3, "Error: boom"},
		{4, "Error: Action Input is not a JSON object"},
		{5, emptyResponseNotice},
	}
	for _, check := range checks {
		if prompt := provider.prompt(check.request); !strings.Contains(prompt, check.want) {
			t.Errorf("request %d lacks %q:\n%s", check.request, check.want, prompt)
		}
	}
}

func TestIterationLimitForcesFinalAnswer(t *testing.T) {
	t.Parallel()

	var calls []string
	provider := script(
		action("Loop", `{}`),
		action("Loop", `{}`),
		"Thought: fine\nFinal Answer: best effort",
	)
	agent := &Agent{Role: "Dev", Goal: "g", Backstory: "b", LLM: provider, MaxIterations: 2,
		Tools: []toolserver.Tool{recordingTool("Loop", &calls, "again", nil)}}
	crew := &Crew{Agents: []*Agent{agent}, Tasks: []*Task{{Name: "t", Description: "d", Agent: agent}}, Logger: testutil.DiscardLogger()}

	output, err := crew.Kickoff(context.Background())
	if err != nil {
		t.Fatalf("Kickoff: %v", err)
	}
	if output.Raw != "best effort" || output.Tasks[0].Iterations != 3 {
		t.Errorf("output = %+v", output.Tasks[0])
	}
	if provider.requestCount() != 3 {
		t.Fatalf("requests = %d, want 3", provider.requestCount())
	}
	if prompt := provider.prompt(2); !strings.Contains(prompt, forceFinalAnswerPrompt) {
		t.Errorf("last request lacks forced-answer prompt:\n%s", prompt)
	}
	if stop := provider.requests[2].Stop; len(stop) != 0 {
		t.Errorf("forced request stop = %q, want none", stop)
	}
}

func TestCompletionTimeoutSpendsOneTurn(t *testing.T) {
	t.Parallel()

	provider := script(timedOut, final("done"))
	agent := &Agent{Role: "Dev", Goal: "g", Backstory: "b", LLM: provider}
	crew := &Crew{Agents: []*Agent{agent}, Tasks: []*Task{{Name: "t", Description: "d", Agent: agent}}, Logger: testutil.DiscardLogger()}

	output, err := crew.Kickoff(context.Background())
	if err != nil {
		t.Fatalf("Kickoff: %v", err)
	}
	if output.Raw != "done" || output.Tasks[0].Iterations != 2 {
		t.Errorf("output = %+v", output.Tasks[0])
	}
	if provider.requestCount() != 2 {
		t.Fatalf("requests = %d, want 2", provider.requestCount())
	}
	if prompt := provider.prompt(1); !strings.Contains(prompt, timeoutNotice) {
		t.Errorf("retry lacks timeout notice:\n%s", prompt)
	}
}

func TestCompletionTimeoutsExhaustTurns(t *testing.T) {
	t.Parallel()

	provider := script(timedOut, timedOut, final("late but fine"))
	agent := &Agent{Role: "Dev", Goal: "g", Backstory: "b", LLM: provider, MaxIterations: 2}
	crew := &Crew{Agents: []*Agent{agent}, Tasks: []*Task{{Name: "t", Description: "d", Agent: agent}}, Logger: testutil.DiscardLogger()}

	output, err := crew.Kickoff(context.Background())
	if err != nil {
		t.Fatalf("Kickoff: %v", err)
	}
	if output.Raw != "late but fine" || output.Tasks[0].Iterations != 3 {
		t.Errorf("output = %+v", output.Tasks[0])
	}
}

func TestProviderErrorEndsRun(t *testing.T) {
	t.Parallel()

	first := &Agent{Role: "A", LLM: script()}
	second := &Agent{Role: "B", LLM: script(final("never"))}
	crew := &Crew{
		Agents: []*Agent{first, second},
		Tasks:  []*Task{{Name: "one", Agent: first}, {Name: "two", Agent: second}},
		Logger: testutil.DiscardLogger(),
	}
	output, err := crew.Kickoff(context.Background())
	if err == nil || !strings.Contains(err.Error(), "script exhausted") {
		t.Fatalf("Kickoff error = %v", err)
	}
	if len(output.Tasks) != 0 {
		t.Errorf("completed tasks = %d, want 0", len(output.Tasks))
	}
	if second.LLM.(*scriptedProvider).requestCount() != 0 {
		t.Error("second task ran after the first failed")
	}
}

func TestKickoffHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	agent := &Agent{Role: "A", LLM: script(final("x"))}
	crew := &Crew{Agents: []*Agent{agent}, Tasks: []*Task{{Name: "t", Agent: agent}}, Logger: testutil.DiscardLogger()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := crew.Kickoff(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Kickoff error = %v, want context.Canceled", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	member := &Agent{Role: "A", LLM: script()}
	outsider := &Agent{Role: "B", LLM: script()}
	crew := &Crew{
		Agents: []*Agent{member, {Role: "a", LLM: script()}, {Role: ""}},
		Tasks:  []*Task{{Name: "orphan"}, {Name: "foreign", Agent: outsider}},
	}
	err := crew.Validate()
	if err == nil {
		t.Fatal("Validate accepted an invalid crew")
	}
	for _, want := range []string{`duplicate role "a"`, "role is required", "LLM is required", "has no agent", "not in the crew"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate error lacks %q: %v", want, err)
		}
	}
}

func TestDelegation(t *testing.T) {
	t.Parallel()

	lead := script(
		action(AskQuestionToolName, `{"question": "Do we need login?", "context": "chores app", "coworker": "product owner"}`),
		final("Plan with login."),
	)
	owner := script(final("Yes, email login."))

	leadAgent := &Agent{Role: "Architect", AllowDelegation: true, LLM: lead}
	ownerAgent := &Agent{Role: "Product Owner", AllowDelegation: true, LLM: owner}
	crew := &Crew{
		Agents: []*Agent{leadAgent, ownerAgent},
		Tasks:  []*Task{{Name: "plan", Description: "Plan", Agent: leadAgent}},
		Logger: testutil.DiscardLogger(),
	}
	output, err := crew.Kickoff(context.Background())
	if err != nil {
		t.Fatalf("Kickoff: %v", err)
	}
	if output.Raw != "Plan with login." {
		t.Errorf("output = %q", output.Raw)
	}
	if prompt := lead.prompt(1); !strings.Contains(prompt, "Observation: Yes, email login.") {
		t.Errorf("coworker answer not observed:\n%s", prompt)
	}

	ownerPrompt := owner.prompt(0)
	if !containsAll(ownerPrompt, "Do we need login?", "chores app", coworkerExpectedOutput) {
		t.Errorf("coworker prompt = %s", ownerPrompt)
	}
	// Coworkers do not get delegation tools of their own.
	if strings.Contains(ownerPrompt, DelegateWorkToolName) {
		t.Errorf("coworker was offered delegation:\n%s", ownerPrompt)
	}
	// The delegator is offered its coworkers but not itself.
	leadPrompt := lead.prompt(0)
	if !containsAll(leadPrompt, DelegateWorkToolName, AskQuestionToolName, "coworkers: Product Owner.") {
		t.Errorf("delegator prompt = %s", leadPrompt)
	}
}

func TestDelegationToUnknownCoworker(t *testing.T) {
	t.Parallel()

	lead := script(
		action(DelegateWorkToolName, `{"task": "Write docs", "context": "none", "coworker": "Technical Writer"}`),
		final("done alone"),
	)
	leadAgent := &Agent{Role: "Architect", AllowDelegation: true, LLM: lead}
	other := &Agent{Role: "Developer", LLM: script()}
	crew := &Crew{
		Agents: []*Agent{leadAgent, other},
		Tasks:  []*Task{{Name: "plan", Agent: leadAgent}},
		Logger: testutil.DiscardLogger(),
	}
	if _, err := crew.Kickoff(context.Background()); err != nil {
		t.Fatalf("Kickoff: %v", err)
	}
	if prompt := lead.prompt(1); !strings.Contains(prompt, `Error: coworker "Technical Writer" not found, it must be one of: Developer`) {
		t.Errorf("missing coworker error:\n%s", prompt)
	}
}
