// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package crew

import (
	"context"
	"strings"
	"testing"

	"github.com/SmartHomeBobby/Module-CodingCrew/lib/shell"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/testutil"
)

func toolNames(agent *Agent) string {
	names := make([]string, len(agent.Tools))
	for index, tool := range agent.Tools {
		names[index] = tool.Name()
	}
	return strings.Join(names, ",")
}

func TestNewCodingCrew(t *testing.T) {
	t.Parallel()

	planner, coder := script(), script()
	crew, err := NewCodingCrew(CodingCrewParams{
		Goal:          "program an app for tracking chores for couples",
		Planner:       planner,
		Coder:         coder,
		Runner:        shell.NewRunner(shell.Config{Logger: testutil.DiscardLogger()}),
		Decider:       &fakeDecider{},
		Workspace:     newWorkspace(t),
		MaxIterations: 4,
		Logger:        testutil.DiscardLogger(),
	})
	if err != nil {
		t.Fatalf("NewCodingCrew: %v", err)
	}

	wantAgents := []struct {
		role       string
		tools      string
		delegation bool
		coder      bool
	}{
		{"Product Owner", StakeholderToolName, false, false},
		{"Senior Software Architect", StakeholderToolName, true, false},
		{"Senior Full-Stack Developer", CommandToolName, false, true},
		{"QA Engineer", CommandToolName, true, false},
		{"Data Privacy Officer", CommandToolName + "," + GitHubRepoToolName + "," + GitCommitToolName, true, false},
	}
	if len(crew.Agents) != len(wantAgents) {
		t.Fatalf("agents = %d, want %d", len(crew.Agents), len(wantAgents))
	}
	for index, want := range wantAgents {
		agent := crew.Agents[index]
		if agent.Role != want.role || toolNames(agent) != want.tools || agent.AllowDelegation != want.delegation {
			t.Errorf("agent %d = %s tools=%s delegation=%v, want %+v", index, agent.Role, toolNames(agent), agent.AllowDelegation, want)
		}
		if usesCoder := agent.LLM == coder; usesCoder != want.coder {
			t.Errorf("%s uses coder LLM = %v, want %v", agent.Role, usesCoder, want.coder)
		}
		if agent.MaxIterations != 4 {
			t.Errorf("%s MaxIterations = %d", agent.Role, agent.MaxIterations)
		}
	}

	wantTasks := []string{"planning:Senior Software Architect", "coding:Senior Full-Stack Developer", "qa:QA Engineer", "privacy-audit:Data Privacy Officer"}
	for index, task := range crew.Tasks {
		if got := task.Name + ":" + task.Agent.Role; got != wantTasks[index] {
			t.Errorf("task %d = %s, want %s", index, got, wantTasks[index])
		}
	}
	if !containsAll(crew.Tasks[0].Description, "tracking chores for couples", "Follow general best practices.") {
		t.Errorf("planning description = %q", crew.Tasks[0].Description)
	}
}

func TestNewCodingCrewRunsEndToEnd(t *testing.T) {
	t.Parallel()

	planner := script(final("architecture"), final("qa ok"), final("audit clean"))
	coder := script(final("code done"))
	crew, err := NewCodingCrew(CodingCrewParams{
		Goal:      "todo app",
		Details:   "Use Go.",
		Planner:   planner,
		Coder:     coder,
		Runner:    shell.NewRunner(shell.Config{Logger: testutil.DiscardLogger()}),
		Decider:   &fakeDecider{},
		Workspace: newWorkspace(t),
		Logger:    testutil.DiscardLogger(),
	})
	if err != nil {
		t.Fatalf("NewCodingCrew: %v", err)
	}
	output, err := crew.Kickoff(context.Background())
	if err != nil {
		t.Fatalf("Kickoff: %v", err)
	}
	if output.Raw != "audit clean" || len(output.Tasks) != 4 {
		t.Errorf("output = %+v", output)
	}
	if prompt := planner.prompt(2); !containsAll(prompt, "architecture", "code done", "qa ok") {
		t.Errorf("audit prompt lacks earlier outputs:\n%s", prompt)
	}
}

func TestNewCodingCrewValidation(t *testing.T) {
	t.Parallel()

	_, err := NewCodingCrew(CodingCrewParams{})
	if err == nil {
		t.Fatal("NewCodingCrew accepted empty params")
	}
	for _, want := range []string{"goal", "providers", "runner", "decider", "workspace"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error lacks %q: %v", want, err)
		}
	}
}
