// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package crew

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/SmartHomeBobby/Module-CodingCrew/lib/toolserver"
)

const tracerName = "github.com/SmartHomeBobby/Module-CodingCrew/lib/crew"

// contextSeparator joins earlier task outputs in a task's context.
const contextSeparator = "\n\n----------\n\n"

// Crew is a set of agents and the tasks they run in order.
type Crew struct {
	Agents []*Agent
	Tasks  []*Task

	// Tracer opens spans for the run, each task and each tool call.
	// Defaults to the global provider.
	Tracer trace.Tracer

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Validate checks that every task has an agent that belongs to the crew
// and that every agent is complete.
func (c *Crew) Validate() error {
	var errs []error
	if len(c.Agents) == 0 {
		errs = append(errs, errors.New("crew: no agents"))
	}
	if len(c.Tasks) == 0 {
		errs = append(errs, errors.New("crew: no tasks"))
	}
	members := make(map[*Agent]bool, len(c.Agents))
	roles := make(map[string]bool, len(c.Agents))
	for _, agent := range c.Agents {
		if err := agent.validate(); err != nil {
			errs = append(errs, err)
		}
		key := strings.ToLower(agent.Role)
		if roles[key] {
			errs = append(errs, fmt.Errorf("crew: duplicate role %q", agent.Role))
		}
		roles[key] = true
		members[agent] = true
	}
	for index, task := range c.Tasks {
		switch {
		case task.Agent == nil:
			errs = append(errs, fmt.Errorf("crew: task %d (%s) has no agent", index, task.Name))
		case !members[task.Agent]:
			errs = append(errs, fmt.Errorf("crew: task %d (%s) is assigned to %q, who is not in the crew", index, task.Name, task.Agent.Role))
		}
	}
	return errors.Join(errs...)
}

// Kickoff runs the tasks sequentially. Each task sees the outputs of
// all tasks before it. The first task error ends the run.
func (c *Crew) Kickoff(ctx context.Context) (*Output, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	tracer := c.tracer()
	logger := c.logger()

	ctx, span := tracer.Start(ctx, "crew.kickoff",
		trace.WithAttributes(
			attribute.Int("crew.agents", len(c.Agents)),
			attribute.Int("crew.tasks", len(c.Tasks)),
		),
	)
	defer span.End()

	output := &Output{}
	var previous []string
	for index, task := range c.Tasks {
		logger.Info("starting task", "index", index, "task", task.Name, "agent", task.Agent.Role)
		result, err := c.runTask(ctx, task, strings.Join(previous, contextSeparator))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return output, fmt.Errorf("crew: task %d (%s): %w", index, task.Name, err)
		}
		logger.Info("task finished", "task", task.Name, "agent", task.Agent.Role, "iterations", result.Iterations)
		output.Tasks = append(output.Tasks, *result)
		output.Raw = result.Raw
		previous = append(previous, result.Raw)
	}
	return output, nil
}

func (c *Crew) runTask(ctx context.Context, task *Task, taskContext string) (*TaskOutput, error) {
	ctx, span := c.tracer().Start(ctx, "crew.task",
		trace.WithAttributes(
			attribute.String("crew.task", task.Name),
			attribute.String("crew.agent", task.Agent.Role),
		),
	)
	defer span.End()

	tools := append([]toolserver.Tool(nil), task.Agent.Tools...)
	if task.Agent.AllowDelegation {
		tools = append(tools, c.delegationTools(task.Agent)...)
	}
	registry, err := toolserver.NewRegistry(tools...)
	if err != nil {
		return nil, err
	}

	result, err := c.executor(task.Agent, registry).run(ctx, task, taskContext)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("crew.iterations", result.Iterations))
	return result, nil
}

func (c *Crew) executor(agent *Agent, tools *toolserver.Registry) *executor {
	return &executor{agent: agent, tools: tools, tracer: c.tracer(), logger: c.logger()}
}

// coworker finds an agent by role, ignoring case and surrounding
// quotes.
func (c *Crew) coworker(role string) (*Agent, bool) {
	key := strings.ToLower(strings.Trim(role, " \t\n\"'"))
	for _, agent := range c.Agents {
		if strings.ToLower(agent.Role) == key {
			return agent, true
		}
	}
	return nil, false
}

func (c *Crew) tracer() trace.Tracer {
	if c.Tracer == nil {
		return otel.Tracer(tracerName)
	}
	return c.Tracer
}

func (c *Crew) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
