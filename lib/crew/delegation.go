// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package crew

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/SmartHomeBobby/Module-CodingCrew/lib/toolserver"
)

const (
	DelegateWorkToolName = "Delegate work to coworker"
	AskQuestionToolName  = "Ask question to coworker"

	coworkerExpectedOutput = "Your best answer to your coworker asking you this, accounting for the context shared."
)

// delegationTools returns the coworker tools for delegator. A crew of
// one has nobody to delegate to.
func (c *Crew) delegationTools(delegator *Agent) []toolserver.Tool {
	var coworkers []string
	for _, agent := range c.Agents {
		if agent != delegator {
			coworkers = append(coworkers, agent.Role)
		}
	}
	if len(coworkers) == 0 {
		return nil
	}
	list := strings.Join(coworkers, ", ")

	return []toolserver.Tool{
		&toolserver.Func{
			ToolName: DelegateWorkToolName,
			ToolDescription: fmt.Sprintf("Delegate a specific task to one of the following coworkers: %s. "+
				"The input to this tool should be the coworker, the task you want them to do, and ALL necessary "+
				"context to execute the task, they know nothing about the task, so share absolutely everything you know.", list),
			Schema: json.RawMessage(`{"type":"object","properties":{` +
				`"task":{"type":"string","description":"The task to delegate"},` +
				`"context":{"type":"string","description":"The context for the task"},` +
				`"coworker":{"type":"string","description":"The role of the coworker to delegate to"}},` +
				`"required":["task","context","coworker"]}`),
			Fn: func(ctx context.Context, arguments json.RawMessage) (string, error) {
				var input struct {
					Task     string `json:"task"`
					Context  string `json:"context"`
					Coworker string `json:"coworker"`
				}
				if err := json.Unmarshal(arguments, &input); err != nil {
					return "", fmt.Errorf("invalid arguments: %w", err)
				}
				return c.delegate(ctx, delegator, input.Coworker, input.Task, input.Context)
			},
		},
		&toolserver.Func{
			ToolName: AskQuestionToolName,
			ToolDescription: fmt.Sprintf("Ask a specific question to one of the following coworkers: %s. "+
				"The input to this tool should be the coworker, the question you have for them, and ALL necessary "+
				"context to ask the question properly, they know nothing about the question, so share absolutely everything you know.", list),
			Schema: json.RawMessage(`{"type":"object","properties":{` +
				`"question":{"type":"string","description":"The question to ask"},` +
				`"context":{"type":"string","description":"The context for the question"},` +
				`"coworker":{"type":"string","description":"The role of the coworker to ask"}},` +
				`"required":["question","context","coworker"]}`),
			Fn: func(ctx context.Context, arguments json.RawMessage) (string, error) {
				var input struct {
					Question string `json:"question"`
					Context  string `json:"context"`
					Coworker string `json:"coworker"`
				}
				if err := json.Unmarshal(arguments, &input); err != nil {
					return "", fmt.Errorf("invalid arguments: %w", err)
				}
				return c.delegate(ctx, delegator, input.Coworker, input.Question, input.Context)
			},
		},
	}
}

// delegate runs coworker on description with only its own tools.
func (c *Crew) delegate(ctx context.Context, delegator *Agent, role, description, taskContext string) (string, error) {
	if strings.TrimSpace(description) == "" {
		return "", errors.New("nothing to delegate: the task or question is empty")
	}
	coworker, ok := c.coworker(role)
	if !ok || coworker == delegator {
		var roles []string
		for _, agent := range c.Agents {
			if agent != delegator {
				roles = append(roles, agent.Role)
			}
		}
		return "", fmt.Errorf("coworker %q not found, it must be one of: %s", role, strings.Join(roles, ", "))
	}

	registry, err := toolserver.NewRegistry(coworker.Tools...)
	if err != nil {
		return "", err
	}
	c.logger().Info("delegating", "from", delegator.Role, "to", coworker.Role)
	task := &Task{
		Name:           "delegated by " + delegator.Role,
		Description:    description,
		ExpectedOutput: coworkerExpectedOutput,
		Agent:          coworker,
	}
	result, err := c.executor(coworker, registry).run(ctx, task, taskContext)
	if err != nil {
		return "", err
	}
	return result.Raw, nil
}
