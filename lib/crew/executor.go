// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package crew

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/SmartHomeBobby/Module-CodingCrew/lib/llm"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/rpc"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/toolserver"
)

const (
	forceFinalAnswerPrompt = "You have used all the turns available for this task. Stop using tools and give your best final answer now, starting with 'Final Answer:'."

	emptyResponseNotice = "Your last response was empty. Continue with a Thought and either an Action or a Final Answer."

	timeoutNotice = "Error: LLM request timed out. Continue with a Thought and either an Action or a Final Answer."
)

// executor runs one agent on one task.
type executor struct {
	agent  *Agent
	tools  *toolserver.Registry
	tracer trace.Tracer
	logger *slog.Logger
}

// run drives the ReAct loop until the model gives a final answer. After
// the agent's iteration budget is spent it gets one more turn in which
// it is told to answer.
func (e *executor) run(ctx context.Context, task *Task, taskContext string) (*TaskOutput, error) {
	messages := []llm.Message{
		llm.SystemMessage(systemPrompt(e.agent, e.tools)),
		llm.HumanMessage(taskPrompt(task, taskContext)),
	}
	logger := e.logger.With("agent", e.agent.Role, "task", task.Name)
	limit := e.agent.maxIterations()

	for iteration := 1; iteration <= limit; iteration++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		response, err := e.agent.LLM.Complete(ctx, llm.Request{Messages: messages, Stop: []string{stopWord}})
		if errors.Is(err, llm.ErrEmptyResponse) {
			logger.Warn("empty completion", "iteration", iteration)
			messages = append(messages, llm.HumanMessage(emptyResponseNotice))
			continue
		}
		if rpc.IsTimeout(err) {
			// The turn is spent; the agent retries on the next one.
			logger.Warn("completion timed out", "iteration", iteration, "error", err)
			messages = append(messages, llm.HumanMessage(timeoutNotice))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("crew: %s: turn %d: %w", e.agent.Role, iteration, err)
		}

		parsed, parseErr := parseStep(response.Content)
		if parseErr == nil && parsed.final {
			logger.Info("final answer", "iteration", iteration, "bytes", len(parsed.finalAnswer))
			return &TaskOutput{Task: task.Name, Agent: e.agent.Role, Raw: parsed.finalAnswer, Iterations: iteration}, nil
		}

		var observation string
		if parseErr != nil {
			logger.Debug("unparseable turn", "iteration", iteration, "reason", parseErr)
			observation = formatHint(parseErr)
		} else {
			observation = e.useTool(ctx, parsed, logger)
		}
		messages = append(messages, llm.AIMessage(strings.TrimRight(response.Content, "\n")+"\nObservation: "+observation))
	}

	logger.Warn("iteration limit reached, forcing final answer", "limit", limit)
	messages = append(messages, llm.HumanMessage(forceFinalAnswerPrompt))
	response, err := e.agent.LLM.Complete(ctx, llm.Request{Messages: messages})
	if err != nil {
		return nil, fmt.Errorf("crew: %s: forced final answer: %w", e.agent.Role, err)
	}
	answer := strings.TrimSpace(response.Content)
	if index := strings.Index(answer, finalAnswerMarker); index >= 0 {
		answer = strings.TrimSpace(answer[index+len(finalAnswerMarker):])
	}
	return &TaskOutput{Task: task.Name, Agent: e.agent.Role, Raw: answer, Iterations: limit + 1}, nil
}

// useTool runs the action of a parsed turn and returns the observation.
// Tool failures are reported to the model, not to the caller.
func (e *executor) useTool(ctx context.Context, parsed step, logger *slog.Logger) string {
	arguments, err := toolArguments(parsed.actionInput)
	if err != nil {
		return "Error: " + err.Error()
	}

	ctx, span := e.tracer.Start(ctx, "crew.tool",
		trace.WithAttributes(
			attribute.String("crew.agent", e.agent.Role),
			attribute.String("crew.tool", parsed.action),
		),
	)
	defer span.End()

	logger.Info("using tool", "tool", parsed.action)
	result, err := e.tools.Call(ctx, parsed.action, arguments)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		var unknown *toolserver.UnknownToolError
		if errors.As(err, &unknown) {
			if len(unknown.Available) == 0 {
				return fmt.Sprintf("Error: tool %q does not exist. You have no tools; give your Final Answer.", parsed.action)
			}
			return fmt.Sprintf("Error: tool %q does not exist. Use one of: %s.", parsed.action, strings.Join(unknown.Available, ", "))
		}
		logger.Warn("tool failed", "tool", parsed.action, "error", err)
		return "Error: " + err.Error()
	}
	return result
}

func systemPrompt(agent *Agent, tools *toolserver.Registry) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "You are %s. %s\nYour personal goal is: %s\n", agent.Role, agent.Backstory, agent.Goal)

	if tools.Len() == 0 {
		builder.WriteString("\nTo give your best complete final answer use exactly this format:\n\n" +
			"Thought: I now can give a great answer\n" +
			"Final Answer: your complete final answer, not a summary.\n")
		return builder.String()
	}

	builder.WriteString("\nYou ONLY have access to the following tools, and should NEVER make up tools that are not listed here:\n\n")
	builder.WriteString(tools.Describe())
	fmt.Fprintf(&builder, "\nUse the following format:\n\n"+
		"Thought: you should always think about what to do\n"+
		"Action: the action to take, only one name of [%s], just the name, exactly as it's written.\n"+
		"Action Input: the input to the action, just a simple JSON object, enclosed in curly braces, using \" to wrap keys and values.\n"+
		"Observation: the result of the action\n\n"+
		"Once all necessary information is gathered:\n\n"+
		"Thought: I now know the final answer\n"+
		"Final Answer: the final answer to the original input question\n",
		strings.Join(tools.Names(), ", "))
	return builder.String()
}

func taskPrompt(task *Task, taskContext string) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "Current Task: %s\n\nThis is the expected criteria for your final answer: %s\n"+
		"You MUST return the actual complete content as the final answer, not a summary.\n",
		task.Description, task.ExpectedOutput)
	if taskContext != "" {
		fmt.Fprintf(&builder, "\nThis is the context you're working with:\n%s\n", taskContext)
	}
	builder.WriteString("\nBegin! This is VERY important to you, use the tools available and give your best Final Answer, your job depends on it!\n\nThought:")
	return builder.String()
}
