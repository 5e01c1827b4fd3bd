// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

// Package crew runs a team of LLM agents through a fixed sequence of
// tasks. Each task is handled by one agent in a ReAct loop: the model
// writes Thought/Action/Action Input lines, the executor runs the named
// tool and feeds the result back as an Observation, until the model
// writes a Final Answer. Task outputs accumulate and are passed to
// later tasks as context.
//
// Agents that allow delegation get two extra tools that hand a
// sub-task or a question to a coworker. Coworkers run without
// delegation tools of their own.
//
// NewCodingCrew assembles the five-role software team whose planning
// and coding prompts go through the MQTT generation family, whose
// stakeholder questions go through the decision family, and whose
// output lands in a GitHub repository.
package crew
