// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

// Package toolserver defines the interface between the agent loop and
// the tools an agent may call. The loop depends only on [Tool] and
// [Registry]; concrete tools (shell, stakeholder questions, GitHub,
// git) live in lib/crew and are registered per agent.
package toolserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Tool is one callable capability.
type Tool interface {
	// Name is what the model writes after "Action:".
	Name() string

	// Description tells the model when to use the tool.
	Description() string

	// InputSchema is the JSON Schema of the arguments object.
	InputSchema() json.RawMessage

	// Call runs the tool. A returned error is a tool failure that the
	// agent loop reports back to the model as an observation; it does
	// not abort the loop.
	Call(ctx context.Context, arguments json.RawMessage) (string, error)
}

// ToolExport describes a tool for prompt rendering without exposing
// its implementation.
type ToolExport struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// Func adapts a function to the Tool interface.
type Func struct {
	ToolName        string
	ToolDescription string
	Schema          json.RawMessage
	Fn              func(ctx context.Context, arguments json.RawMessage) (string, error)
}

func (f *Func) Name() string                 { return f.ToolName }
func (f *Func) Description() string          { return f.ToolDescription }
func (f *Func) InputSchema() json.RawMessage { return f.Schema }

func (f *Func) Call(ctx context.Context, arguments json.RawMessage) (string, error) {
	return f.Fn(ctx, arguments)
}

// UnknownToolError is returned by Registry.Call for a name that is not
// registered.
type UnknownToolError struct {
	Name      string
	Available []string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("toolserver: unknown tool %q (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

// Registry is an ordered set of tools. Lookups ignore case and
// surrounding whitespace, since models are sloppy about both.
type Registry struct {
	tools []Tool
	index map[string]Tool
}

// NewRegistry returns a registry holding tools, in order.
func NewRegistry(tools ...Tool) (*Registry, error) {
	registry := &Registry{index: make(map[string]Tool)}
	for _, tool := range tools {
		if err := registry.Add(tool); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// Add registers tool. Names must be unique ignoring case.
func (r *Registry) Add(tool Tool) error {
	key := normalize(tool.Name())
	if key == "" {
		return fmt.Errorf("toolserver: tool has no name")
	}
	if _, exists := r.index[key]; exists {
		return fmt.Errorf("toolserver: duplicate tool %q", tool.Name())
	}
	r.tools = append(r.tools, tool)
	r.index[key] = tool
	return nil
}

// Lookup finds a tool by name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	tool, ok := r.index[normalize(name)]
	return tool, ok
}

// Len returns the number of tools.
func (r *Registry) Len() int { return len(r.tools) }

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.tools))
	for index, tool := range r.tools {
		names[index] = tool.Name()
	}
	return names
}

// Export returns metadata for every tool in registration order.
func (r *Registry) Export() []ToolExport {
	exports := make([]ToolExport, len(r.tools))
	for index, tool := range r.tools {
		exports[index] = ToolExport{
			Name:        tool.Name(),
			Description: tool.Description(),
			InputSchema: tool.InputSchema(),
		}
	}
	return exports
}

// Describe renders the tool catalog for a system prompt.
func (r *Registry) Describe() string {
	var builder strings.Builder
	for index, export := range r.Export() {
		if index > 0 {
			builder.WriteString("\n")
		}
		fmt.Fprintf(&builder, "Tool Name: %s\nTool Arguments: %s\nTool Description: %s\n",
			export.Name, schemaText(export.InputSchema), export.Description)
	}
	return builder.String()
}

// Call runs the named tool.
func (r *Registry) Call(ctx context.Context, name string, arguments json.RawMessage) (string, error) {
	tool, ok := r.Lookup(name)
	if !ok {
		return "", &UnknownToolError{Name: name, Available: r.Names()}
	}
	return tool.Call(ctx, arguments)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func schemaText(schema json.RawMessage) string {
	if len(schema) == 0 {
		return "{}"
	}
	var decoded any
	if err := json.Unmarshal(schema, &decoded); err != nil {
		return string(schema)
	}
	encoded, err := json.Marshal(decoded)
	if err != nil {
		return string(schema)
	}
	return string(encoded)
}
