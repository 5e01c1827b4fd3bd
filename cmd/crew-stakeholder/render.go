// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/SmartHomeBobby/Module-CodingCrew/lib/envelope"
)

const maxPanelWidth = 100

// renderer formats decision requests for the terminal: a bordered
// panel when styled, plain labelled lines otherwise (pipes, logs).
type renderer struct {
	styled bool
	width  int

	title    lipgloss.Style
	meta     lipgloss.Style
	question lipgloss.Style
	context  lipgloss.Style
	panel    lipgloss.Style
}

func newRenderer(output io.Writer, styled bool, width int, profile termenv.Profile) *renderer {
	if width <= 0 {
		width = 80
	}
	panelWidth := min(width-2, maxPanelWidth)
	lip := lipgloss.NewRenderer(output, termenv.WithProfile(profile))
	lip.SetColorProfile(profile)

	return &renderer{
		styled:   styled,
		width:    width,
		title:    lip.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		meta:     lip.NewStyle().Faint(true),
		question: lip.NewStyle().Bold(true),
		context:  lip.NewStyle().Foreground(lipgloss.Color("246")),
		panel: lip.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1).
			Width(panelWidth),
	}
}

func (r *renderer) render(request envelope.DecisionRequest) string {
	module := request.Sender.Module
	if module == "" {
		module = "unknown module"
	}
	meta := fmt.Sprintf("from %s on %s, priority %d, event %s", module, request.Sender.Host, request.Priority, request.EventID)
	context := strings.TrimSpace(request.Context)

	if !r.styled {
		var builder strings.Builder
		builder.WriteString("\n=== Stakeholder decision needed ===\n")
		builder.WriteString(meta + "\n")
		builder.WriteString("Question: " + strings.TrimSpace(request.Question) + "\n")
		if context != "" {
			builder.WriteString("Context:\n" + context + "\n")
		}
		return builder.String()
	}

	sections := []string{
		r.title.Render("Stakeholder decision needed"),
		r.meta.Render(meta),
		"",
		r.question.Render(strings.TrimSpace(request.Question)),
	}
	if context != "" {
		sections = append(sections, "", r.context.Render(context))
	}
	return "\n" + r.panel.Render(lipgloss.JoinVertical(lipgloss.Left, sections...)) + "\n"
}
