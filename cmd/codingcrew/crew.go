// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/SmartHomeBobby/Module-CodingCrew/lib/codec"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/config"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/crew"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/envelope"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/github"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/llm"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/rpc"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/shell"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/version"
)

// runCrew connects one bridge over transport, runs the coding crew to
// completion, and stops the bridge.
func runCrew(ctx context.Context, cfg *config.Config, transport rpc.Transport, logger *slog.Logger) (*crew.Output, error) {
	envelopeCodec, err := codec.ByName(cfg.Encoding)
	if err != nil {
		return nil, err
	}
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}

	bridge, err := rpc.NewBridge(rpc.Config{
		Transport: transport,
		Families: []*rpc.Family{
			rpc.GenerationFamily(cfg.Topics.Request, cfg.Topics.Response, cfg.Timeouts.Generation),
			rpc.DecisionFamily(cfg.Topics.DecisionRequest, cfg.Topics.DecisionResponse, cfg.Timeouts.Decision),
		},
		Codec:               envelopeCodec,
		Sender:              envelope.Sender{Host: host, Version: version.Version},
		Logger:              logger,
		CancelPendingOnStop: cfg.Shutdown.CancelPending,
	})
	if err != nil {
		return nil, err
	}
	if err := bridge.Start(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if err := bridge.Stop(); err != nil {
			logger.Warn("stopping bridge", "error", err)
		}
	}()

	team, err := newCrew(cfg, bridge, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("kicking off crew", "agents", len(team.Agents), "tasks", len(team.Tasks))
	return team.Kickoff(ctx)
}

// newCrew wires the coding crew's providers and tools to bridge.
func newCrew(cfg *config.Config, bridge *rpc.Bridge, logger *slog.Logger) (*crew.Crew, error) {
	workspace, err := crew.NewWorkspace(cfg.Crew.OutputDir)
	if err != nil {
		return nil, err
	}
	logger.Info("workspace ready", "dir", workspace.Root())

	planner, err := llm.NewBridgeProvider(llm.BridgeConfig{
		Generator:   bridge,
		RequestType: crew.PlannerRequestType,
		Priority:    crew.LLMPriority,
		Logger:      logger.With("llm", "planner"),
	})
	if err != nil {
		return nil, err
	}
	coder, err := llm.NewBridgeProvider(llm.BridgeConfig{
		Generator:   bridge,
		RequestType: crew.CoderRequestType,
		Priority:    crew.LLMPriority,
		Logger:      logger.With("llm", "coder"),
	})
	if err != nil {
		return nil, err
	}

	var repositories crew.RepositoryCreator
	if cfg.GitHub.Token != "" {
		client, err := github.NewClient(github.Config{
			BaseURL: cfg.GitHub.BaseURL,
			Token:   cfg.GitHub.Token,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
		repositories = client
	} else {
		logger.Warn("GITHUB_TOKEN not set, repository creation disabled")
	}

	return crew.NewCodingCrew(crew.CodingCrewParams{
		Goal:    cfg.Crew.Goal,
		Details: cfg.Crew.Details,
		Planner: planner,
		Coder:   coder,
		Runner: shell.NewRunner(shell.Config{
			Timeout: cfg.Shell.Timeout,
			Shell:   cfg.Shell.Shell,
			Logger:  logger,
		}),
		Decider:       bridge,
		Workspace:     workspace,
		GitHub:        repositories,
		GitHubToken:   cfg.GitHub.Token,
		MaxIterations: cfg.Crew.MaxIterations,
		Logger:        logger,
	})
}
