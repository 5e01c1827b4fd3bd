// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

// codingcrew runs a team of LLM agents that plans, writes, tests and
// publishes a software project. Every model prompt goes out as an MQTT
// request to the LLM module and blocks until its reply arrives; agents
// that need a human decision ask the stakeholder over a second pair of
// topics (see crew-stakeholder).
//
// Configuration comes from defaults, an optional YAML file (--config or
// CODINGCREW_CONFIG) and environment variables such as MQTT_BROKER,
// PROJECT_GOAL and GITHUB_TOKEN. Set CODINGCREW_DEBUG for debug logs.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/SmartHomeBobby/Module-CodingCrew/lib/config"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/mqtt"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/process"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/tracing"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var configPath, goal, details, workdir string
	var showVersion bool

	flagSet := pflag.NewFlagSet("codingcrew", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to a YAML config file (default: $CODINGCREW_CONFIG)")
	flagSet.StringVar(&goal, "goal", "", "project goal (overrides PROJECT_GOAL)")
	flagSet.StringVar(&details, "details", "", "technical details (overrides TECHNICAL_DETAILS)")
	flagSet.StringVar(&workdir, "workdir", "", "directory generated projects are written to (overrides crew.output_dir)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if showVersion {
		version.Print(os.Stdout, "codingcrew")
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if goal != "" {
		cfg.Crew.Goal = goal
	}
	if details != "" {
		cfg.Crew.Details = details
	}
	if workdir != "" {
		cfg.Crew.OutputDir = workdir
	}

	debug := os.Getenv("CODINGCREW_DEBUG") != ""
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	mqtt.RouteLibraryLogs(logger, debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		Endpoint:       cfg.Tracing.Endpoint,
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version.Version,
		Insecure:       cfg.Tracing.Insecure,
		Logger:         logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("flushing traces failed", "error", err)
		}
	}()

	client, err := mqtt.NewClient(mqtt.Config{
		Host:           cfg.Broker.Host,
		Port:           cfg.Broker.Port,
		Username:       cfg.Broker.Username,
		Password:       cfg.Broker.Password,
		ClientID:       mqtt.NewClientID(cfg.Broker.ClientIDPrefix),
		KeepAlive:      cfg.Broker.KeepAlive,
		ConnectTimeout: cfg.Broker.ConnectTimeout,
		AutoReconnect:  cfg.Broker.AutoReconnect,
		QoS:            cfg.Broker.QoS,
		Logger:         logger,
	})
	if err != nil {
		return err
	}
	logger.Info("starting codingcrew",
		"version", version.Info(),
		"broker", client.BrokerURL(),
		"client_id", client.ClientID(),
		"goal", cfg.Crew.Goal,
	)

	output, err := runCrew(ctx, cfg, client, logger)
	if err != nil {
		return err
	}
	logger.Info("crew finished", "tasks", len(output.Tasks))
	fmt.Fprintln(os.Stdout, output.Raw)
	return nil
}
