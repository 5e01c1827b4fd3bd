// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

// crew-stakeholder lets a human answer the questions codingcrew agents
// ask. It subscribes to the decision request topic, shows each question
// in the terminal, reads one answer line from stdin, and publishes it
// on the decision response topic with the question's EventId. Questions
// are answered in arrival order.
//
// It reads the same configuration as codingcrew (broker, topics and
// encoding are used).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/muesli/termenv"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/SmartHomeBobby/Module-CodingCrew/lib/codec"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/config"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/mqtt"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/process"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/version"
)

// questionQueue bounds requests waiting for an answer.
const questionQueue = 64

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var configPath string
	var plain, showVersion bool

	flagSet := pflag.NewFlagSet("crew-stakeholder", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to a YAML config file (default: $CODINGCREW_CONFIG)")
	flagSet.BoolVar(&plain, "plain", false, "print questions as plain text even on a terminal")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if showVersion {
		version.Print(os.Stdout, "crew-stakeholder")
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	envelopeCodec, err := codec.ByName(cfg.Encoding)
	if err != nil {
		return err
	}

	debug := os.Getenv("CODINGCREW_DEBUG") != ""
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	mqtt.RouteLibraryLogs(logger, debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := mqtt.NewClient(mqtt.Config{
		Host:           cfg.Broker.Host,
		Port:           cfg.Broker.Port,
		Username:       cfg.Broker.Username,
		Password:       cfg.Broker.Password,
		ClientID:       mqtt.NewClientID("crew_stakeholder"),
		KeepAlive:      cfg.Broker.KeepAlive,
		ConnectTimeout: cfg.Broker.ConnectTimeout,
		AutoReconnect:  cfg.Broker.AutoReconnect,
		QoS:            cfg.Broker.QoS,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	styled := !plain && term.IsTerminal(int(os.Stdout.Fd()))
	width := 80
	if styled {
		if columns, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			width = columns
		}
	}
	profile := termenv.Ascii
	if styled {
		profile = termenv.EnvColorProfile()
	}

	requests := make(chan []byte, questionQueue)
	handler := func(_ string, payload []byte) {
		select {
		case requests <- payload:
		default:
			logger.Error("question queue full, dropping decision request", "bytes", len(payload))
		}
	}
	if err := client.Start(ctx, handler, cfg.Topics.DecisionRequest); err != nil {
		return err
	}
	defer client.Stop()
	fmt.Fprintf(os.Stdout, "Waiting for questions on %s (broker %s). Ctrl-D to quit.\n", cfg.Topics.DecisionRequest, client.BrokerURL())

	responder := &responder{
		codec:         envelopeCodec,
		publisher:     client,
		responseTopic: cfg.Topics.DecisionResponse,
		input:         readLines(os.Stdin),
		output:        os.Stdout,
		renderer:      newRenderer(os.Stdout, styled, width, profile),
		logger:        logger,
	}
	return responder.serve(ctx, requests)
}
