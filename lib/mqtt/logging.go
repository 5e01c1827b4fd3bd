// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// RouteLibraryLogs sends Paho's package-level ERROR, CRITICAL and WARN
// output to logger. Paho's DEBUG stream stays disabled unless debug is
// set. The Paho loggers are process-global, so binaries call this once
// at startup.
func RouteLibraryLogs(logger *slog.Logger, debug bool) {
	paho.CRITICAL = slogWriter{logger: logger, level: slog.LevelError}
	paho.ERROR = slogWriter{logger: logger, level: slog.LevelError}
	paho.WARN = slogWriter{logger: logger, level: slog.LevelWarn}
	if debug {
		paho.DEBUG = slogWriter{logger: logger, level: slog.LevelDebug}
	}
}

// slogWriter adapts slog to Paho's Println/Printf logger interface.
type slogWriter struct {
	logger *slog.Logger
	level  slog.Level
}

func (w slogWriter) Println(v ...any) {
	w.logger.Log(context.Background(), w.level, strings.TrimSpace(fmt.Sprintln(v...)), "source", "paho")
}

func (w slogWriter) Printf(format string, v ...any) {
	w.logger.Log(context.Background(), w.level, strings.TrimSpace(fmt.Sprintf(format, v...)), "source", "paho")
}
