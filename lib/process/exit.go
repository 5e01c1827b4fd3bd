// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// ExitInterrupted is the status for a run ended by SIGINT or SIGTERM,
// following the shell convention of 128+SIGINT.
const ExitInterrupted = 130

// ExitCode maps the error returned by run() to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	default:
		return 1
	}
}

// Fatal writes "error: err" to stderr and exits with ExitCode(err).
// Use it in main() for errors from run().
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(ExitCode(err))
}
