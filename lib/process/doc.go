// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides entrypoint helpers for the codingcrew
// binaries: reporting the error that ended run() to stderr, which works
// before the structured logger exists, and choosing the exit status.
package process
