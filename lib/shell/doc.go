// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

// Package shell runs agent-issued commands through /bin/sh with a
// timeout, capturing stdout, stderr and the exit status.
//
// Each command runs in its own process group. When the timeout fires
// the whole group receives SIGKILL, so build tools that fork (compilers,
// test runners, package managers) cannot outlive the command or hold
// its output pipes open.
package shell
