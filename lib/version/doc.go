// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for the codingcrew
// binaries.
//
// [GitCommit], [GitDirty], [BuildTime] and [Version] are injected at
// build time via -ldflags -X and default to "unknown" / "0.1.0-dev" in
// development builds and tests. [Info] formats them for --version
// output, [Full] adds the Go version and platform, and [Print] writes
// the line a binary prints for --version.
package version
