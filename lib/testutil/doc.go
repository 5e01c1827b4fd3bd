// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive], [RequireSend], and [RequireClosed] encapsulate the
// timeout safety valve pattern (select with time.After fallback) so
// that individual tests do not need direct time.After calls. They are
// the only place in the test suite where real wall-clock timeouts are
// used; call timeouts under test run on lib/clock's fake clock.
//
// [UniqueID] generates monotonically increasing identifiers for test
// disambiguation, such as prompts or questions that must be
// distinguishable when many calls share one broker.
//
// [DiscardLogger] and [CaptureLogger] give components a logger without
// writing to the test output; the captured variant lets a test assert
// that a dropped message was reported.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no module-internal dependencies.
package testutil
