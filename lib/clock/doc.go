// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source so that timeouts in
// the request/reply bridge, the shell runner, and the GitHub client can
// be driven deterministically from tests.
//
// Production code holds a [Clock] field set to [Real]. Tests construct a
// [FakeClock] with [Fake], start the goroutine under test, call
// [FakeClock.WaitForTimers] until the goroutine has armed its timer, and
// then [FakeClock.Advance] past the deadline:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go func() { results <- bridge.Call(ctx, family, params) }()
//	fake.WaitForTimers(1)
//	fake.Advance(family.Timeout)
package clock
