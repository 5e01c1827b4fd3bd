// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/SmartHomeBobby/Module-CodingCrew/lib/clock"
)

// rateLimitTracker remembers the X-RateLimit-Remaining and
// X-RateLimit-Reset values of the latest response, so the next request
// can wait for the window to reset instead of being refused.
type rateLimitTracker struct {
	mu        sync.Mutex
	remaining int
	reset     time.Time
	known     bool
	clock     clock.Clock
}

func newRateLimitTracker(clock clock.Clock) *rateLimitTracker {
	return &rateLimitTracker{clock: clock}
}

func (tracker *rateLimitTracker) update(header http.Header) {
	remaining, errRemaining := strconv.Atoi(header.Get("X-RateLimit-Remaining"))
	resetUnix, errReset := strconv.ParseInt(header.Get("X-RateLimit-Reset"), 10, 64)
	if errRemaining != nil || errReset != nil {
		return
	}

	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	tracker.remaining = remaining
	tracker.reset = time.Unix(resetUnix, 0)
	tracker.known = true
}

// wait blocks until the reset time when the last response reported no
// remaining requests. It fails only if ctx ends first.
func (tracker *rateLimitTracker) wait(ctx context.Context) error {
	tracker.mu.Lock()
	exhausted := tracker.known && tracker.remaining <= 0
	sleep := tracker.reset.Sub(tracker.clock.Now())
	tracker.mu.Unlock()

	if !exhausted || sleep <= 0 {
		return nil
	}
	select {
	case <-tracker.clock.After(sleep):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// retryAfter returns the backoff a rate-limited response asks for:
// Retry-After seconds (secondary limits) or the time until
// X-RateLimit-Reset (primary limits). Zero means no hint was given.
func (tracker *rateLimitTracker) retryAfter(header http.Header) time.Duration {
	if seconds, err := strconv.Atoi(header.Get("Retry-After")); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if resetUnix, err := strconv.ParseInt(header.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		if duration := time.Unix(resetUnix, 0).Sub(tracker.clock.Now()); duration > 0 {
			return duration
		}
	}
	return 0
}
