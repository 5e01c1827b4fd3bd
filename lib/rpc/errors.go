// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package rpc

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors. Use errors.Is against these; the concrete error
// types below carry the details.
var (
	// ErrTimeout: no reply arrived within the call's timeout.
	ErrTimeout = errors.New("rpc: timed out waiting for reply")

	// ErrDuplicateID: a correlation id was registered twice. This means
	// the id generator is broken and is never retried.
	ErrDuplicateID = errors.New("rpc: duplicate correlation id")

	// ErrCancelled: the caller's context ended before a reply arrived.
	ErrCancelled = errors.New("rpc: call cancelled")

	// ErrShutdown: the bridge was stopped with CancelPendingOnStop while
	// the call was waiting.
	ErrShutdown = errors.New("rpc: bridge shut down")

	// ErrNotStarted: Call was invoked before Start or after Stop.
	ErrNotStarted = errors.New("rpc: bridge not started")
)

// TimeoutError is returned when a call's timeout elapses first.
type TimeoutError struct {
	Family  string
	ID      string
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("rpc: %s request %s timed out after %s", e.Family, e.ID, e.Elapsed)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// DuplicateIDError is returned by Store.Register for an id already
// present.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("rpc: correlation id %q is already registered", e.ID)
}

func (e *DuplicateIDError) Is(target error) bool { return target == ErrDuplicateID }

// CancelledError is returned when the caller's context ends first. It
// unwraps to the context's error.
type CancelledError struct {
	Family  string
	ID      string
	Elapsed time.Duration
	Err     error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("rpc: %s request %s cancelled after %s: %v", e.Family, e.ID, e.Elapsed, e.Err)
}

func (e *CancelledError) Is(target error) bool { return target == ErrCancelled }

func (e *CancelledError) Unwrap() error { return e.Err }

// TransportError wraps a connect, subscribe, or publish failure.
type TransportError struct {
	// Op is "start", "publish" or "stop".
	Op    string
	Topic string
	Err   error
}

func (e *TransportError) Error() string {
	if e.Topic == "" {
		return fmt.Sprintf("rpc: transport %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("rpc: transport %s %s: %v", e.Op, e.Topic, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTimeout reports whether err is (or wraps) a reply timeout.
func IsTimeout(err error) bool { return errors.Is(err, ErrTimeout) }

// IsTransport reports whether err is (or wraps) a *TransportError.
func IsTransport(err error) bool {
	var transportError *TransportError
	return errors.As(err, &transportError)
}
