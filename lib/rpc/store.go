// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package rpc

import (
	"errors"
	"sync"

	"github.com/SmartHomeBobby/Module-CodingCrew/lib/envelope"
)

// Waiter is the per-call rendezvous. It is resolved at most once,
// either with a reply (by the dispatcher) or with an error (by
// Store.CancelAll). Resolution closes done; reply and err are written
// before the close and read only after it.
type Waiter struct {
	done  chan struct{}
	once  sync.Once
	reply *envelope.Reply
	err   error
}

func newWaiter() *Waiter {
	return &Waiter{done: make(chan struct{})}
}

// Done is closed when the Waiter is resolved.
func (w *Waiter) Done() <-chan struct{} { return w.done }

// resolve records the outcome and wakes the caller. Later calls are
// no-ops, so a duplicate delivery cannot overwrite the first reply.
func (w *Waiter) resolve(reply *envelope.Reply, err error) bool {
	resolved := false
	w.once.Do(func() {
		w.reply = reply
		w.err = err
		close(w.done)
		resolved = true
	})
	return resolved
}

// Result returns the delivered reply, or the error the waiter was
// resolved with. It must only be called after Done is closed.
func (w *Waiter) Result() (*envelope.Reply, error) {
	return w.reply, w.err
}

var errEmptyID = errors.New("rpc: empty correlation id")

// Store maps correlation ids to pending waiters. All methods are safe
// for concurrent use. Every critical section is a single map operation;
// no caller ever waits while holding the lock.
type Store struct {
	mu      sync.Mutex
	waiters map[string]*Waiter
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{waiters: make(map[string]*Waiter)}
}

// Register creates the Waiter for id. An id that is already pending is
// rejected with *DuplicateIDError rather than replaced: overwriting
// would strand the first caller until its timeout.
func (s *Store) Register(id string) (*Waiter, error) {
	if id == "" {
		return nil, errEmptyID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.waiters[id]; exists {
		return nil, &DuplicateIDError{ID: id}
	}
	w := newWaiter()
	s.waiters[id] = w
	return w, nil
}

// Deliver hands reply to the Waiter for id and wakes it. It returns
// false when nobody is waiting for id (never registered, already
// resolved and removed, or timed out), which is the normal outcome for
// late and duplicate replies. The lookup and the wake happen under the
// lock, so Deliver cannot interleave with Remove for the same id.
func (s *Store) Deliver(id string, reply *envelope.Reply) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, exists := s.waiters[id]
	if !exists {
		return false
	}
	return w.resolve(reply, nil)
}

// Remove deletes the entry for id. Removing an absent id is a no-op.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	delete(s.waiters, id)
	s.mu.Unlock()
}

// Len returns the number of outstanding calls.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.waiters)
}

// CancelAll resolves every pending Waiter with err and returns how
// many were woken. Entries stay in the map; each caller removes its
// own on the way out, as on any other path.
func (s *Store) CancelAll(err error) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	woken := 0
	for _, w := range s.waiters {
		if w.resolve(nil, err) {
			woken++
		}
	}
	return woken
}
