// Package sessionstore keeps the live quiz attempts between requests. Each
// attempt is owned by one taker, but the HTTP server is concurrent, so the
// registry itself is locked and every attempt carries its own mutex.
package sessionstore

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"quizhub/backend/quizrunner"
)

// Attempt binds a running quizrunner session to the user and quiz it belongs
// to. Handlers must hold the attempt's lock while touching Runner.
type Attempt struct {
	sync.Mutex

	Token      string
	UserID     uint
	QuizID     uint
	QuizTitle  string
	PlayerName string
	Runner     *quizrunner.Session

	lastSeen time.Time
}

// Store is a TTL-bounded registry of active attempts keyed by session token.
type Store struct {
	mu       sync.Mutex
	attempts map[string]*Attempt
	ttl      time.Duration
}

// New creates a store. Attempts idle longer than ttl are dropped; ttl <= 0
// disables expiry.
func New(ttl time.Duration) *Store {
	return &Store{
		attempts: make(map[string]*Attempt),
		ttl:      ttl,
	}
}

// Put registers the attempt, assigns it a fresh token and returns it.
func (st *Store) Put(a *Attempt) string {
	st.mu.Lock()
	defer st.mu.Unlock()

	a.Token = uuid.NewString()
	a.lastSeen = time.Now()
	st.attempts[a.Token] = a
	return a.Token
}

// Get looks up an attempt and refreshes its idle timer. An expired attempt is
// removed and reported as missing.
func (st *Store) Get(token string) (*Attempt, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	a, ok := st.attempts[token]
	if !ok {
		return nil, false
	}
	if st.expired(a) {
		delete(st.attempts, token)
		return nil, false
	}
	a.lastSeen = time.Now()
	return a, true
}

// Remove drops an attempt, typically after Finish.
func (st *Store) Remove(token string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.attempts, token)
}

// Len returns the number of live attempts.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.attempts)
}

// Sweep removes all expired attempts and returns how many were dropped.
func (st *Store) Sweep() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	dropped := 0
	for token, a := range st.attempts {
		if st.expired(a) {
			delete(st.attempts, token)
			dropped++
		}
	}
	return dropped
}

// StartSweeper runs Sweep on the given interval until stop is closed.
func (st *Store) StartSweeper(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				st.Sweep()
			case <-stop:
				return
			}
		}
	}()
}

func (st *Store) expired(a *Attempt) bool {
	return st.ttl > 0 && time.Since(a.lastSeen) > st.ttl
}
