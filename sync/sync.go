/*
Package sync mirrors the local buckets to an optional remote document
store.

PURPOSE:
  One Session owns the whole mirror lifecycle: Start pulls the remote
  state once (the cloud value wins unconditionally whenever it differs
  from the local one), subscribes to local repository changes, and pushes
  the dirty buckets after a short debounce. Stop tears everything down.

SEMANTICS (deliberately weak):
  - Last write wins. There is no merge, no causality tracking: two
    sessions on the same account can race and the later push silently
    overwrites the earlier one.
  - Failures are logged and surfaced through Status(); they are never
    fatal and never retried automatically. The application stays fully
    usable offline.

TIMING:
  - push debounce: 2s after the last local write
  - remote call timeout: 10s
*/
package sync

import (
	"bytes"
	"context"
	"log"
	"sync"
	"time"

	"github.com/nodebox/fact-engine/store"
)

const (
	// DefaultDebounce is how long local writes are coalesced before a push.
	DefaultDebounce = 2 * time.Second
	// DefaultTimeout caps every remote call.
	DefaultTimeout = 10 * time.Second
)

// RemoteStore is the cloud side of the mirror: whole buckets in, whole
// buckets out, keyed by user.
type RemoteStore interface {
	Read(ctx context.Context, userID string) (map[string][]byte, error)
	Write(ctx context.Context, userID string, buckets map[string][]byte) error
}

// Status is a snapshot of the session for display.
type Status struct {
	Running    bool      `json:"running"`
	UserID     string    `json:"userId,omitempty"`
	Dirty      int       `json:"dirty"`
	LastPullAt time.Time `json:"lastPullAt"`
	LastPushAt time.Time `json:"lastPushAt"`
	LastError  string    `json:"lastError,omitempty"`
}

// Session mirrors the tracked buckets for one user.
type Session struct {
	repos    *store.Repos
	remote   RemoteStore
	debounce time.Duration
	timeout  time.Duration

	mu          sync.Mutex
	userID      string
	running     bool
	dirty       map[string]struct{}
	timer       *time.Timer
	unsubscribe func()
	status      Status
}

// Option tweaks a Session; tests shorten the timers.
type Option func(*Session)

func WithDebounce(d time.Duration) Option { return func(s *Session) { s.debounce = d } }
func WithTimeout(d time.Duration) Option  { return func(s *Session) { s.timeout = d } }

// NewSession builds an idle session. Nothing happens until Start.
func NewSession(repos *store.Repos, remote RemoteStore, opts ...Option) *Session {
	s := &Session{
		repos:    repos,
		remote:   remote,
		debounce: DefaultDebounce,
		timeout:  DefaultTimeout,
		dirty:    map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start pulls the remote state for userID and begins watching local
// writes. Starting an already running session is a no-op.
func (s *Session) Start(ctx context.Context, userID string) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.userID = userID
	s.mu.Unlock()

	if err := s.Pull(ctx); err != nil {
		// Offline start is fine; local data remains authoritative until
		// the next successful pull.
		log.Printf("sync: initial pull failed: %v", err)
	}

	s.mu.Lock()
	s.unsubscribe = s.repos.OnChange(s.bucketChanged)
	s.mu.Unlock()
	return nil
}

// Stop unsubscribes and drops any pending push.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.dirty = map[string]struct{}{}
}

// Status returns a copy of the current session state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status
	st.Running = s.running
	st.UserID = s.userID
	st.Dirty = len(s.dirty)
	return st
}

// Pull fetches the remote buckets and overwrites every local bucket whose
// value differs. The cloud value wins unconditionally.
func (s *Session) Pull(ctx context.Context) error {
	s.mu.Lock()
	userID := s.userID
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	remote, err := s.remote.Read(ctx, userID)
	if err != nil {
		s.setError(err)
		return err
	}

	var failed bool
	for _, bucket := range store.SyncBuckets() {
		value, ok := remote[bucket]
		if !ok {
			continue
		}
		local, err := s.repos.Store().Get(ctx, bucket)
		if err != nil {
			s.setError(err)
			failed = true
			continue
		}
		if bytes.Equal(local, value) {
			continue
		}
		if err := s.repos.ApplyRemote(ctx, bucket, value); err != nil {
			s.setError(err)
			failed = true
		}
	}

	s.mu.Lock()
	s.status.LastPullAt = time.Now()
	if !failed {
		s.status.LastError = ""
	}
	s.mu.Unlock()
	return nil
}

// bucketChanged marks a tracked bucket dirty and (re)arms the debounce.
func (s *Session) bucketChanged(bucket string) {
	if !tracked(bucket) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.dirty[bucket] = struct{}{}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.flush)
}

// flush pushes every dirty bucket in one remote write.
func (s *Session) flush() {
	s.mu.Lock()
	if !s.running || len(s.dirty) == 0 {
		s.mu.Unlock()
		return
	}
	buckets := make([]string, 0, len(s.dirty))
	for b := range s.dirty {
		buckets = append(buckets, b)
	}
	s.dirty = map[string]struct{}{}
	userID := s.userID
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	payload := make(map[string][]byte, len(buckets))
	for _, bucket := range buckets {
		raw, err := s.repos.Store().Get(ctx, bucket)
		if err != nil {
			s.setError(err)
			continue
		}
		payload[bucket] = raw
	}
	if len(payload) == 0 {
		return
	}

	if err := s.remote.Write(ctx, userID, payload); err != nil {
		log.Printf("sync: push failed: %v", err)
		s.setError(err)
		return
	}

	s.mu.Lock()
	s.status.LastPushAt = time.Now()
	s.status.LastError = ""
	s.mu.Unlock()
}

func (s *Session) setError(err error) {
	s.mu.Lock()
	s.status.LastError = err.Error()
	s.mu.Unlock()
}

func tracked(bucket string) bool {
	for _, b := range store.SyncBuckets() {
		if b == bucket {
			return true
		}
	}
	return false
}
