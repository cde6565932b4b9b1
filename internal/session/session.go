// ABOUTME: Session store tracking who is logged in to the blog backend
// ABOUTME: Mediates login, register, logout and refresh with last-issued-wins sequencing

package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/samarblogs/blogcli/internal/client"
)

// API is the slice of the backend client the store needs
type API interface {
	Me(ctx context.Context) (*client.User, error)
	Login(ctx context.Context, email, password string) (*client.AuthResponse, error)
	Register(ctx context.Context, name, email, password string) (*client.AuthResponse, error)
	Logout(ctx context.Context) (string, error)
	ClearCredentials()
}

// Phase is the coarse authentication state
type Phase int

const (
	PhaseUnknown Phase = iota
	PhaseAuthenticated
	PhaseAnonymous
)

func (p Phase) String() string {
	switch p {
	case PhaseUnknown:
		return "unknown"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseAnonymous:
		return "anonymous"
	default:
		return "invalid"
	}
}

// State is a snapshot of the session. User is nil when nobody is logged in.
type State struct {
	User    *client.User
	Loading bool
}

// Phase derives the coarse state. Loading always reads as Unknown.
func (s State) Phase() Phase {
	switch {
	case s.Loading:
		return PhaseUnknown
	case s.User != nil:
		return PhaseAuthenticated
	default:
		return PhaseAnonymous
	}
}

// AuthError is returned by Login and Register. Its message is fit for display.
type AuthError struct {
	Op  string // "login" or "register"
	Err error
}

func (e *AuthError) Error() string {
	if msg := client.ErrorMessage(e.Err); msg != "" {
		return msg
	}
	if e.Op == "register" {
		return "Registration failed"
	}
	return "Login failed"
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Store is the single source of truth for the current user. Every
// operation takes a sequence number when it starts; results from an
// operation that is no longer the latest issued are dropped.
type Store struct {
	api API

	mu       sync.Mutex
	state    State
	seq      uint64
	pending  int // refreshes in flight
	started  bool
	subs     map[int]chan State
	nextSubs int
}

// New creates a store in the Unknown phase. Call Start to run the initial check.
func New(api API) *Store {
	return &Store{
		api:   api,
		state: State{Loading: true},
		subs:  make(map[int]chan State),
	}
}

// State returns the current snapshot
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Phase returns the current coarse state
func (s *Store) Phase() Phase {
	return s.State().Phase()
}

// Start runs the initial refresh. Only the first call does anything.
func (s *Store) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	s.Refresh(ctx)
}

// Refresh asks the backend who is logged in. Failures are logged and
// leave the session anonymous; Refresh never reports them.
func (s *Store) Refresh(ctx context.Context) {
	s.mu.Lock()
	seq := s.nextSeqLocked()
	s.pending++
	s.state.Loading = true
	s.publishLocked()
	s.mu.Unlock()

	user, err := s.api.Me(ctx)
	if err != nil {
		slog.Info("Failed to fetch user", "error", err)
		user = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending--
	if seq == s.seq {
		s.state.User = user
	} else {
		slog.Debug("Discarding stale refresh result", "seq", seq, "latest", s.seq)
	}
	if s.pending == 0 {
		s.state.Loading = false
	}
	s.publishLocked()
}

// Login authenticates with email and password. On failure the current
// user is left untouched and the error carries the server's message.
func (s *Store) Login(ctx context.Context, email, password string) (*client.AuthResponse, error) {
	seq := s.nextSeq()

	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		slog.Warn("Login failed", "error", err)
		return nil, &AuthError{Op: "login", Err: err}
	}
	s.applyIdentity(seq, resp.User)
	return resp, nil
}

// Register creates an account and logs in as it. Same contract as Login.
func (s *Store) Register(ctx context.Context, name, email, password string) (*client.AuthResponse, error) {
	seq := s.nextSeq()

	resp, err := s.api.Register(ctx, name, email, password)
	if err != nil {
		slog.Warn("Register failed", "error", err)
		return nil, &AuthError{Op: "register", Err: err}
	}
	s.applyIdentity(seq, resp.User)
	return resp, nil
}

// Logout ends the session. The backend call is best effort; the local
// user and stored credentials are cleared whatever it returns, unless a
// newer operation has been issued meanwhile.
func (s *Store) Logout(ctx context.Context) {
	seq := s.nextSeq()

	if _, err := s.api.Logout(ctx); err != nil {
		slog.Info("Logout failed", "error", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		slog.Debug("Discarding stale logout result", "seq", seq, "latest", s.seq)
		return
	}
	s.api.ClearCredentials()
	s.state.User = nil
	if s.pending == 0 {
		s.state.Loading = false
	}
	s.publishLocked()
}

// Subscribe returns a channel that receives the latest state after every
// change. Slow readers only see the most recent state. Call cancel to
// stop receiving; the channel is closed.
func (s *Store) Subscribe() (<-chan State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubs
	s.nextSubs++
	ch := make(chan State, 1)
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Store) applyIdentity(seq uint64, user *client.User) {
	if user == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		slog.Debug("Discarding stale login result", "seq", seq, "latest", s.seq)
		return
	}
	s.state.User = user
	s.state.Loading = false
	s.publishLocked()
}

func (s *Store) nextSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextSeqLocked()
}

func (s *Store) nextSeqLocked() uint64 {
	s.seq++
	return s.seq
}

func (s *Store) publishLocked() {
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s.state
	}
}
