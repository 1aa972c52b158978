package scheme

import (
	"context"
	"fmt"
	"sync"

	"github.com/systmms/dsauth/internal/secure"
	"github.com/systmms/dsauth/pkg/secret"
)

// Invalidator drops a cached token so the next acquisition produces a fresh
// one. It is fire-and-forget.
type Invalidator interface {
	InvalidateToken(accountType, token string)
}

// SessionState is a step of the session lifecycle.
type SessionState int

const (
	Uninitialized SessionState = iota
	SecretLoaded
	Refreshing
	Ready
)

func (s SessionState) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case SecretLoaded:
		return "secret-loaded"
	case Refreshing:
		return "refreshing"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

// Session holds the materialized token of one account. The token is kept in
// an encrypted enclave between uses.
type Session struct {
	handler     Handler
	account     Account
	invalidator Invalidator

	mu        sync.Mutex
	state     SessionState
	kind      secret.Kind
	token     *secure.SecureBuffer
	refreshed bool
	history   []SessionState
}

// Open acquires a token for account and returns a Ready session. When the
// handler asks for a refresh the token is invalidated and acquired once more;
// the second token is used whether or not it also asks for a refresh.
func Open(ctx context.Context, h Handler, account Account, inv Invalidator) (*Session, error) {
	s := &Session{
		handler:     h,
		account:     account,
		invalidator: inv,
		state:       Uninitialized,
		history:     []SessionState{Uninitialized},
	}

	tok, err := h.Acquire(ctx, account)
	if err != nil {
		return nil, err
	}
	s.enter(SecretLoaded)

	if h.NeedsRefresh(tok) {
		s.enter(Refreshing)
		if inv != nil {
			inv.InvalidateToken(TokenType(h.Tag()), tok.String())
		}
		tok, err = h.Acquire(ctx, account)
		if err != nil {
			return nil, err
		}
		s.refreshed = true
		s.enter(SecretLoaded)
	}

	buf, err := secure.NewSecureString(tok.String())
	if err != nil {
		return nil, err
	}
	s.token = buf
	s.kind = tok.Kind()
	s.enter(Ready)
	return s, nil
}

func (s *Session) enter(state SessionState) {
	s.state = state
	s.history = append(s.history, state)
}

// State returns the current state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// History returns every state the session went through, oldest first.
func (s *Session) History() []SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SessionState, len(s.history))
	copy(out, s.history)
	return out
}

// Refreshed reports whether a refresh happened while opening.
func (s *Session) Refreshed() bool {
	return s.refreshed
}

// Handler returns the handler the session was opened with.
func (s *Session) Handler() Handler {
	return s.handler
}

// Kind returns the kind of the held token.
func (s *Session) Kind() secret.Kind {
	return s.kind
}

// Token returns the protected token string.
func (s *Session) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Ready {
		return "", fmt.Errorf("session for %s is %s", s.account.ID, s.state)
	}
	return s.token.Reveal()
}

// Secret unprotects the held token with codec.
func (s *Session) Secret(codec *secret.Codec) (*secret.Protected, error) {
	raw, err := s.Token()
	if err != nil {
		return nil, err
	}
	return codec.Open(s.kind, raw)
}

// Invalidate tells the invalidator to drop the held token and closes the
// session.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Ready {
		return
	}
	if s.invalidator != nil {
		if raw, err := s.token.Reveal(); err == nil {
			s.invalidator.InvalidateToken(TokenType(s.handler.Tag()), raw)
		}
	}
	s.closeLocked()
}

// Close wipes the held token.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *Session) closeLocked() {
	if s.token != nil {
		s.token.Destroy()
	}
	if s.state != Uninitialized {
		s.enter(Uninitialized)
	}
}
