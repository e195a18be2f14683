// Package session holds the authenticated user for the lifetime of the
// process. A Session is created once and injected into every component that
// needs the identity or the bearer token.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"medibook-console/internal/auth"
	"medibook-console/internal/model"
	"medibook-console/internal/store"
)

var ErrIncomplete = errors.New("session: login response is missing id, role or token")

type Session struct {
	mu       sync.RWMutex
	store    store.Store
	user     *model.User
	log      *zap.Logger
	now      func() time.Time
	onExpire func()
}

func New(st store.Store, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{store: st, log: log, now: time.Now}
}

// OnExpire registers the navigation hook run after the server rejects the
// token. It replaces any previous hook.
func (s *Session) OnExpire(fn func()) {
	s.mu.Lock()
	s.onExpire = fn
	s.mu.Unlock()
}

// Init rehydrates the session from the store. Unreadable or expired records
// are removed so the next run starts signed out.
func (s *Session) Init(ctx context.Context) error {
	u, err := s.store.Load(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil
	case errors.Is(err, store.ErrCorrupt), errors.Is(err, store.ErrSealed), errors.Is(err, store.ErrLocked):
		s.log.Warn("Session.Init discarding unreadable session", zap.Error(err))
		return s.store.Clear(ctx)
	case err != nil:
		return fmt.Errorf("session: load: %w", err)
	}

	if u.Token == "" || auth.Expired(u.Token, s.now()) {
		s.log.Info("Session.Init discarding expired session", zap.String("user_id", u.ID))
		return s.store.Clear(ctx)
	}

	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
	s.log.Debug("Session.Init rehydrated", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
	return nil
}

// Login persists u and makes it current. Nothing is kept in memory when the
// store write fails.
func (s *Session) Login(ctx context.Context, u model.User) error {
	if u.ID == "" || u.Token == "" || !u.Role.Valid() {
		return ErrIncomplete
	}
	if err := s.store.Save(ctx, &u); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()
	s.log.Info("Session.Login", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
	return nil
}

// Logout clears both the in-memory and the persisted copy.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("session: clear: %w", err)
	}
	return nil
}

// SessionExpired is called by the HTTP layer on a 401. It tears the session
// down and runs the navigation hook, but only if a user was signed in.
func (s *Session) SessionExpired(ctx context.Context) {
	s.mu.RLock()
	held := s.user != nil
	fn := s.onExpire
	s.mu.RUnlock()

	if err := s.Logout(ctx); err != nil {
		s.log.Error("Session.SessionExpired clear failed", zap.Error(err))
	}
	if !held {
		s.log.Debug("Session.SessionExpired with no session held")
		return
	}
	s.log.Warn("Session.SessionExpired redirecting to login")
	if fn != nil {
		fn()
	}
}

func (s *Session) User() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return model.User{}, false
	}
	return *s.user, true
}

// Token returns the bearer token, empty when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.Token
}

func (s *Session) Role() model.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.Role
}

func (s *Session) Authenticated() bool { return s.Token() != "" }
