// Package session holds the client's authenticated identity and bearer token,
// and keeps the token and role cookies in step with it.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prathamisonline/multiseller-ecom-sub001/internal/logger"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/storage"

	"go.uber.org/zap"
)

const StorageKey = "auth-storage"

// CookieSink receives the request-visible mirror of the session.
type CookieSink interface {
	SetAuthCookies(token, role string)
	ClearAuthCookies()
}

type Option func(*Store)

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Store is safe for concurrent use. Every mutation updates memory, cookies and
// durable storage while holding the same lock, so readers and listeners never
// see a token without its matching role cookie.
type Store struct {
	mu      sync.Mutex
	storage storage.Storage
	cookies CookieSink
	log     *zap.Logger

	identity      *Identity
	token         string
	authenticated bool

	listeners map[int]func(Event)
	nextID    int
}

func New(st storage.Storage, cookies CookieSink, opts ...Option) *Store {
	s := &Store{
		storage:   st,
		cookies:   cookies,
		log:       logger.L(),
		listeners: make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(zap.String("component", "session"))
	return s
}

// SetSession installs identity and token. The in-memory session and cookies are
// always applied; a non-nil error reports that the durable snapshot was not written.
func (s *Store) SetSession(ctx context.Context, identity Identity, token string) error {
	if token == "" || !identity.Role.IsValid() {
		return ErrInvalidSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.snapshotLocked()
	s.identity = &identity
	s.token = token
	s.authenticated = true
	s.cookies.SetAuthCookies(token, string(identity.Role))

	next := s.snapshotLocked()
	s.notifyLocked(prev, next)

	s.log.Debug("session set", zap.String("user_id", identity.ID), zap.String("role", string(identity.Role)))
	return s.persistLocked(ctx, next)
}

// ClearSession drops the session, both cookies and the durable entry. Safe to repeat.
func (s *Store) ClearSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.snapshotLocked()
	s.identity = nil
	s.token = ""
	s.authenticated = false
	s.cookies.ClearAuthCookies()

	s.notifyLocked(prev, s.snapshotLocked())

	if prev.IsAuthenticated {
		s.log.Debug("session cleared", zap.String("user_id", prev.Identity.ID))
	}
	if err := s.storage.Delete(ctx, StorageKey); err != nil {
		return fmt.Errorf("delete session snapshot: %w", err)
	}
	return nil
}

// UpdateIdentity replaces the identity of the active session. The token and
// authentication state are untouched; the role cookie follows a role change.
func (s *Store) UpdateIdentity(ctx context.Context, identity Identity) error {
	if !identity.Role.IsValid() {
		return ErrInvalidIdentity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.authenticated {
		return ErrNotAuthenticated
	}

	roleChanged := s.identity.Role != identity.Role
	s.identity = &identity
	if roleChanged {
		s.cookies.SetAuthCookies(s.token, string(identity.Role))
		s.log.Info("role changed", zap.String("user_id", identity.ID), zap.String("role", string(identity.Role)))
	}

	return s.persistLocked(ctx, s.snapshotLocked())
}

// Restore loads the persisted session, re-mirroring its cookies. A snapshot that
// cannot be decoded or breaks the session invariant is deleted and reported as
// ErrStaleSnapshot; a live in-memory session is kept and written back in its place.
// Storage failures are returned without touching memory or the durable entry.
func (s *Store) Restore(ctx context.Context) error {
	var snap Snapshot
	err := s.storage.Load(ctx, StorageKey, &snap)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil && !errors.Is(err, storage.ErrCorrupt) {
		return fmt.Errorf("load session snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil || !snap.Consistent() || (snap.Identity != nil && !snap.Identity.Role.IsValid()) {
		s.log.Warn("discarding persisted session", zap.Error(err))
		s.discardLocked(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrStaleSnapshot, err)
		}
		return ErrStaleSnapshot
	}

	prev := s.snapshotLocked()
	if !snap.IsAuthenticated {
		s.identity = nil
		s.token = ""
		s.authenticated = false
		s.cookies.ClearAuthCookies()
	} else {
		identity := *snap.Identity
		s.identity = &identity
		s.token = snap.Token
		s.authenticated = true
		s.cookies.SetAuthCookies(snap.Token, string(identity.Role))
	}
	s.notifyLocked(prev, s.snapshotLocked())

	return nil
}

// discardLocked drops a broken durable entry. Cookies are cleared only when
// memory holds no session, so they keep matching the in-memory role.
func (s *Store) discardLocked(ctx context.Context) {
	if s.authenticated {
		_ = s.persistLocked(ctx, s.snapshotLocked())
		return
	}
	s.cookies.ClearAuthCookies()
	if err := s.storage.Delete(ctx, StorageKey); err != nil {
		s.log.Warn("failed to delete persisted session", zap.Error(err))
	}
}

// Subscribe registers fn for authentication changes: logging in, logging out, or
// switching to a different identity. fn runs with the store locked and must not
// call back into the store.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Identity returns a copy of the current identity, or nil when logged out.
func (s *Store) Identity() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return nil
	}
	identity := *s.identity
	return &identity
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{Token: s.token, IsAuthenticated: s.authenticated}
	if s.identity != nil {
		identity := *s.identity
		snap.Identity = &identity
	}
	return snap
}

func (s *Store) persistLocked(ctx context.Context, snap Snapshot) error {
	if err := s.storage.Save(ctx, StorageKey, snap); err != nil {
		s.log.Warn("failed to persist session", zap.Error(err))
		return fmt.Errorf("persist session snapshot: %w", err)
	}
	return nil
}

func (s *Store) notifyLocked(prev, next Snapshot) {
	changed := prev.IsAuthenticated != next.IsAuthenticated ||
		(next.IsAuthenticated && prev.Identity.ID != next.Identity.ID)
	if !changed {
		return
	}

	ev := Event{Authenticated: next.IsAuthenticated, Token: next.Token}
	if next.Identity != nil {
		identity := *next.Identity
		ev.Identity = &identity
	}
	for _, fn := range s.listeners {
		fn(ev)
	}
}
