package seller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prathamisonline/multiseller-ecom-sub001/internal/logger"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/storage"

	"go.uber.org/zap"
)

const StorageKey = "seller-storage"

type StoreOption func(*Store)

func WithStoreLogger(l *zap.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Store mirrors the backend's seller profile for the logged-in identity. It
// accepts whatever status the backend reports without checking the lifecycle.
type Store struct {
	mu      sync.Mutex
	storage storage.Storage
	log     *zap.Logger
	state   State
}

func NewStore(st storage.Storage, opts ...StoreOption) *Store {
	s := &Store{storage: st, log: logger.L(), state: EmptyState()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetProfile mirrors p, or resets to the empty state when p is nil. The memory
// state is always applied; an error means the snapshot was not persisted.
func (s *Store) SetProfile(ctx context.Context, p *Profile) error {
	next := EmptyState()
	if p != nil {
		cp := *p
		next = State{
			HasSeller:  true,
			IsApproved: cp.Status == StatusApproved,
			Status:     cp.Status,
			Profile:    &cp,
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = next
	if err := s.storage.Save(ctx, StorageKey, next); err != nil {
		s.log.Warn("failed to persist seller state", zap.Error(err))
		return fmt.Errorf("persist seller state: %w", err)
	}
	return nil
}

func (s *Store) ClearProfile(ctx context.Context) error {
	return s.SetProfile(ctx, nil)
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	if st.Profile != nil {
		cp := *st.Profile
		st.Profile = &cp
	}
	return st
}

// Restore loads the persisted snapshot as a warm-start hint. Unreadable
// snapshots are dropped and the store stays empty; storage failures leave the
// entry in place.
func (s *Store) Restore(ctx context.Context) error {
	var st State
	err := s.storage.Load(ctx, StorageKey, &st)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil && !errors.Is(err, storage.ErrCorrupt) {
		return fmt.Errorf("load seller state: %w", err)
	}
	if err != nil {
		if delErr := s.storage.Delete(ctx, StorageKey); delErr != nil {
			s.log.Warn("failed to delete seller state", zap.Error(delErr))
		}
		return fmt.Errorf("load seller state: %w", err)
	}

	if st.Profile == nil {
		st = EmptyState()
	} else {
		st = State{
			HasSeller:  true,
			IsApproved: st.Profile.Status == StatusApproved,
			Status:     st.Profile.Status,
			Profile:    st.Profile,
		}
	}

	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	return nil
}
