// Package profilesync keeps the seller profile mirror in step with the backend
// whenever the session's authentication state changes.
package profilesync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prathamisonline/multiseller-ecom-sub001/internal/logger"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/metrics"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/seller"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/session"

	"go.uber.org/zap"
)

const defaultFetchTimeout = 10 * time.Second

// Fetcher loads the seller profile of the identity behind token. It returns
// seller.ErrProfileNotFound when the identity has none.
type Fetcher interface {
	FetchSellerProfile(ctx context.Context, token string) (*seller.Profile, error)
}

type Option func(*Synchronizer)

func WithLogger(l *zap.Logger) Option {
	return func(s *Synchronizer) {
		if l != nil {
			s.log = l
		}
	}
}

func WithReporter(r Reporter) Option {
	return func(s *Synchronizer) {
		if r != nil {
			s.reporter = r
		}
	}
}

func WithFetchTimeout(d time.Duration) Option {
	return func(s *Synchronizer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// Synchronizer applies only the result of the most recent sync. Every
// authentication change and every Resync bumps a generation counter; a fetch
// that finishes under an older generation is dropped. There is no retry loop:
// a failed sync is retried on the next authentication change or Resync.
type Synchronizer struct {
	sessions *session.Store
	profiles *seller.Store
	fetcher  Fetcher
	reporter Reporter
	log      *zap.Logger
	timeout  time.Duration

	// mu orders generation bumps against profile writes.
	mu  sync.Mutex
	gen uint64

	started    metrics.Counter
	applied    metrics.Counter
	cleared    metrics.Counter
	superseded metrics.Counter
	failed     metrics.Counter
	lastFetch  metrics.Gauge

	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
	wg          sync.WaitGroup
}

func New(sessions *session.Store, profiles *seller.Store, fetcher Fetcher, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		sessions: sessions,
		profiles: profiles,
		fetcher:  fetcher,
		log:      logger.L(),
		timeout:  defaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(zap.String("component", "profilesync"))
	if s.reporter == nil {
		s.reporter = NewLogReporter(s.log)
	}
	return s
}

// Start subscribes to the session store and syncs once for the current state.
// Background syncs stop when ctx is cancelled or Stop is called.
func (s *Synchronizer) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.unsubscribe = s.sessions.Subscribe(s.onAuthChange)

	snap := s.sessions.Snapshot()
	s.onAuthChange(session.Event{
		Authenticated: snap.IsAuthenticated,
		Identity:      snap.Identity,
		Token:         snap.Token,
	})
}

// Stop unsubscribes, cancels in-flight fetches and waits for them to return.
func (s *Synchronizer) Stop() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// Wait blocks until background syncs started so far have finished.
func (s *Synchronizer) Wait() {
	s.wg.Wait()
}

// Resync runs one sync for the current session and waits for it. It returns
// ErrSuperseded if a logout or newer sync overtook it, or the fetch error.
func (s *Synchronizer) Resync(ctx context.Context) error {
	// Bump before reading the session: a logout after this point bumps again
	// and invalidates the result.
	gen := s.bump()
	snap := s.sessions.Snapshot()

	if !snap.IsAuthenticated {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.gen {
			return ErrSuperseded
		}
		s.clearLocked(ctx)
		return nil
	}

	return s.sync(ctx, gen, snap.Identity, snap.Token)
}

// Stats counts fetches by outcome since the synchronizer was created.
type Stats struct {
	Started    uint64
	Applied    uint64
	NotFound   uint64
	Superseded uint64
	Failed     uint64
	LastFetch  time.Duration
}

func (s *Synchronizer) Stats() Stats {
	return Stats{
		Started:    s.started.Load(),
		Applied:    s.applied.Load(),
		NotFound:   s.cleared.Load(),
		Superseded: s.superseded.Load(),
		Failed:     s.failed.Load(),
		LastFetch:  s.lastFetch.Load(),
	}
}

func (s *Synchronizer) bump() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return s.gen
}

// onAuthChange runs with the session store locked; it must not call back into it.
func (s *Synchronizer) onAuthChange(ev session.Event) {
	s.mu.Lock()
	s.gen++
	gen := s.gen

	if !ev.Authenticated {
		s.clearLocked(s.baseCtx())
		s.mu.Unlock()
		return
	}

	// A warm-start profile that belongs to someone else must not outlive the switch.
	if st := s.profiles.State(); st.Profile != nil && st.Profile.UserID != ev.Identity.ID {
		s.clearLocked(s.baseCtx())
	}
	s.mu.Unlock()

	ctx := s.baseCtx()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.sync(ctx, gen, ev.Identity, ev.Token); err != nil && !errors.Is(err, ErrSuperseded) {
			s.log.Debug("background sync ended with error", zap.Error(err))
		}
	}()
}

func (s *Synchronizer) sync(ctx context.Context, gen uint64, identity *session.Identity, token string) error {
	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.started.Inc()
	timer := metrics.StartTimer()
	profile, err := s.fetcher.FetchSellerProfile(fetchCtx, token)
	s.lastFetch.Set(timer.Duration())

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		s.superseded.Inc()
		s.log.Debug("dropping superseded profile sync", zap.String("user_id", identity.ID), zap.Uint64("generation", gen))
		return ErrSuperseded
	}

	switch {
	case err == nil:
		s.applied.Inc()
		if profile.UserID == "" {
			profile.UserID = identity.ID
		}
		if perr := s.profiles.SetProfile(ctx, profile); perr != nil {
			s.log.Warn("seller profile applied but not persisted", zap.Error(perr))
		}
		s.log.Debug("seller profile synced", zap.String("user_id", identity.ID), zap.String("status", string(profile.Status)))
		return nil
	case errors.Is(err, seller.ErrProfileNotFound):
		s.cleared.Inc()
		s.clearLocked(ctx)
		s.log.Debug("no seller profile", zap.String("user_id", identity.ID))
		return nil
	case ctx.Err() != nil:
		return err
	default:
		// keep the last known profile
		s.failed.Inc()
		s.reporter.ReportSyncFailure(ctx, identity.ID, err)
		return err
	}
}

func (s *Synchronizer) clearLocked(ctx context.Context) {
	if err := s.profiles.ClearProfile(ctx); err != nil {
		s.log.Warn("seller profile cleared but not persisted", zap.Error(err))
	}
}

func (s *Synchronizer) baseCtx() context.Context {
	if s.ctx != nil {
		return s.ctx
	}
	return context.Background()
}
