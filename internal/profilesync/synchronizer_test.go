package profilesync

import (
	"context"
	"errors"
	"net/http/cookiejar"
	"sync"
	"testing"

	"github.com/prathamisonline/multiseller-ecom-sub001/internal/cookie"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/seller"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/session"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	asha = session.Identity{ID: "u-1", DisplayName: "Asha", Role: session.RoleSeller}
	ravi = session.Identity{ID: "u-2", DisplayName: "Ravi", Role: session.RoleSeller}
)

type result struct {
	profile *seller.Profile
	err     error
}

// gatedFetcher answers per token; a token with a gate blocks until released.
type gatedFetcher struct {
	mu      sync.Mutex
	results map[string]result
	gates   map[string]chan struct{}
	started map[string]chan struct{}
	calls   []string
}

func newFetcher() *gatedFetcher {
	return &gatedFetcher{
		results: map[string]result{},
		gates:   map[string]chan struct{}{},
		started: map[string]chan struct{}{},
	}
}

func (f *gatedFetcher) answer(token string, p *seller.Profile, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[token] = result{profile: p, err: err}
}

func (f *gatedFetcher) hold(token string) (started <-chan struct{}, release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	s := make(chan struct{})
	f.gates[token] = gate
	f.started[token] = s
	return s, func() { close(gate) }
}

func (f *gatedFetcher) FetchSellerProfile(ctx context.Context, token string) (*seller.Profile, error) {
	f.mu.Lock()
	f.calls = append(f.calls, token)
	gate := f.gates[token]
	started := f.started[token]
	res, ok := f.results[token]
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !ok {
		return nil, seller.ErrProfileNotFound
	}
	if res.profile != nil {
		cp := *res.profile
		return &cp, res.err
	}
	return nil, res.err
}

func (f *gatedFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type mockReporter struct {
	mock.Mock
}

func (m *mockReporter) ReportSyncFailure(ctx context.Context, userID string, err error) {
	m.Called(ctx, userID, err)
}

type fixture struct {
	sessions *session.Store
	profiles *seller.Store
	fetcher  *gatedFetcher
	reporter *mockReporter
	sync     *Synchronizer
	mem      *storage.Memory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	sink, err := cookie.NewJarSink(jar, "http://shop.local")
	require.NoError(t, err)

	mem := storage.NewMemory()
	f := &fixture{
		sessions: session.New(mem, sink, session.WithLogger(zap.NewNop())),
		profiles: seller.NewStore(mem, seller.WithStoreLogger(zap.NewNop())),
		fetcher:  newFetcher(),
		reporter: new(mockReporter),
		mem:      mem,
	}
	f.sync = New(f.sessions, f.profiles, f.fetcher, WithLogger(zap.NewNop()), WithReporter(f.reporter))
	return f
}

func TestSynchronizer_LoginFetchesProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.fetcher.answer("tok-a", &seller.Profile{ID: "p-1", Status: seller.StatusApproved}, nil)

	f.sync.Start(ctx)
	defer f.sync.Stop()

	require.NoError(t, f.sessions.SetSession(ctx, asha, "tok-a"))
	f.sync.Wait()

	st := f.profiles.State()
	assert.True(t, st.HasSeller)
	assert.True(t, st.IsApproved)
	assert.Equal(t, seller.StatusApproved, st.Status)
	assert.Equal(t, asha.ID, st.Profile.UserID)
}

func TestSynchronizer_NotFoundClears(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.sync.Start(ctx)
	defer f.sync.Stop()
	require.NoError(t, f.profiles.SetProfile(ctx, &seller.Profile{UserID: asha.ID, Status: seller.StatusPending}))

	require.NoError(t, f.sessions.SetSession(ctx, asha, "tok-a"))
	f.sync.Wait()

	st := f.profiles.State()
	assert.False(t, st.HasSeller)
	assert.Equal(t, seller.StatusNone, st.Status)
	f.reporter.AssertNotCalled(t, "ReportSyncFailure", mock.Anything, mock.Anything, mock.Anything)
}

func TestSynchronizer_FailureKeepsLastKnownGood(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	boom := errors.New("503 from backend")
	f.fetcher.answer("tok-a", nil, boom)
	f.reporter.On("ReportSyncFailure", mock.Anything, asha.ID, boom).Once()

	f.sync.Start(ctx)
	defer f.sync.Stop()
	require.NoError(t, f.profiles.SetProfile(ctx, &seller.Profile{UserID: asha.ID, Status: seller.StatusApproved}))

	require.NoError(t, f.sessions.SetSession(ctx, asha, "tok-a"))
	f.sync.Wait()

	assert.Equal(t, seller.StatusApproved, f.profiles.State().Status)
	assert.Equal(t, 1, f.fetcher.callCount(), "no internal retry")
	f.reporter.AssertExpectations(t)
}

func TestSynchronizer_LogoutDropsInflightFetch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.fetcher.answer("tok-a", &seller.Profile{Status: seller.StatusApproved}, nil)
	started, release := f.fetcher.hold("tok-a")

	f.sync.Start(ctx)
	defer f.sync.Stop()

	require.NoError(t, f.sessions.SetSession(ctx, asha, "tok-a"))
	<-started
	require.NoError(t, f.sessions.ClearSession(ctx))
	assert.Equal(t, seller.StatusNone, f.profiles.State().Status, "logout clears synchronously")

	release()
	f.sync.Wait()

	st := f.profiles.State()
	assert.False(t, st.HasSeller)
	assert.Equal(t, seller.StatusNone, st.Status)
}

func TestSynchronizer_OutOfOrderResolution(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.fetcher.answer("tok-a", &seller.Profile{ID: "p-a", Status: seller.StatusSuspended}, nil)
	f.fetcher.answer("tok-b", &seller.Profile{ID: "p-b", Status: seller.StatusPending}, nil)
	started, release := f.fetcher.hold("tok-a")

	f.sync.Start(ctx)
	defer f.sync.Stop()

	require.NoError(t, f.sessions.SetSession(ctx, asha, "tok-a"))
	<-started
	require.NoError(t, f.sessions.SetSession(ctx, ravi, "tok-b"))

	release()
	f.sync.Wait()

	st := f.profiles.State()
	assert.Equal(t, "p-b", st.Profile.ID)
	assert.Equal(t, ravi.ID, st.Profile.UserID)
	assert.Equal(t, seller.StatusPending, st.Status)
}

func TestSynchronizer_StartSyncsRestoredSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.sessions.SetSession(ctx, asha, "tok-a"))
	f.fetcher.answer("tok-a", &seller.Profile{Status: seller.StatusRejected}, nil)

	f.sync.Start(ctx)
	f.sync.Wait()
	f.sync.Stop()

	assert.Equal(t, seller.StatusRejected, f.profiles.State().Status)
	assert.Equal(t, 1, f.fetcher.callCount())
}

func TestSynchronizer_StartWhileLoggedOutClearsWarmStart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.profiles.SetProfile(ctx, &seller.Profile{Status: seller.StatusApproved}))

	f.sync.Start(ctx)
	defer f.sync.Stop()

	assert.Equal(t, seller.EmptyState(), f.profiles.State())
	assert.Zero(t, f.fetcher.callCount())
}

func TestSynchronizer_SwitchClearsForeignProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.fetcher.answer("tok-b", &seller.Profile{Status: seller.StatusPending}, nil)
	_, release := f.fetcher.hold("tok-b")

	require.NoError(t, f.sessions.SetSession(ctx, asha, "tok-a"))
	require.NoError(t, f.profiles.SetProfile(ctx, &seller.Profile{UserID: asha.ID, Status: seller.StatusApproved}))

	f.sync.Start(ctx)
	defer f.sync.Stop()
	f.sync.Wait()

	// asha has no profile on the backend; reseed and switch identity
	require.NoError(t, f.profiles.SetProfile(ctx, &seller.Profile{UserID: asha.ID, Status: seller.StatusApproved}))
	require.NoError(t, f.sessions.SetSession(ctx, ravi, "tok-b"))

	assert.False(t, f.profiles.State().HasSeller, "previous identity's profile dropped before fetch")

	release()
	f.sync.Wait()
	assert.Equal(t, seller.StatusPending, f.profiles.State().Status)
}

func TestSynchronizer_Resync(t *testing.T) {
	ctx := context.Background()

	t.Run("Applies result", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.sessions.SetSession(ctx, asha, "tok-a"))
		f.fetcher.answer("tok-a", &seller.Profile{Status: seller.StatusApproved}, nil)

		require.NoError(t, f.sync.Resync(ctx))

		assert.True(t, f.profiles.State().IsApproved)
	})

	t.Run("Returns fetch error", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.sessions.SetSession(ctx, asha, "tok-a"))
		boom := errors.New("timeout")
		f.fetcher.answer("tok-a", nil, boom)
		f.reporter.On("ReportSyncFailure", ctx, asha.ID, boom).Once()

		assert.ErrorIs(t, f.sync.Resync(ctx), boom)
		f.reporter.AssertExpectations(t)
	})

	t.Run("Logged out clears without fetching", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.profiles.SetProfile(ctx, &seller.Profile{Status: seller.StatusApproved}))

		require.NoError(t, f.sync.Resync(ctx))

		assert.Equal(t, seller.EmptyState(), f.profiles.State())
		assert.Zero(t, f.fetcher.callCount())
	})

	t.Run("Superseded by logout", func(t *testing.T) {
		f := newFixture(t)
		f.sync.Start(ctx)
		defer f.sync.Stop()

		f.fetcher.answer("tok-a", &seller.Profile{Status: seller.StatusApproved}, nil)
		require.NoError(t, f.sessions.SetSession(ctx, asha, "tok-a"))
		f.sync.Wait()

		started, release := f.fetcher.hold("tok-a")
		errc := make(chan error, 1)
		go func() { errc <- f.sync.Resync(ctx) }()
		<-started
		require.NoError(t, f.sessions.ClearSession(ctx))
		release()

		assert.ErrorIs(t, <-errc, ErrSuperseded)
		assert.Equal(t, seller.EmptyState(), f.profiles.State())
	})
}

func TestLogReporter(t *testing.T) {
	assert.NotPanics(t, func() {
		NewLogReporter(zap.NewNop()).ReportSyncFailure(context.Background(), "u-1", errors.New("x"))
	})
}

func TestSynchronizer_Stats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	boom := errors.New("timeout")
	f.fetcher.answer("tok-a", &seller.Profile{ID: "p-a", Status: seller.StatusApproved}, nil)
	f.fetcher.answer("tok-b", nil, boom)
	f.reporter.On("ReportSyncFailure", mock.Anything, ravi.ID, boom)
	started, release := f.fetcher.hold("tok-a")

	f.sync.Start(ctx)
	defer f.sync.Stop()

	require.NoError(t, f.sessions.SetSession(ctx, asha, "tok-a"))
	<-started
	require.NoError(t, f.sessions.SetSession(ctx, ravi, "tok-b"))
	release()
	f.sync.Wait()

	require.NoError(t, f.sessions.ClearSession(ctx))
	require.NoError(t, f.sessions.SetSession(ctx, ravi, "tok-c"))
	f.sync.Wait()

	stats := f.sync.Stats()
	assert.Equal(t, uint64(3), stats.Started)
	assert.Equal(t, uint64(0), stats.Applied)
	assert.Equal(t, uint64(1), stats.Superseded)
	assert.Equal(t, uint64(1), stats.Failed)
	assert.Equal(t, uint64(1), stats.NotFound)
}
