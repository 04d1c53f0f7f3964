// Package client is a storefront client: it keeps the session and the seller
// profile mirror, mirrors the auth cookies into its cookie jar, and browses
// guarded pages with them.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/prathamisonline/multiseller-ecom-sub001/internal/cookie"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/guard"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/logger"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/profilesync"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/seller"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/session"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/storage"

	"go.uber.org/zap"
)

const defaultTimeout = 10 * time.Second

type options struct {
	log      *zap.Logger
	timeout  time.Duration
	breaker  BreakerSettings
	reporter profilesync.Reporter
}

type Option func(*options)

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

func WithBreaker(bs BreakerSettings) Option {
	return func(o *options) { o.breaker = bs }
}

func WithReporter(r profilesync.Reporter) Option {
	return func(o *options) { o.reporter = r }
}

// Page is what the site answered for a page request.
type Page struct {
	Status   int
	Location string
}

func (p Page) Redirected() bool {
	return p.Status >= 300 && p.Status < 400
}

type Client struct {
	base     string
	api      *API
	pages    *http.Client
	cookies  *cookie.JarSink
	sessions *session.Store
	profiles *seller.Store
	sync     *profilesync.Synchronizer
	log      *zap.Logger
}

// New wires a client for the site at baseURL. Session and seller snapshots are
// kept in st so a later process can warm-start from them.
func New(baseURL string, st storage.Storage, opts ...Option) (*Client, error) {
	o := options{
		log:     logger.L(),
		timeout: defaultTimeout,
		breaker: BreakerSettings{MaxFailures: 5, Interval: time.Minute, Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.log.With(zap.String("component", "client"))
	baseURL = strings.TrimRight(baseURL, "/")

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	sink, err := cookie.NewJarSink(jar, baseURL)
	if err != nil {
		return nil, err
	}

	api, err := NewAPI(baseURL, &http.Client{Timeout: o.timeout}, o.breaker, log)
	if err != nil {
		return nil, err
	}

	sessions := session.New(st, sink, session.WithLogger(o.log))
	profiles := seller.NewStore(st, seller.WithStoreLogger(o.log))
	sync := profilesync.New(sessions, profiles, api,
		profilesync.WithLogger(o.log),
		profilesync.WithReporter(o.reporter),
		profilesync.WithFetchTimeout(o.timeout),
	)

	return &Client{
		base: baseURL,
		api:  api,
		pages: &http.Client{
			Jar:     jar,
			Timeout: o.timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		cookies:  sink,
		sessions: sessions,
		profiles: profiles,
		sync:     sync,
		log:      log,
	}, nil
}

// Start restores persisted state and begins profile synchronization. Broken
// snapshots are dropped rather than failing startup.
func (c *Client) Start(ctx context.Context) {
	if err := c.sessions.Restore(ctx); err != nil {
		c.log.Warn("starting without persisted session", zap.Error(err))
	}
	if err := c.profiles.Restore(ctx); err != nil {
		c.log.Warn("starting without persisted seller profile", zap.Error(err))
	}
	c.sync.Start(ctx)
}

// Close stops background synchronization and waits for it.
func (c *Client) Close() {
	c.sync.Stop()
}

// Wait blocks until background profile syncs have settled.
func (c *Client) Wait() {
	c.sync.Wait()
}

func (c *Client) Session() session.Snapshot { return c.sessions.Snapshot() }

func (c *Client) SyncStats() profilesync.Stats { return c.sync.Stats() }

func (c *Client) Seller() seller.State { return c.profiles.State() }

// Cookies returns what the jar would send to the site.
func (c *Client) Cookies() guard.Cookies {
	token, role := c.cookies.Values()
	return guard.Cookies{Token: token, Role: role}
}

func (c *Client) Login(ctx context.Context, email, password string) error {
	identity, token, err := c.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return c.sessions.SetSession(ctx, identity, token)
}

func (c *Client) Register(ctx context.Context, name, email, password string) error {
	identity, token, err := c.api.Register(ctx, name, email, password)
	if err != nil {
		return err
	}
	return c.sessions.SetSession(ctx, identity, token)
}

func (c *Client) Logout(ctx context.Context) error {
	return c.sessions.ClearSession(ctx)
}

// Refresh re-reads the identity from the backend, so a role granted since
// login reaches the role cookie, then resyncs the seller profile. A rejected
// token ends the session.
func (c *Client) Refresh(ctx context.Context) error {
	token := c.sessions.Token()
	if token == "" {
		return ErrNotLoggedIn
	}

	identity, err := c.api.Me(ctx, token)
	if errors.Is(err, ErrUnauthorized) {
		c.log.Info("token rejected, clearing session")
		if clearErr := c.sessions.ClearSession(ctx); clearErr != nil {
			c.log.Warn("failed to clear session", zap.Error(clearErr))
		}
		return err
	}
	if err != nil {
		return err
	}

	if err := c.sessions.UpdateIdentity(ctx, identity); err != nil {
		return err
	}
	return c.Resync(ctx)
}

// Resync fetches the seller profile for the current session now.
func (c *Client) Resync(ctx context.Context) error {
	err := c.sync.Resync(ctx)
	if errors.Is(err, profilesync.ErrSuperseded) {
		return nil
	}
	return err
}

// ApplyAsSeller submits a seller application and refreshes the session so the
// seller role and the pending profile are visible locally.
func (c *Client) ApplyAsSeller(ctx context.Context, input seller.ApplyInput) (*seller.Profile, error) {
	token := c.sessions.Token()
	if token == "" {
		return nil, ErrNotLoggedIn
	}

	p, err := c.api.ApplySeller(ctx, token, input)
	if err != nil {
		return nil, err
	}
	if err := c.Refresh(ctx); err != nil {
		return p, fmt.Errorf("application submitted, refresh failed: %w", err)
	}
	return p, nil
}

// SetSellerStatus is the admin action on someone else's profile.
func (c *Client) SetSellerStatus(ctx context.Context, profileID string, status seller.Status) (*seller.Profile, error) {
	token := c.sessions.Token()
	if token == "" {
		return nil, ErrNotLoggedIn
	}
	return c.api.UpdateSellerStatus(ctx, token, profileID, status)
}

// Open requests a page with the jar's cookies and reports the answer without
// following redirects.
func (c *Client) Open(ctx context.Context, path string) (Page, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return Page{}, err
	}
	resp, err := c.pages.Do(req)
	if err != nil {
		return Page{}, err
	}
	defer resp.Body.Close()

	return Page{Status: resp.StatusCode, Location: resp.Header.Get("Location")}, nil
}

// Preview evaluates the route guard locally against the jar's cookies.
func (c *Client) Preview(path string) guard.Decision {
	return guard.Decide(path, c.Cookies())
}
