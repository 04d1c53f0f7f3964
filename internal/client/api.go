package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prathamisonline/multiseller-ecom-sub001/internal/seller"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/session"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerSettings configures the circuit breaker in front of the seller endpoint.
type BreakerSettings struct {
	MaxFailures uint32
	Interval    time.Duration
	Timeout     time.Duration
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type authPayload struct {
	User  session.Identity `json:"user"`
	Token string           `json:"token"`
}

// API talks to the backend's JSON endpoints. Callers pass the bearer token
// explicitly; API holds no session state of its own.
type API struct {
	base *url.URL
	http *http.Client
	cb   *gobreaker.CircuitBreaker
	log  *zap.Logger
}

func NewAPI(baseURL string, httpClient *http.Client, bs BreakerSettings, log *zap.Logger) (*API, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	st := gobreaker.Settings{
		Name:        "seller-profile",
		MaxRequests: 1,
		Interval:    bs.Interval,
		Timeout:     bs.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return bs.MaxFailures > 0 && counts.ConsecutiveFailures >= bs.MaxFailures
		},
		// A missing profile or a cancelled caller says nothing about backend health.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, seller.ErrProfileNotFound) ||
				errors.Is(err, ErrUnauthorized) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Info("circuit breaker state", zap.String("name", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	}

	return &API{base: u, http: httpClient, cb: gobreaker.NewCircuitBreaker(st), log: log}, nil
}

func (a *API) Login(ctx context.Context, email, password string) (session.Identity, string, error) {
	return a.authenticate(ctx, "/api/auth/login", map[string]string{"email": email, "password": password})
}

func (a *API) Register(ctx context.Context, name, email, password string) (session.Identity, string, error) {
	return a.authenticate(ctx, "/api/auth/register", map[string]string{"name": name, "email": email, "password": password})
}

func (a *API) authenticate(ctx context.Context, path string, body any) (session.Identity, string, error) {
	var out authPayload
	if err := a.do(ctx, http.MethodPost, path, "", body, &out); err != nil {
		return session.Identity{}, "", err
	}
	if out.Token == "" || out.User.ID == "" {
		return session.Identity{}, "", ErrInvalidPayload
	}
	return out.User, out.Token, nil
}

// Me returns the identity behind token as the backend currently sees it.
func (a *API) Me(ctx context.Context, token string) (session.Identity, error) {
	var id session.Identity
	err := a.do(ctx, http.MethodGet, "/api/auth/me", token, nil, &id)
	return id, err
}

// FetchSellerProfile implements profilesync.Fetcher. Calls go through the
// circuit breaker; an open breaker fails fast with gobreaker.ErrOpenState.
func (a *API) FetchSellerProfile(ctx context.Context, token string) (*seller.Profile, error) {
	res, err := a.cb.Execute(func() (interface{}, error) {
		var p seller.Profile
		if err := a.do(ctx, http.MethodGet, "/api/sellers/me", token, nil, &p); err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
				return nil, seller.ErrProfileNotFound
			}
			return nil, err
		}
		if !p.Status.IsValid() {
			return nil, fmt.Errorf("%w: profile status %q", ErrInvalidPayload, p.Status)
		}
		return &p, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*seller.Profile), nil
}

func (a *API) ApplySeller(ctx context.Context, token string, input seller.ApplyInput) (*seller.Profile, error) {
	var p seller.Profile
	if err := a.do(ctx, http.MethodPost, "/api/sellers/apply", token, input, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (a *API) UpdateSellerStatus(ctx context.Context, token, profileID string, status seller.Status) (*seller.Profile, error) {
	var p seller.Profile
	path := "/api/admin/sellers/" + url.PathEscape(profileID) + "/status"
	if err := a.do(ctx, http.MethodPatch, path, token, map[string]string{"status": string(status)}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (a *API) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.base.String()+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s", ErrUnauthorized, env.Message)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: env.Message}
	}
	if decodeErr != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, decodeErr)
	}
	if !env.Success {
		return &APIError{Status: resp.StatusCode, Message: env.Message}
	}
	if out != nil {
		if data := bytes.TrimSpace(env.Data); len(data) == 0 || bytes.Equal(data, []byte("null")) {
			return fmt.Errorf("%w: missing data", ErrInvalidPayload)
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
	}
	return nil
}
