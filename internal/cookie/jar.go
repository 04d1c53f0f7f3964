package cookie

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// JarSink mirrors the auth cookies into an http.CookieJar scoped to one site,
// so every request the client sends to that site carries them.
type JarSink struct {
	jar http.CookieJar
	u   *url.URL
	now func() time.Time
}

func NewJarSink(jar http.CookieJar, siteURL string) (*JarSink, error) {
	u, err := url.Parse(siteURL)
	if err != nil {
		return nil, fmt.Errorf("parse site url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSiteURL, siteURL)
	}
	return &JarSink{jar: jar, u: u, now: time.Now}, nil
}

// SetAuthCookies writes both cookies in a single jar update.
func (s *JarSink) SetAuthCookies(token, role string) {
	s.jar.SetCookies(s.u, build(token, role, s.now().Add(TTL), s.u.Scheme == "https"))
}

// ClearAuthCookies expires both cookies. Clearing absent cookies is a no-op.
func (s *JarSink) ClearAuthCookies() {
	s.jar.SetCookies(s.u, expired(s.u.Scheme == "https"))
}

// Values reads back what the jar would send to the site.
func (s *JarSink) Values() (token, role string) {
	for _, c := range s.jar.Cookies(s.u) {
		switch c.Name {
		case TokenName:
			token = c.Value
		case RoleName:
			role = c.Value
		}
	}
	return token, role
}
