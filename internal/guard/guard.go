// Package guard decides, per request and from the auth cookies alone, whether a
// page request may proceed or must be redirected.
package guard

import (
	"path"
	"strings"
)

const (
	roleSeller = "seller"
	roleAdmin  = "admin"
)

// Cookies carries the request-visible session mirror.
type Cookies struct {
	Token string
	Role  string
}

func (c Cookies) hasToken() bool { return c.Token != "" }

// Decision is either Allow (zero value) or a redirect to Redirect.
type Decision struct {
	Redirect string
}

var Allow = Decision{}

func RedirectTo(target string) Decision { return Decision{Redirect: target} }

func (d Decision) Allowed() bool { return d.Redirect == "" }

// Decide applies the routing table top to bottom; the first matching rule wins.
// It performs no I/O and never fails.
func Decide(p string, c Cookies) Decision {
	p = normalize(p)

	switch {
	case under(p, "/admin"):
		if !c.hasToken() {
			return RedirectTo("/admin-login")
		}
		if c.Role != roleAdmin {
			return RedirectTo("/")
		}
		return Allow

	case under(p, "/seller") && !under(p, "/seller/login") && !under(p, "/seller/onboarding"):
		if !c.hasToken() {
			return RedirectTo("/seller/login")
		}
		if c.Role != roleSeller && c.Role != roleAdmin {
			return RedirectTo("/")
		}
		return Allow

	case (p == "/admin-login" || p == "/login" || p == "/register") && c.hasToken():
		switch c.Role {
		case roleAdmin:
			return RedirectTo("/admin")
		case roleSeller:
			return RedirectTo("/seller")
		default:
			return RedirectTo("/")
		}

	case p == "/seller/login" && c.hasToken() && c.Role == roleSeller:
		return RedirectTo("/seller")
	}

	return Allow
}

// under reports whether p is prefix itself or a path below it.
func under(p, prefix string) bool {
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

func normalize(p string) string {
	if p == "" || p[0] != '/' {
		p = "/" + p
	}
	return path.Clean(p)
}
