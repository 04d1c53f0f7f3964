// Package cookie owns the two request-visible auth cookies: the bearer token
// and the role mirror. Both are always written and expired together.
package cookie

import (
	"net/http"
	"time"
)

const (
	TokenName = "token"
	RoleName  = "user_role"

	TTL = 7 * 24 * time.Hour
)

// Read returns the token and role cookie values of r; missing cookies read as "".
func Read(r *http.Request) (token, role string) {
	if c, err := r.Cookie(TokenName); err == nil {
		token = c.Value
	}
	if c, err := r.Cookie(RoleName); err == nil {
		role = c.Value
	}
	return token, role
}

func build(token, role string, expires time.Time, secure bool) []*http.Cookie {
	maxAge := int(TTL / time.Second)
	return []*http.Cookie{
		{
			Name:     TokenName,
			Value:    token,
			Path:     "/",
			Expires:  expires,
			MaxAge:   maxAge,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		},
		{
			Name:     RoleName,
			Value:    role,
			Path:     "/",
			Expires:  expires,
			MaxAge:   maxAge,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		},
	}
}

func expired(secure bool) []*http.Cookie {
	past := time.Unix(0, 0)
	return []*http.Cookie{
		{Name: TokenName, Value: "", Path: "/", Expires: past, MaxAge: -1, Secure: secure, SameSite: http.SameSiteLaxMode},
		{Name: RoleName, Value: "", Path: "/", Expires: past, MaxAge: -1, Secure: secure, SameSite: http.SameSiteLaxMode},
	}
}
