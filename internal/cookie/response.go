package cookie

import (
	"net/http"
	"time"
)

// ResponseSink writes the auth cookies as Set-Cookie headers on a response.
type ResponseSink struct {
	w      http.ResponseWriter
	secure bool
}

func NewResponseSink(w http.ResponseWriter, secure bool) *ResponseSink {
	return &ResponseSink{w: w, secure: secure}
}

func (s *ResponseSink) SetAuthCookies(token, role string) {
	for _, c := range build(token, role, time.Now().Add(TTL), s.secure) {
		http.SetCookie(s.w, c)
	}
}

func (s *ResponseSink) ClearAuthCookies() {
	for _, c := range expired(s.secure) {
		http.SetCookie(s.w, c)
	}
}
