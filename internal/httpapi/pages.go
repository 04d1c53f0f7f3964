package httpapi

import (
	"fmt"
	"html"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/prathamisonline/multiseller-ecom-sub001/internal/logger"

	"go.uber.org/zap"
)

// NewPages returns the handler for page requests that passed the route guard:
// a reverse proxy to frontendURL, or a placeholder page when it is empty.
func NewPages(frontendURL string) (http.Handler, error) {
	if frontendURL == "" {
		return http.HandlerFunc(placeholder), nil
	}

	target, err := url.Parse(frontendURL)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid frontend url %q", frontendURL)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.FromCtx(r.Context()).Error("frontend proxy error", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "upstream error", http.StatusBadGateway)
	}
	return proxy, nil
}

func placeholder(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!doctype html><title>%[1]s</title><h1>%[1]s</h1>\n", html.EscapeString(r.URL.Path))
}
