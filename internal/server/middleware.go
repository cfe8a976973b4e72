package server

import (
	"errors"
	"mime"
	"net/http"
	"net/url"
)

var (
	errCrossOrigin       = errors.New("cross-origin request rejected")
	errUnsupportedMedium = errors.New("request Content-Type must be application/json")
)

// sameOrigin accepts requests without an Origin header (CLI tools, curl)
// and browser requests whose Origin host matches the Host they were sent to.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Host == r.Host
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

// guardMiddleware rejects cross-origin requests and POSTs that are not JSON.
// Browsers send text/plain and form bodies cross-site without a preflight.
func guardMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !sameOrigin(r) {
			writeError(w, http.StatusForbidden, errCrossOrigin)
			return
		}
		if r.Method == http.MethodPost && !isJSON(r) {
			writeError(w, http.StatusUnsupportedMediaType, errUnsupportedMedium)
			return
		}
		next.ServeHTTP(w, r)
	})
}
