package security

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// apiHeaders are sent on every response. The API only serves JSON, so nothing it
// returns may be framed, sniffed or used as a document.
var apiHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"Referrer-Policy", "no-referrer"},
	{"Cross-Origin-Resource-Policy", "same-origin"},
}

// Headers sets the response header policy for the pricing API.
type Headers struct {
	Enable bool
	// HSTS is the Strict-Transport-Security max-age. Zero disables the header.
	HSTS time.Duration
	// NoStore marks responses as uncacheable. Quotes depend on the catalog sent with
	// the request.
	NoStore bool
}

// Middleware applies the header policy before the handler writes.
func (h Headers) Middleware(next http.Handler) http.Handler {
	if !h.Enable {
		return next
	}
	hsts := ""
	if secs := int64(h.HSTS / time.Second); secs > 0 {
		hsts = "max-age=" + strconv.FormatInt(secs, 10) + "; includeSubDomains"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		for _, kv := range apiHeaders {
			headers.Set(kv[0], kv[1])
		}
		if h.NoStore {
			headers.Set("Cache-Control", "no-store")
		}
		if hsts != "" && isHTTPS(r) {
			headers.Set("Strict-Transport-Security", hsts)
		}
		next.ServeHTTP(w, r)
	})
}

// isHTTPS reports whether the client reached us over TLS, directly or through a
// terminating proxy.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")), "https")
}
