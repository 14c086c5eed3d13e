package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func serveHeaders(t *testing.T, h Headers, req *http.Request) http.Header {
	t.Helper()
	handler := h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr.Result().Header
}

func TestHeadersJSONPolicy(t *testing.T) {
	headers := serveHeaders(t, Headers{Enable: true}, httptest.NewRequest(http.MethodGet, "/api/v1/checkout/fee?price=100", nil))
	for _, kv := range apiHeaders {
		if got := headers.Get(kv[0]); got != kv[1] {
			t.Fatalf("expected %s %q, got %q", kv[0], kv[1], got)
		}
	}
	if got := headers.Get("Strict-Transport-Security"); got != "" {
		t.Fatalf("expected no hsts without a max-age, got %q", got)
	}
	if got := headers.Get("Cache-Control"); got != "" {
		t.Fatalf("expected cacheable response, got %q", got)
	}
}

func TestHeadersHSTSOnlyOverHTTPS(t *testing.T) {
	h := Headers{Enable: true, HSTS: 365 * 24 * time.Hour}

	plain := serveHeaders(t, h, httptest.NewRequest(http.MethodGet, "http://pricing.local/", nil))
	if got := plain.Get("Strict-Transport-Security"); got != "" {
		t.Fatalf("expected no hsts over http, got %q", got)
	}

	req := httptest.NewRequest(http.MethodGet, "https://pricing.local/", nil)
	req.TLS = &tls.ConnectionState{}
	if got := serveHeaders(t, h, req).Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Fatalf("unexpected hsts %q", got)
	}

	proxied := httptest.NewRequest(http.MethodGet, "http://pricing.local/", nil)
	proxied.Header.Set("X-Forwarded-Proto", "HTTPS")
	if got := serveHeaders(t, h, proxied).Get("Strict-Transport-Security"); got == "" {
		t.Fatal("expected hsts behind a tls-terminating proxy")
	}
}

func TestHeadersDisabled(t *testing.T) {
	headers := serveHeaders(t, Headers{HSTS: time.Hour, NoStore: true}, httptest.NewRequest(http.MethodGet, "/", nil))
	if headers.Get("X-Content-Type-Options") != "" || headers.Get("Cache-Control") != "" {
		t.Fatal("expected no headers when disabled")
	}
}

func TestHeadersNoStore(t *testing.T) {
	headers := serveHeaders(t, Headers{Enable: true, NoStore: true}, httptest.NewRequest(http.MethodPost, "/api/v1/checkout/quote", nil))
	if got := headers.Get("Cache-Control"); got != "no-store" {
		t.Fatalf("expected no-store, got %q", got)
	}
}
