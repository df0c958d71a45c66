package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractClientIP(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{name: "direct public peer ignores headers", remote: "203.0.113.5:4000", headers: map[string]string{"X-Forwarded-For": "1.1.1.1"}, want: "203.0.113.5"},
		{name: "trusted proxy forwards first hop", remote: "10.0.0.2:80", headers: map[string]string{"X-Forwarded-For": "198.51.100.7, 10.0.0.9"}, want: "198.51.100.7"},
		{name: "trusted proxy with real ip", remote: "127.0.0.1:80", headers: map[string]string{"X-Real-IP": "198.51.100.8"}, want: "198.51.100.8"},
		{name: "invalid forwarded value falls back", remote: "192.168.1.1:80", headers: map[string]string{"X-Forwarded-For": "garbage"}, want: "192.168.1.1"},
		{name: "remote addr without port", remote: "203.0.113.9", want: "203.0.113.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, d.ExtractClientIP(r))
		})
	}
}

func TestInspect(t *testing.T) {
	d := NewDetector()

	bad := httptest.NewRequest(http.MethodGet, "/.env", nil)
	got, reason := d.Inspect(bad)
	assert.True(t, got)
	assert.Contains(t, reason, ".env")

	scanner := httptest.NewRequest(http.MethodGet, "/", nil)
	scanner.Header.Set("User-Agent", "sqlmap/1.7")
	got, _ = d.Inspect(scanner)
	assert.True(t, got)

	ok := httptest.NewRequest(http.MethodPost, "/transactions", nil)
	ok.Header.Set("User-Agent", "Mozilla/5.0")
	got, _ = d.Inspect(ok)
	assert.False(t, got)
}

func TestAddTrustedProxy(t *testing.T) {
	d := NewDetector()
	require.Error(t, d.AddTrustedProxy("nope"))
	require.NoError(t, d.AddTrustedProxy("203.0.113.0/24"))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.1:1234"
	r.Header.Set("X-Forwarded-For", "198.51.100.1")
	assert.Equal(t, "198.51.100.1", d.ExtractClientIP(r))
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Contains(t, rr.Header().Get("Content-Security-Policy"), "https://unpkg.com")
	assert.Empty(t, rr.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "max-age=31536000; includeSubDomains", rr.Header().Get("Strict-Transport-Security"))
}
