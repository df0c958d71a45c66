package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartspend/internal/log"
	"smartspend/internal/metrics"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var seen string
	mw := NewMiddleware(nil, nil, nil)
	h := mw.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, rr.Header().Get(HeaderRequestID))
}

func TestMiddlewareReusesValidIncomingID(t *testing.T) {
	id := uuid.NewString()
	var seen string
	h := NewMiddleware(nil, nil, nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, id)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, id, seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "not-a-uuid")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotEqual(t, "not-a-uuid", seen)
}

func TestMiddlewareLogsStatusAndRoute(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Component: log.ComponentHTTP, Output: &buf})
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	h := NewMiddleware(logger, m, func(*http.Request) string { return "10.0.0.1" }).Middleware(mux)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/42", nil))

	out := buf.String()
	assert.Contains(t, out, "request_id=")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "status_code=404")
	assert.Contains(t, out, `route="GET /items/{id}"`)
	assert.Contains(t, out, "client_ip=10.0.0.1")

	families, err := reg.Gather()
	require.NoError(t, err)
	found := false
	for _, f := range families {
		if f.GetName() == "smartspend_http_requests_total" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestMiddlewareInstallsRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Component: log.ComponentHTTP, Output: &buf})

	h := NewMiddleware(logger, nil, nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).Info("inside handler")
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	id := uuid.NewString()
	req.Header.Set(HeaderRequestID, id)
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, buf.String(), "msg=\"inside handler\" component=http request_id="+id)
}
