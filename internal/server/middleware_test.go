package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tailscale.com/client/tailscale/apitype"
	"tailscale.com/tailcfg"

	"github.com/claude/liftlog/internal/metrics"
)

func TestDevIdentity(t *testing.T) {
	var gotID int
	var gotInfo UserInfo
	handler := DevIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = userIDFromContext(r)
		gotInfo = userInfoFromContext(r)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, gotID)
	assert.Equal(t, devUser, gotInfo)
}

// TestIdentityFromContext verifies the stored identity is returned and the
// dev user is the fallback when no middleware ran.
func TestIdentityFromContext(t *testing.T) {
	bare := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, 1, userIDFromContext(bare))
	assert.Equal(t, UserInfo{Login: "local", DisplayName: "Local Dev User"}, userInfoFromContext(bare))

	alice := UserInfo{Login: "alice@example.com", DisplayName: "Alice"}
	ctx := context.WithValue(bare.Context(), userIDKey, 42)
	ctx = context.WithValue(ctx, userInfoKey, alice)
	req := bare.WithContext(ctx)
	assert.Equal(t, 42, userIDFromContext(req))
	assert.Equal(t, alice, userInfoFromContext(req))
}

// TestRequestLogging verifies the wrapped status is passed through and logged.
func TestRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	handler := RequestLogging(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sets", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, buf.String(), "status=201")
	assert.Contains(t, buf.String(), "path=/api/v1/sets")
	assert.Contains(t, buf.String(), "level=INFO")
}

func TestCORS(t *testing.T) {
	called := false
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, called)

	called = false
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")
	assert.False(t, called, "preflight must not reach the handler")
}

// TestAPIKeyAuth verifies missing keys get 401 and wrong keys get 403.
func TestAPIKeyAuth(t *testing.T) {
	handler := APIKeyAuth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		key  string
		want int
	}{
		{"", http.StatusUnauthorized},
		{"wrong", http.StatusForbidden},
		{"secre", http.StatusForbidden},
		{"secret", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.key != "" {
			req.Header.Set("X-API-Key", tt.key)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, tt.want, rec.Code, "key %q", tt.key)
		if tt.want != http.StatusOK {
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		}
	}
}

// TestInstrument verifies request durations are recorded under the route pattern.
func TestInstrument(t *testing.T) {
	m, reg := metrics.NewTestManagerAndRegistry()
	r := chi.NewRouter()
	r.Use(Instrument(m))
	r.Get("/things/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/things/42", nil))

	require.Equal(t, 1, testutil.CollectAndCount(m.HistRequestDuration))
	families, err := reg.Gather()
	require.NoError(t, err)

	labels := map[string]string{}
	for _, f := range families {
		if f.GetName() != "liftlog_test_http_request_duration_seconds" {
			continue
		}
		for _, l := range f.GetMetric()[0].GetLabel() {
			labels[l.GetName()] = l.GetValue()
		}
	}
	assert.Equal(t, "/things/{id}", labels["route"])
	assert.Equal(t, "418", labels["status"])
	assert.Zero(t, testutil.ToFloat64(m.GaugeRequests))
}

type fakeWhoIs struct {
	login string
	err   error
}

func (f fakeWhoIs) WhoIs(_ context.Context, _ string) (*apitype.WhoIsResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &apitype.WhoIsResponse{
		UserProfile: &tailcfg.UserProfile{LoginName: f.login, DisplayName: "Alice"},
	}, nil
}

type fakeUsers map[string]int

func (f fakeUsers) ResolveUser(_ context.Context, login, _ string) (int, error) {
	return f[login], nil
}

// TestTailscaleIdentity verifies tailnet peers map to local users and
// unknown peers are rejected.
func TestTailscaleIdentity(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	var gotID int
	var gotInfo UserInfo
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = userIDFromContext(r)
		gotInfo = userInfoFromContext(r)
	})

	users := fakeUsers{"alice@example.com": 7}
	handler := TailscaleIdentity(fakeWhoIs{login: "alice@example.com"}, users, log)(next)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, gotID)
	assert.Equal(t, UserInfo{Login: "alice@example.com", DisplayName: "Alice"}, gotInfo)

	handler = TailscaleIdentity(fakeWhoIs{err: errors.New("no peer")}, users, log)(next)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
