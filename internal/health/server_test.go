package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkFunc func(ctx context.Context) error

func (f checkFunc) Check(ctx context.Context) error { return f(ctx) }

func newTestServer(check Checker) *Server {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewServer(Config{
		ServiceName: "scriptlab",
		Version:     "test",
		Logger:      log,
		Checks:      map[string]Checker{"scheduler": check},
	})
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthAndLive(t *testing.T) {
	s := newTestServer(checkFunc(func(context.Context) error { return nil }))

	for _, path := range []string{"/health", "/live"} {
		rec := get(t, s, path)
		require.Equal(t, http.StatusOK, rec.Code, path)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, "scriptlab", resp.Service)
	}
}

func TestReady(t *testing.T) {
	var failing error
	s := newTestServer(checkFunc(func(context.Context) error { return failing }))

	tests := []struct {
		name   string
		ready  bool
		err    error
		status int
		check  string
	}{
		{name: "not marked ready", ready: false, status: http.StatusServiceUnavailable, check: "ok"},
		{name: "ready", ready: true, status: http.StatusOK, check: "ok"},
		{name: "check failing", ready: true, err: errors.New("last pass failed"), status: http.StatusServiceUnavailable, check: "error: last pass failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.SetReady(tt.ready)
			failing = tt.err

			rec := get(t, s, "/ready")
			assert.Equal(t, tt.status, rec.Code)

			var resp ReadyResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.check, resp.Checks["scheduler"])
		})
	}
}

func TestShutdownWithoutStart(t *testing.T) {
	assert.NoError(t, NewServer(Config{}).Shutdown())
}
