package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthChecker(t *testing.T) {
	tests := []struct {
		name         string
		ready        bool
		shuttingDown bool
		path         string
		wantStatus   int
		wantBody     string
	}{
		{name: "liveness", ready: true, path: "/healthz", wantStatus: http.StatusOK, wantBody: healthStatusOK},
		{name: "liveness while draining", ready: true, shuttingDown: true, path: "/healthz", wantStatus: http.StatusOK, wantBody: healthStatusOK},
		{name: "ready", ready: true, path: "/readyz", wantStatus: http.StatusOK, wantBody: healthStatusOK},
		{name: "not ready", ready: false, path: "/readyz", wantStatus: http.StatusServiceUnavailable, wantBody: healthStatusNotReady},
		{name: "draining", ready: true, shuttingDown: true, path: "/readyz", wantStatus: http.StatusServiceUnavailable, wantBody: healthStatusNotReady},
		{name: "detailed", ready: true, path: "/healthz/detailed", wantStatus: http.StatusOK, wantBody: healthStatusOK},
		{name: "detailed draining", ready: true, shuttingDown: true, path: "/healthz/detailed", wantStatus: http.StatusServiceUnavailable, wantBody: healthStatusShuttingDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthChecker("v1.2.3")
			h.SetReady(tt.ready)
			if tt.shuttingDown {
				h.SetShuttingDown()
			}

			mux := http.NewServeMux()
			h.RegisterHealthEndpoints(mux)

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body struct {
				Status  string `json:"status"`
				Version string `json:"version"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body.Status)
			if tt.path == "/healthz/detailed" {
				assert.Equal(t, "v1.2.3", body.Version)
			}
		})
	}
}
