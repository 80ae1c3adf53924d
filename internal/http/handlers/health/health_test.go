package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestRouter(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "byteport_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	tests := []struct {
		name        string
		path        string
		check       Checker
		wantStatus  int
		wantBody    string
		contentType string
	}{
		{
			name:        "root",
			path:        "/",
			wantStatus:  http.StatusOK,
			wantBody:    "Bot is running!",
			contentType: "text/plain",
		},
		{
			name:        "healthz",
			path:        "/healthz",
			wantStatus:  http.StatusOK,
			wantBody:    `{"status":"OK","data":{"status":"ok"}}`,
			contentType: "application/json",
		},
		{
			name:        "healthz with failing dependency",
			path:        "/healthz",
			check:       func(context.Context) error { return errors.New("db down") },
			wantStatus:  http.StatusServiceUnavailable,
			wantBody:    `{"status":"Error","error":"dependency unavailable"}`,
			contentType: "application/json",
		},
		{
			name:       "metrics",
			path:       "/metrics",
			wantStatus: http.StatusOK,
			wantBody:   "byteport_test_total 1",
		},
		{
			name:       "unknown path",
			path:       "/nope",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(New(newNoopLogger(), tt.check), reg)
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rr := httptest.NewRecorder()

			router.ServeHTTP(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.contentType != "" {
				assert.Contains(t, rr.Header().Get("Content-Type"), tt.contentType)
			}
			switch {
			case tt.contentType == "application/json":
				assert.JSONEq(t, tt.wantBody, rr.Body.String())
			case tt.wantBody != "":
				assert.Contains(t, rr.Body.String(), tt.wantBody)
			}
		})
	}
}
