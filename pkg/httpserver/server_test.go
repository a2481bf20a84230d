package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/harborquant/xvenue-arb/pkg/healthprobe"
)

func TestNew_RoutesRespond(t *testing.T) {
	logger := zap.NewNop()
	healthChecker := healthprobe.New()
	healthChecker.SetReady(true)

	server := New(&Config{Port: "0", Logger: logger, HealthChecker: healthChecker})
	if server == nil {
		t.Fatal("expected non-nil server")
	}

	tests := []struct {
		path string
		want int
	}{
		{"/healthz", http.StatusOK},
		{"/readyz", http.StatusOK},
		{"/metrics", http.StatusOK},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		rec := httptest.NewRecorder()
		server.server.Handler.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("%s: got status %d, want %d", tt.path, rec.Code, tt.want)
		}
	}
}

func TestShutdown_UnstartedServerReturnsNil(t *testing.T) {
	logger := zap.NewNop()
	healthChecker := healthprobe.New()
	server := New(&Config{Port: "0", Logger: logger, HealthChecker: healthChecker})

	if err := server.Shutdown(context.Background()); err != nil {
		t.Errorf("unexpected error shutting down unstarted server: %v", err)
	}
}
