package health

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type fakeReady struct {
	ready  bool
	detail string
}

func (f fakeReady) Readiness() (bool, string) { return f.ready, f.detail }

func TestLiveness_Handler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()

	Liveness()(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rr.Code)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != "ok" {
		t.Fatalf("body=%q want ok", got)
	}
}

func TestReadiness_NotReady(t *testing.T) {
	rr := httptest.NewRecorder()
	Readiness(fakeReady{ready: false})(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d want 503", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "not_ready") {
		t.Fatalf("body=%q want not_ready", rr.Body.String())
	}
}

func TestReadiness_Ready(t *testing.T) {
	rr := httptest.NewRecorder()
	Readiness(fakeReady{ready: true, detail: "baseline loaded"})(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "baseline loaded") {
		t.Fatalf("body=%q want detail", rr.Body.String())
	}
}
