// Package health exposes liveness and readiness handlers.
package health

import (
	"encoding/json"
	"net/http"
)

func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	}
}

// ReadinessReporter tells whether the service can serve layer data.
// The editor reports ready once the baseline load has completed.
type ReadinessReporter interface {
	Readiness() (ready bool, detail string)
}

func Readiness(rr ReadinessReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		type resp struct {
			Status string `json:"status"`
			Detail string `json:"detail,omitempty"`
		}
		ready, detail := rr.Readiness()
		out := resp{Status: "ready", Detail: detail}
		w.Header().Set("Content-Type", "application/json")
		if !ready {
			out.Status = "not_ready"
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}
