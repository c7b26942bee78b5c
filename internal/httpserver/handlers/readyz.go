package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/notice/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready     bool   `json:"ready"`
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
}

// Readyz reports ready once the message store has been loaded.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ready := d.Store != nil && d.Store.Live()
		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(readyzResponse{
			Ready:     ready,
			Version:   d.Version,
			Commit:    d.Commit,
			GoVersion: d.GoVersion,
		})
	}
}
