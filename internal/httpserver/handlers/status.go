package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/notice/internal/clock"
	"github.com/MrSnakeDoc/notice/internal/httpserver/deps"
	"github.com/MrSnakeDoc/notice/internal/logger"
	"github.com/MrSnakeDoc/notice/internal/version"
)

type statusResponse struct {
	V        string          `json:"v"`
	MTime    string          `json:"mtime"`
	Messages json.RawMessage `json:"messages"`
}

// Status serves the current message set with the revision and the mtime of the
// service binary. Both are read on every request.
func Status(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mtime, err := version.ModTime(d.MTimeFile)
		if err != nil {
			d.Logger.Debug("mtime unavailable, using start time", logger.Error(err))
			mtime = d.StartTime
		}

		body, err := json.Marshal(statusResponse{
			V:        version.Revision(d.RevisionFile),
			MTime:    d.Clock.Format(clock.Second, mtime),
			Messages: d.Store.Read(),
		})
		if err != nil {
			d.Logger.Error("failed to encode status", logger.Error(err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, body)
	}
}
