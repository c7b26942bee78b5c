package handlers

import (
	"net/http"
	"os"

	"github.com/MrSnakeDoc/notice/internal/httpserver/deps"
)

// RobotsBody answers the hosting platform's warm-up probe.
const RobotsBody = "Hi, Azure"

// Robots answers the App Service health probe path so it doesn't 404.
func Robots() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(RobotsBody))
	}
}

// Favicon serves the configured icon file, or 404 when there is none.
func Favicon(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fi, err := os.Stat(d.FaviconFile)
		if d.FaviconFile == "" || err != nil || !fi.Mode().IsRegular() {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, d.FaviconFile)
	}
}
