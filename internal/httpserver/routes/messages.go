package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/notice/internal/httpserver/deps"
	"github.com/MrSnakeDoc/notice/internal/httpserver/handlers"
)

func init() { Register(registerMessages) }

func registerMessages(r chi.Router, d deps.Deps) {
	r.Get("/", handlers.Status(d))
	r.Post("/", handlers.PostMessages(d))
}
