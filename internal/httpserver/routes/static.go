package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/notice/internal/httpserver/deps"
	"github.com/MrSnakeDoc/notice/internal/httpserver/handlers"
)

func init() { Register(registerStatic) }

func registerStatic(r chi.Router, d deps.Deps) {
	r.Get("/robots933456.txt", handlers.Robots())
	r.Get("/favicon.ico", handlers.Favicon(d))
}
