package handlers

import (
	"net/http"

	"changrep/internal/config"
	"changrep/internal/service"
	"changrep/internal/slack"
)

type Server struct {
	App       *service.App
	Config    config.Config
	Commander *slack.Commander
}

func New(app *service.App, cfg config.Config, commander *slack.Commander) *Server {
	return &Server{
		App:       app,
		Config:    cfg,
		Commander: commander,
	}
}

func (s *Server) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
	})
}
