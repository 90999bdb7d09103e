// internal/handlers/api_server.go
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/quizparty/lobbyd/internal/lobby"
	"github.com/quizparty/lobbyd/internal/middleware"
)

// Server wires the lobby engine to its HTTP surface.
type Server struct {
	Service *lobby.Service
	Logger  *logrus.Logger
}

func NewServer(svc *lobby.Service, logger *logrus.Logger) *Server {
	return &Server{Service: svc, Logger: logger}
}

// Routes builds the router. Lobby references in the path accept either the
// numeric id or the 6-character join code.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.LogMiddleware(s.Logger))

	r.Post("/lobby/create", s.CreateLobby)
	r.Get("/lobby/list", s.ListLobbies)

	r.Route("/lobby/{ref}", func(r chi.Router) {
		r.Get("/", s.GetLobby)
		r.Post("/join", s.Join)
		r.Post("/ready", s.ToggleReady)
		r.Post("/leave", s.Leave)
		r.Post("/kick", s.Kick)
		r.Post("/promote", s.Promote)
		r.Post("/start", s.StartGame)
	})

	return r
}
