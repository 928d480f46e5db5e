package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"chirpd/internal/logging"
	"chirpd/internal/service"
)

// Server exposes the post service over HTTP.
type Server struct {
	svc      *service.Service
	resolver PrincipalResolver
	router   *mux.Router
}

func NewServer(svc *service.Service, resolver PrincipalResolver) *Server {
	s := &Server{svc: svc, resolver: resolver}
	r := mux.NewRouter()
	r.HandleFunc("/api/posts", s.handleListAll).Methods(http.MethodGet)
	r.HandleFunc("/api/posts", s.handleCreate).Methods(http.MethodPost)
	r.HandleFunc("/api/posts/{id}", s.handleGetByID).Methods(http.MethodGet)
	r.HandleFunc("/api/posts/{id}", s.handleDelete).Methods(http.MethodDelete)
	r.HandleFunc("/api/users/{id}/posts", s.handleListByAuthor).Methods(http.MethodGet)
	s.router = r
	return s
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe blocks serving the API on addr.
func (s *Server) ListenAndServe(addr string) error {
	logging.Info("api_listening", map[string]any{"addr": addr})
	return http.ListenAndServe(addr, s.router)
}
