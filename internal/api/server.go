// Package api implements the control-plane HTTP surface: job CRUD, health
// checks, and Prometheus metrics. It never leases or executes jobs itself
// — that's internal/worker's job, running in-process in cmd/worker.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vin-jex/job-orchestrator/internal/store"
)

type Server struct {
	store  *store.Store
	logger *slog.Logger
	router *mux.Router
}

func NewServer(storeLayer *store.Store, logger *slog.Logger) *Server {
	server := &Server{
		store:  storeLayer,
		logger: logger,
	}

	server.registerRoutes()

	return server
}

func (s *Server) Handler() http.Handler {
	return s.router
}
