// Package handler implements the HTTP surface of the ingestion API: the two
// inbound-email webhook routes and the health check. Handlers stay thin —
// parse, delegate to the pipeline, map sentinel errors to status codes.
package handler

import (
	"context"

	"github.com/go-chi/chi/v5"

	"github.com/justingrant1/triptrackv3-sub001/internal/domain"
	"github.com/justingrant1/triptrackv3-sub001/internal/service"
)

// Processor defines the pipeline operation the handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a fake without touching the database or the extraction API.
type Processor interface {
	Process(ctx context.Context, source domain.Source, msg domain.InboundMessage) (service.Result, error)
}

// Pinger is the health check's view of the database pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the handler dependencies. Methods are split into
// domain-specific files (inbound.go, health.go) but share this struct.
type Server struct {
	pipeline Processor
	db       Pinger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(pipeline Processor, db Pinger) *Server {
	return &Server{pipeline: pipeline, db: db}
}

// Routes registers all endpoints on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/healthz", s.Health)
	r.Post("/inbound/email", s.InboundForward)
	r.Post("/inbound/scan", s.InboundScan)
}
