package handler

import (
	"net/http"

	"github.com/justingrant1/triptrackv3-sub001/internal/domain"
	"github.com/justingrant1/triptrackv3-sub001/internal/inbound"
	"github.com/justingrant1/triptrackv3-sub001/internal/service"
)

// inboundResponse is the 200 envelope for both webhook routes.
type inboundResponse struct {
	Success           bool   `json:"success"`
	Skipped           bool   `json:"skipped,omitempty"`
	TripID            string `json:"trip_id,omitempty"`
	TripName          string `json:"trip_name,omitempty"`
	ReservationsCount int    `json:"reservations_count,omitempty"`
}

// InboundForward handles POST /inbound/email — the direct user-forward
// webhook. Reforward after the cooldown window re-runs the pipeline, and
// deleted-trip suppression is overridden.
func (s *Server) InboundForward(w http.ResponseWriter, r *http.Request) {
	s.handleInbound(w, r, domain.SourceForward)
}

// InboundScan handles POST /inbound/scan — autonomous mailbox-scan delivery.
// Deleted-trip suppression applies and there is no reforward override.
func (s *Server) InboundScan(w http.ResponseWriter, r *http.Request) {
	s.handleInbound(w, r, domain.SourceScan)
}

// handleInbound is the shared body of the two webhook routes.
func (s *Server) handleInbound(w http.ResponseWriter, r *http.Request, source domain.Source) {
	msg, err := inbound.ParseMessage(r)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := s.pipeline.Process(r.Context(), source, msg)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resultToResponse(result))
}

// resultToResponse maps a pipeline result into the response envelope.
// Duplicate deliveries and suppressed recreations are reported as success —
// a non-2xx would make the sender retry, which is exactly what we don't want.
func resultToResponse(res service.Result) inboundResponse {
	out := inboundResponse{
		Success:           true,
		Skipped:           res.Skipped,
		TripName:          res.TripName,
		ReservationsCount: res.ReservationsCount,
	}
	if res.TripID != [16]byte{} {
		out.TripID = res.TripID.String()
	}
	return out
}
