package handler

import (
	"net/http"
)

// Health handles GET /healthz. It returns 200 with {"status":"ok"} when the
// server and its database are reachable, 503 otherwise.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
