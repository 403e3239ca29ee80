package target

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/user/gridlock/internal/pool"
)

type resourceResponse struct {
	ID      string `json:"id"`
	Version int64  `json:"version"`
	Status  string `json:"status"`
}

type fieldUpdateRequest struct {
	Field   string `json:"field"`
	Version *int64 `json:"version"`
}

type statusUpdateRequest struct {
	Status  string `json:"status"`
	Version *int64 `json:"version"`
}

func (s *Server) handleGetResource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	rec, ok := s.resources[id]
	if !ok {
		s.mu.Unlock()
		s.metrics.notFound.Add(1)
		writeError(w, http.StatusNotFound, "resource not found", "NOT_FOUND")
		return
	}
	resp := resourceResponse{ID: id, Version: rec.Version, Status: rec.Status}
	s.mu.Unlock()

	s.metrics.reads.Add(1)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateResource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req fieldUpdateRequest
	if err := decodeJSON(r, &req); err != nil || req.Version == nil {
		writeError(w, http.StatusBadRequest, "body must carry field and version", "BAD_REQUEST")
		return
	}

	s.mu.Lock()
	rec, ok := s.resources[id]
	if !ok {
		s.mu.Unlock()
		s.metrics.notFound.Add(1)
		writeError(w, http.StatusNotFound, "resource not found", "NOT_FOUND")
		return
	}

	s.maybeInjectConflict(rec)
	if *req.Version != rec.Version {
		current := rec.Version
		s.mu.Unlock()
		s.metrics.conflicts.Add(1)
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error":   "version conflict",
			"code":    "VERSION_CONFLICT",
			"version": current,
		})
		return
	}

	rec.Field = req.Field
	rec.Version++
	resp := resourceResponse{ID: id, Version: rec.Version, Status: rec.Status}
	s.mu.Unlock()

	s.metrics.applied.Add(1)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req statusUpdateRequest
	if err := decodeJSON(r, &req); err != nil || req.Version == nil {
		writeError(w, http.StatusBadRequest, "body must carry status and version", "BAD_REQUEST")
		return
	}
	if !pool.ValidStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "unknown status "+req.Status, "BAD_REQUEST")
		return
	}

	s.mu.Lock()
	rec, ok := s.resources[id]
	if !ok {
		s.mu.Unlock()
		s.metrics.notFound.Add(1)
		writeError(w, http.StatusNotFound, "resource not found", "NOT_FOUND")
		return
	}

	s.maybeInjectConflict(rec)
	if *req.Version != rec.Version {
		current := rec.Version
		s.mu.Unlock()
		s.metrics.conflicts.Add(1)
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error":   "version conflict",
			"code":    "VERSION_CONFLICT",
			"version": current,
		})
		return
	}
	if !pool.ValidTransition(rec.Status, req.Status) {
		from := rec.Status
		s.mu.Unlock()
		s.metrics.invalid.Add(1)
		writeError(w, http.StatusUnprocessableEntity,
			"transition "+from+" -> "+req.Status+" not allowed", "INVALID_TRANSITION")
		return
	}

	rec.Status = req.Status
	rec.Version++
	resp := resourceResponse{ID: id, Version: rec.Version, Status: rec.Status}
	s.mu.Unlock()

	s.metrics.applied.Add(1)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.seed()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// maybeInjectConflict bumps the version ahead of the caller's token for a
// configured fraction of updates. Callers hold s.mu.
func (s *Server) maybeInjectConflict(rec *resourceRec) {
	if s.cfg.ConflictRate <= 0 {
		return
	}
	if s.rng.Float64() < s.cfg.ConflictRate {
		rec.Version++
		s.metrics.injected.Add(1)
	}
}
