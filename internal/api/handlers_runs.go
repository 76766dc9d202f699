package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/wallet-scanner/internal/logging"
)

// handleListRuns handles GET /api/runs - Recent scan runs
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid 'limit' parameter", nil)
			return
		}
		limit = parsed
	}

	runs, err := s.runRepo.ListRecent(r.Context(), limit)
	if err != nil {
		logging.WithError(err).Error("ListRuns failed")
		statusCode, code, message := mapServiceError(err)
		respondError(w, statusCode, code, message, nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// handleGetRun handles GET /api/runs/:id - One scan run with per-wallet progress
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	run, err := s.runRepo.Get(r.Context(), id)
	if err != nil {
		logging.WithError(err).Error("GetRun failed")
		statusCode, code, message := mapServiceError(err)
		respondError(w, statusCode, code, message, nil)
		return
	}
	if run == nil {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Run not found", nil)
		return
	}

	progress, err := s.runRepo.GetProgress(r.Context(), id)
	if err != nil {
		logging.WithError(err).Error("GetRunProgress failed")
		statusCode, code, message := mapServiceError(err)
		respondError(w, statusCode, code, message, nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run":      run,
		"progress": progress,
	})
}

// handleWorkerStatus handles GET /api/worker/status - Background worker state
func (s *Server) handleWorkerStatus(w http.ResponseWriter, r *http.Request) {
	if s.worker == nil {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Worker not running in this process", nil)
		return
	}

	respondJSON(w, http.StatusOK, s.worker.GetStatus())
}
