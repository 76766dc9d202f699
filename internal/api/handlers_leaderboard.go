package api

import (
	"net/http"

	"github.com/wallet-scanner/internal/logging"
	"github.com/wallet-scanner/internal/types"
)

// handleGetLeaderboard handles GET /api/leaderboard?period= - Ranked wallets for a window
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("period")
	if raw == "" {
		raw = string(types.PeriodAll)
	}

	period, ok := parsePeriod(raw)
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid 'period' parameter (expected 1d, 7d, 30d or all)", nil)
		return
	}

	rankings, err := s.leaderboardService.GetLeaderboard(r.Context(), period)
	if err != nil {
		logging.WithError(err).Error("GetLeaderboard failed")
		statusCode, code, message := mapServiceError(err)
		respondError(w, statusCode, code, message, nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"period":   period,
		"rankings": rankings,
		"count":    len(rankings),
	})
}

// parsePeriod maps a query value onto a supported aggregation window
func parsePeriod(raw string) (types.TimePeriod, bool) {
	for _, p := range types.AllPeriods {
		if raw == string(p) {
			return p, true
		}
	}
	return "", false
}
