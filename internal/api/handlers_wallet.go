package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/wallet-scanner/internal/logging"
	"github.com/wallet-scanner/internal/models"
	"github.com/wallet-scanner/internal/storage"
	"github.com/wallet-scanner/internal/types"
)

// handleListWallets handles GET /api/wallets - List tracked wallets
func (s *Server) handleListWallets(w http.ResponseWriter, r *http.Request) {
	wallets, err := s.walletRepo.List(r.Context())
	if err != nil {
		logging.WithError(err).Error("ListWallets failed")
		statusCode, code, message := mapServiceError(err)
		respondError(w, statusCode, code, message, nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"wallets": wallets,
		"count":   len(wallets),
	})
}

// handleAddWallet handles POST /api/wallets - Register a wallet for tracking
func (s *Server) handleAddWallet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Address  string `json:"address"`
		UserName string `json:"userName,omitempty"`
		Rank     *int   `json:"rank,omitempty"`
	}

	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if err := storage.ValidateWallet(req.Address); err != nil {
		statusCode, code, message := mapServiceError(err)
		respondError(w, statusCode, code, message, nil)
		return
	}

	wallet := &models.Wallet{
		Address:  strings.ToLower(req.Address),
		UserName: req.UserName,
		Rank:     req.Rank,
	}

	if err := s.walletRepo.Upsert(r.Context(), wallet); err != nil {
		logging.WithError(err).Error("AddWallet failed")
		statusCode, code, message := mapServiceError(err)
		respondError(w, statusCode, code, message, nil)
		return
	}

	respondJSON(w, http.StatusCreated, wallet)
}

// handleGetWallet handles GET /api/wallets/:wallet - Get wallet sync state
func (s *Server) handleGetWallet(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["wallet"]

	if err := storage.ValidateWallet(address); err != nil {
		statusCode, code, message := mapServiceError(err)
		respondError(w, statusCode, code, message, nil)
		return
	}

	wallet, err := s.walletRepo.Get(r.Context(), address)
	if err != nil {
		logging.WithError(err).Error("GetWallet failed")
		statusCode, code, message := mapServiceError(err)
		respondError(w, statusCode, code, message, nil)
		return
	}
	if wallet == nil {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Wallet not tracked", nil)
		return
	}

	respondJSON(w, http.StatusOK, wallet)
}

// handleRemoveWallet handles DELETE /api/wallets/:wallet - Stop tracking a wallet
func (s *Server) handleRemoveWallet(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["wallet"]

	if err := storage.ValidateWallet(address); err != nil {
		statusCode, code, message := mapServiceError(err)
		respondError(w, statusCode, code, message, nil)
		return
	}

	if err := s.walletRepo.Delete(r.Context(), address); err != nil {
		logging.WithError(err).Error("RemoveWallet failed")
		statusCode, code, message := mapServiceError(err)
		respondError(w, statusCode, code, message, nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"address": strings.ToLower(address),
		"status":  "removed",
	})
}

// handleGetWalletStats handles GET /api/wallets/:wallet/stats - Full analysis view
func (s *Server) handleGetWalletStats(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["wallet"]

	stats, err := s.statsService.GetStats(r.Context(), address)
	if err != nil {
		statusCode, code, message := mapServiceError(err)
		respondError(w, statusCode, code, message, nil)
		return
	}

	tiers, err := s.statsRepo.GetPriceTiers(r.Context(), address)
	if err != nil {
		logging.WithError(err).Error("GetPriceTiers failed")
		statusCode, code, message := mapServiceError(err)
		respondError(w, statusCode, code, message, nil)
		return
	}

	categories, err := s.statsRepo.GetCategories(r.Context(), address)
	if err != nil {
		logging.WithError(err).Error("GetCategories failed")
		statusCode, code, message := mapServiceError(err)
		respondError(w, statusCode, code, message, nil)
		return
	}

	response := map[string]interface{}{
		"stats":      stats,
		"priceTiers": tiers,
		"categories": categories,
	}

	rankings, err := s.leaderboardService.GetWalletRankings(r.Context(), address)
	if err != nil {
		logging.WithError(err).Error("GetWalletRankings failed")
		statusCode, code, message := mapServiceError(err)
		respondError(w, statusCode, code, message, nil)
		return
	}
	if len(rankings) > 0 {
		response["leaderboard"] = rankings
		for _, lr := range rankings {
			// Reported-vs-computed PnL gap over the full history, a data
			// quality signal for the sync watermark
			if lr.TimePeriod == types.PeriodAll {
				response["pnlDiff"] = lr.Pnl - stats.RealizedPnlAll
			}
		}
	}

	respondJSON(w, http.StatusOK, response)
}

// handleGetWalletTrades handles GET /api/wallets/:wallet/trades - Stored trade history
func (s *Server) handleGetWalletTrades(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["wallet"]

	if err := storage.ValidateWallet(address); err != nil {
		statusCode, code, message := mapServiceError(err)
		respondError(w, statusCode, code, message, nil)
		return
	}

	var since int64
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid 'since' parameter", nil)
			return
		}
		since = parsed
	}

	var trades []*models.TradeRecord
	var err error
	if since > 0 {
		trades, err = s.tradeRepo.GetByWalletSince(r.Context(), address, since)
	} else {
		trades, err = s.tradeRepo.GetByWallet(r.Context(), address)
	}
	if err != nil {
		logging.WithError(err).Error("GetWalletTrades failed")
		statusCode, code, message := mapServiceError(err)
		respondError(w, statusCode, code, message, nil)
		return
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid 'limit' parameter", nil)
			return
		}
		if limit < len(trades) {
			trades = trades[:limit]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"wallet": strings.ToLower(address),
		"trades": trades,
		"count":  len(trades),
	})
}

// handleGetWalletPositions handles GET /api/wallets/:wallet/positions - Closed and open positions
func (s *Server) handleGetWalletPositions(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["wallet"]

	if err := storage.ValidateWallet(address); err != nil {
		statusCode, code, message := mapServiceError(err)
		respondError(w, statusCode, code, message, nil)
		return
	}

	closed, err := s.positionRepo.GetClosedByWallet(r.Context(), address)
	if err != nil {
		logging.WithError(err).Error("GetClosedPositions failed")
		statusCode, code, message := mapServiceError(err)
		respondError(w, statusCode, code, message, nil)
		return
	}

	open, err := s.positionRepo.GetOpenByWallet(r.Context(), address)
	if err != nil {
		logging.WithError(err).Error("GetOpenPositions failed")
		statusCode, code, message := mapServiceError(err)
		respondError(w, statusCode, code, message, nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"wallet": strings.ToLower(address),
		"closed": closed,
		"open":   open,
	})
}

// handleGetWalletVolume handles GET /api/wallets/:wallet/volume - Daily volume from the trade archive
func (s *Server) handleGetWalletVolume(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["wallet"]

	if err := storage.ValidateWallet(address); err != nil {
		statusCode, code, message := mapServiceError(err)
		respondError(w, statusCode, code, message, nil)
		return
	}

	if s.archiveRepo == nil {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Trade archive not configured", nil)
		return
	}

	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 365 {
			respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid 'days' parameter", nil)
			return
		}
		days = parsed
	}

	volume, err := s.archiveRepo.DailyVolume(r.Context(), address, days)
	if err != nil {
		logging.WithError(err).Error("DailyVolume failed")
		statusCode, code, message := mapServiceError(err)
		respondError(w, statusCode, code, message, nil)
		return
	}

	total, err := s.archiveRepo.CountByWallet(r.Context(), address)
	if err != nil {
		logging.WithError(err).Error("CountByWallet failed")
		statusCode, code, message := mapServiceError(err)
		respondError(w, statusCode, code, message, nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"wallet":         strings.ToLower(address),
		"days":           days,
		"dailyVolume":    volume,
		"archivedTrades": total,
	})
}

// handleSyncWallet handles POST /api/wallets/:wallet/sync - On-demand sync and analysis
func (s *Server) handleSyncWallet(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["wallet"]

	result, err := s.syncService.SyncWallet(r.Context(), address)
	if err != nil {
		logging.WithError(err).WithField("wallet", address).Error("SyncWallet failed")
		statusCode, code, message := mapServiceError(err)
		respondError(w, statusCode, code, message, nil)
		return
	}

	stats, err := s.statsService.AnalyzeWallet(r.Context(), address)
	if err != nil {
		logging.WithError(err).WithField("wallet", address).Error("AnalyzeWallet failed")
		statusCode, code, message := mapServiceError(err)
		respondError(w, statusCode, code, message, nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sync":  result,
		"stats": stats,
	})
}
