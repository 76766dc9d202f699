// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/wallet-scanner/internal/logging"
	"github.com/wallet-scanner/internal/models"
	"github.com/wallet-scanner/internal/service"
	"github.com/wallet-scanner/internal/storage"
	"github.com/wallet-scanner/internal/types"
	"github.com/wallet-scanner/internal/worker"
)

// Service interfaces for dependency injection and testing

// SyncServiceInterface defines the interface for trade sync operations
type SyncServiceInterface interface {
	SyncWallet(ctx context.Context, wallet string) (*service.SyncResult, error)
}

// StatsServiceInterface defines the interface for wallet stats operations
type StatsServiceInterface interface {
	AnalyzeWallet(ctx context.Context, wallet string) (*models.WalletStats, error)
	GetStats(ctx context.Context, wallet string) (*models.WalletStats, error)
}

// LeaderboardServiceInterface defines the interface for leaderboard operations
type LeaderboardServiceInterface interface {
	GetLeaderboard(ctx context.Context, period types.TimePeriod) ([]*models.LeaderboardRanking, error)
	GetWalletRankings(ctx context.Context, wallet string) ([]*models.LeaderboardRanking, error)
}

// WorkerStatusProvider reports the state of the background scan worker
type WorkerStatusProvider interface {
	GetStatus() *worker.Status
}

// Server represents the HTTP API server.
type Server struct {
	router             *mux.Router
	httpServer         *http.Server
	syncService        SyncServiceInterface
	statsService       StatsServiceInterface
	leaderboardService LeaderboardServiceInterface
	walletRepo         *storage.WalletRepository
	tradeRepo          *storage.TradeRepository
	positionRepo       *storage.PositionRepository
	statsRepo          *storage.StatsRepository
	runRepo            *storage.ScanRunRepository
	archiveRepo        *storage.TradeArchiveRepository
	worker             WorkerStatusProvider
	config             *ServerConfig
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	FreeTierRPS     int // Requests per second for free tier
	PremiumTierRPS  int // Requests per second for premium tier
}

// NewServer creates a new API server instance.
func NewServer(
	config *ServerConfig,
	syncService SyncServiceInterface,
	statsService StatsServiceInterface,
	leaderboardService LeaderboardServiceInterface,
	walletRepo *storage.WalletRepository,
	tradeRepo *storage.TradeRepository,
	positionRepo *storage.PositionRepository,
	statsRepo *storage.StatsRepository,
	runRepo *storage.ScanRunRepository,
	archiveRepo *storage.TradeArchiveRepository,
	worker WorkerStatusProvider,
) *Server {
	s := &Server{
		router:             mux.NewRouter(),
		syncService:        syncService,
		statsService:       statsService,
		leaderboardService: leaderboardService,
		walletRepo:         walletRepo,
		tradeRepo:          tradeRepo,
		positionRepo:       positionRepo,
		statsRepo:          statsRepo,
		runRepo:            runRepo,
		archiveRepo:        archiveRepo,
		worker:             worker,
		config:             config,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	// Create rate limiter
	rateLimiter := NewRateLimiter(s.config.FreeTierRPS, s.config.PremiumTierRPS)

	// Set up middleware (order matters!)
	s.router.Use(LoggingMiddleware)
	s.router.Use(RecoveryMiddleware)
	s.router.Use(CORSMiddleware)
	s.router.Use(RateLimitMiddleware(rateLimiter)) // Rate limiting after CORS
	s.router.Use(CompressionMiddleware)

	// Set up routes
	s.setupRoutes()

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// API v1 routes
	api := s.router.PathPrefix("/api").Subrouter()

	// Wallet endpoints
	api.HandleFunc("/wallets", s.handleListWallets).Methods("GET")
	api.HandleFunc("/wallets", s.handleAddWallet).Methods("POST")
	api.HandleFunc("/wallets/{wallet}", s.handleGetWallet).Methods("GET")
	api.HandleFunc("/wallets/{wallet}", s.handleRemoveWallet).Methods("DELETE")
	api.HandleFunc("/wallets/{wallet}/stats", s.handleGetWalletStats).Methods("GET")
	api.HandleFunc("/wallets/{wallet}/trades", s.handleGetWalletTrades).Methods("GET")
	api.HandleFunc("/wallets/{wallet}/positions", s.handleGetWalletPositions).Methods("GET")
	api.HandleFunc("/wallets/{wallet}/volume", s.handleGetWalletVolume).Methods("GET")
	api.HandleFunc("/wallets/{wallet}/sync", s.handleSyncWallet).Methods("POST")

	// Leaderboard endpoints
	api.HandleFunc("/leaderboard", s.handleGetLeaderboard).Methods("GET")

	// Scan run endpoints
	api.HandleFunc("/runs", s.handleListRuns).Methods("GET")
	api.HandleFunc("/runs/{id}", s.handleGetRun).Methods("GET")
	api.HandleFunc("/worker/status", s.handleWorkerStatus).Methods("GET")
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "wallet-scanner",
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	logging.WithField("addr", s.httpServer.Addr).Info("Starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down API server...")
	return s.httpServer.Shutdown(ctx)
}
