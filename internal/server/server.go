package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"proofledger/internal/async"
	"proofledger/internal/common"
	"proofledger/internal/export"
	"proofledger/internal/ingest"
	"proofledger/internal/repository"
)

// Server wires the HTTP surface over the repositories and services.
type Server struct {
	clients      repository.ClientRepository
	proofs       repository.ProofRepository
	transactions repository.TransactionRepository
	intake       *ingest.Service
	queue        async.Queue
	exporter     *export.Service
	health       func(ctx context.Context) error
	logger       *slog.Logger
}

func New(
	clients repository.ClientRepository,
	proofs repository.ProofRepository,
	transactions repository.TransactionRepository,
	intake *ingest.Service,
	queue async.Queue,
	exporter *export.Service,
	health func(ctx context.Context) error,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		clients:      clients,
		proofs:       proofs,
		transactions: transactions,
		intake:       intake,
		queue:        queue,
		exporter:     exporter,
		health:       health,
		logger:       logger,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", s.handleHealth)

	api := r.Group("/api/v1")
	{
		api.POST("/clients", s.handleCreateClient)
		api.GET("/clients", s.handleListClients)
		api.GET("/clients/:id", s.handleGetClient)
		api.PUT("/clients/:id", s.handleUpdateClient)
		api.PUT("/clients/:id/notes", s.handleUpdateClientNotes)
		api.DELETE("/clients/:id", s.handleDeleteClient)
		api.GET("/clients/:id/balance", s.handleGetBalance)
		api.GET("/clients/:id/transactions", s.handleListTransactions)
		api.GET("/clients/:id/proofs", s.handleListProofs)
		api.GET("/clients/:id/statement.xlsx", s.handleExportStatement)

		api.POST("/clients/:id/proofs", s.handleUploadProof)
		api.GET("/proofs/:id", s.handleGetProof)
		api.DELETE("/proofs/:id", s.handleDeleteProof)
		api.POST("/proofs/:id/reprocess", s.handleReprocessProof)
		api.PUT("/proofs/:id/value", s.handleSetManualValue)

		api.POST("/deposits/proofs/:id", s.handleCreateDeposit)
		api.DELETE("/deposits/:id", s.handleRemoveDeposit)
		api.POST("/clients/:id/withdrawals", s.handleCreateWithdrawal)
		api.GET("/clients/:id/withdrawals", s.handleListWithdrawals)
	}
	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseID pulls a UUID path parameter, responding 400 itself on failure.
func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a UUID"})
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps domain sentinels onto HTTP status codes.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, common.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrAlreadyCredited):
		c.JSON(http.StatusConflict, gin.H{"error": "proof already credited"})
	case errors.Is(err, common.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "duplicate"})
	default:
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
