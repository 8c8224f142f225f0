package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"proofledger/constants"
)

type depositRequest struct {
	Description string `json:"description"`
}

// handleCreateDeposit credits a proof's extracted value to its client's
// ledger. A proof can be credited exactly once.
func (s *Server) handleCreateDeposit(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req depositRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed body"})
			return
		}
	}

	proof, err := s.proofs.GetByID(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if proof.Value == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "proof has no extracted value"})
		return
	}

	tx, err := s.transactions.CreateDeposit(c.Request.Context(), proof, req.Description)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTransactionResponse(tx))
}

func (s *Server) handleRemoveDeposit(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := s.transactions.RemoveDeposit(c.Request.Context(), id); err != nil {
		s.writeError(c, err)
		return
	}
	s.logger.Info("deposit removed", "transaction_id", id)
	c.Status(http.StatusNoContent)
}

type withdrawalRequest struct {
	Amount      float64 `json:"amount" binding:"required"`
	Description string  `json:"description"`
}

func (s *Server) handleCreateWithdrawal(c *gin.Context) {
	clientID, ok := parseID(c)
	if !ok {
		return
	}
	var req withdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a positive number"})
		return
	}
	if exists, err := s.clients.Exists(c.Request.Context(), clientID); err != nil {
		s.writeError(c, err)
		return
	} else if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "client not found"})
		return
	}

	tx, err := s.transactions.CreateWithdrawal(c.Request.Context(), clientID, req.Amount, req.Description)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTransactionResponse(tx))
}

func (s *Server) handleListWithdrawals(c *gin.Context) {
	clientID, ok := parseID(c)
	if !ok {
		return
	}
	txs, err := s.transactions.ListByClient(c.Request.Context(), clientID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	out := make([]transactionResponse, 0)
	for _, t := range txs {
		if t.Type == constants.TransactionWithdrawal {
			out = append(out, toTransactionResponse(t))
		}
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": out})
}
