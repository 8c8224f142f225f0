package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"proofledger/internal/entity"
	"proofledger/internal/repository"
)

type createClientRequest struct {
	Name    string  `json:"name" binding:"required"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Account *string `json:"account"`
	Notes   *string `json:"notes"`
}

func (s *Server) handleCreateClient(c *gin.Context) {
	var req createClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	created, err := s.clients.Create(c.Request.Context(), &entity.Client{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Account: req.Account,
		Notes:   req.Notes,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.logger.Info("client created", "client_id", created.ID, "name", created.Name)
	c.JSON(http.StatusCreated, toClientResponse(created))
}

func (s *Server) handleListClients(c *gin.Context) {
	clients, err := s.clients.List(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	out := make([]clientResponse, 0, len(clients))
	for _, cl := range clients {
		out = append(out, toClientResponse(cl))
	}
	c.JSON(http.StatusOK, gin.H{"clients": out})
}

func (s *Server) handleGetClient(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	client, err := s.clients.GetByID(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toClientResponse(client))
}

type updateClientRequest struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Account *string `json:"account"`
}

func (s *Server) handleUpdateClient(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req updateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed body"})
		return
	}
	updated, err := s.clients.Update(c.Request.Context(), id, repository.ClientUpdate{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Account: req.Account,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toClientResponse(updated))
}

type updateNotesRequest struct {
	Notes string `json:"notes"`
}

func (s *Server) handleUpdateClientNotes(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req updateNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed body"})
		return
	}
	if err := s.clients.UpdateNotes(c.Request.Context(), id, req.Notes); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleDeleteClient(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := s.clients.Delete(c.Request.Context(), id); err != nil {
		s.writeError(c, err)
		return
	}
	s.logger.Info("client deleted", "client_id", id)
	c.Status(http.StatusNoContent)
}

func (s *Server) handleGetBalance(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if exists, err := s.clients.Exists(c.Request.Context(), id); err != nil {
		s.writeError(c, err)
		return
	} else if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	balance, err := s.transactions.GetBalance(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBalanceResponse(balance))
}

func (s *Server) handleListTransactions(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	txs, err := s.transactions.ListByClient(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionResponse(t))
	}
	c.JSON(http.StatusOK, gin.H{"transactions": out})
}

func (s *Server) handleExportStatement(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	data, err := s.exporter.ExportStatementXLSX(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="statement.xlsx"`)
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
