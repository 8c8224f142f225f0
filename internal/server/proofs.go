package server

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"proofledger/internal/async"
	"proofledger/internal/ingest"
)

func (s *Server) handleUploadProof(c *gin.Context) {
	clientID, ok := parseID(c)
	if !ok {
		return
	}
	if exists, err := s.clients.Exists(c.Request.Context(), clientID); err != nil {
		s.writeError(c, err)
		return
	} else if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "client not found"})
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		s.writeError(c, err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		s.writeError(c, err)
		return
	}

	res, err := s.intake.UploadProof(c.Request.Context(), ingest.UploadRequest{
		ClientID:    clientID,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	if res.Duplicate {
		c.JSON(http.StatusConflict, gin.H{"is_duplicate": true})
		return
	}
	c.JSON(http.StatusCreated, toProofResponse(res.Proof))
}

func (s *Server) handleGetProof(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	proof, err := s.proofs.GetByID(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProofResponse(proof))
}

func (s *Server) handleListProofs(c *gin.Context) {
	clientID, ok := parseID(c)
	if !ok {
		return
	}
	proofs, err := s.proofs.ListByClient(c.Request.Context(), clientID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	out := make([]proofResponse, 0, len(proofs))
	for _, p := range proofs {
		out = append(out, toProofResponse(p))
	}
	c.JSON(http.StatusOK, gin.H{"proofs": out})
}

func (s *Server) handleDeleteProof(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := s.proofs.Delete(c.Request.Context(), id); err != nil {
		s.writeError(c, err)
		return
	}
	s.logger.Info("proof deleted", "proof_id", id)
	c.Status(http.StatusNoContent)
}

// handleReprocessProof queues another extraction pass over the retained copy
// of an uploaded document. The request returns immediately; results land on
// the proof row when a worker picks the job up.
func (s *Server) handleReprocessProof(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	proof, err := s.proofs.GetByID(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if proof.StoragePath == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "proof document was not retained, reprocessing unavailable"})
		return
	}

	if err := s.queue.Enqueue(c.Request.Context(), async.Job{
		ProofID:     proof.ID,
		Path:        proof.StoragePath,
		SubmittedAt: time.Now(),
	}); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"queued": true})
}

type manualValueRequest struct {
	Value float64 `json:"value" binding:"required"`
}

// handleSetManualValue lets an operator fill in the amount on a proof the
// pipeline could not read. Refused once the proof has been credited.
func (s *Server) handleSetManualValue(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req manualValueRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Value <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "value must be a positive number"})
		return
	}
	if err := s.proofs.SetManualValue(c.Request.Context(), id, req.Value); err != nil {
		s.writeError(c, err)
		return
	}
	s.logger.Info("manual value set", "proof_id", id, "value", req.Value)
	c.Status(http.StatusNoContent)
}
