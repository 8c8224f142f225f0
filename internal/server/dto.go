package server

import (
	"time"

	"github.com/google/uuid"

	"proofledger/internal/entity"
)

type clientResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Account   *string   `json:"account,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt string    `json:"created_at"`
}

func toClientResponse(c *entity.Client) clientResponse {
	return clientResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Account:   c.Account,
		Notes:     c.Notes,
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type proofResponse struct {
	ID          uuid.UUID `json:"id"`
	ClientID    uuid.UUID `json:"client_id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	FileSize    int       `json:"file_size"`
	ContentHash string    `json:"content_hash"`

	Value       *float64 `json:"value,omitempty"`
	Date        *string  `json:"date,omitempty"`
	Beneficiary *string  `json:"beneficiary,omitempty"`
	EndToEnd    *string  `json:"endtoend,omitempty"`
	RawText     string   `json:"raw_text,omitempty"`
	Confidence  float32  `json:"confidence"`
	Status      string   `json:"status"`

	Deposited  bool   `json:"deposited"`
	UploadedAt string `json:"uploaded_at"`
}

func toProofResponse(p *entity.Proof) proofResponse {
	return proofResponse{
		ID:          p.ID,
		ClientID:    p.ClientID,
		Filename:    p.Filename,
		ContentType: p.ContentType,
		FileSize:    p.FileSize,
		ContentHash: p.ContentHash,
		Value:       p.Value,
		Date:        p.Date,
		Beneficiary: p.Beneficiary,
		EndToEnd:    p.EndToEnd,
		RawText:     p.RawText,
		Confidence:  p.Confidence,
		Status:      string(p.Status),
		Deposited:   p.Deposited,
		UploadedAt:  p.UploadedAt.UTC().Format(time.RFC3339),
	}
}

type transactionResponse struct {
	ID          uuid.UUID  `json:"id"`
	ClientID    uuid.UUID  `json:"client_id"`
	ProofID     *uuid.UUID `json:"proof_id,omitempty"`
	Amount      float64    `json:"amount"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	Description string     `json:"description,omitempty"`
	CreatedAt   string     `json:"created_at"`
}

func toTransactionResponse(t *entity.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		ClientID:    t.ClientID,
		ProofID:     t.ProofID,
		Amount:      t.Amount,
		Type:        string(t.Type),
		Status:      string(t.Status),
		Description: t.Description,
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type balanceResponse struct {
	ClientID         uuid.UUID `json:"client_id"`
	Balance          float64   `json:"balance"`
	TotalDeposits    float64   `json:"total_deposits"`
	TotalWithdrawals float64   `json:"total_withdrawals"`
}

func toBalanceResponse(b *entity.Balance) balanceResponse {
	return balanceResponse{
		ClientID:         b.ClientID,
		Balance:          b.Balance,
		TotalDeposits:    b.TotalDeposits,
		TotalWithdrawals: b.TotalWithdrawals,
	}
}
