package entity

import (
	"time"

	"github.com/google/uuid"

	"proofledger/constants"
)

// Client is an operator-registered account holder.
type Client struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	Phone     *string
	Account   *string
	Notes     *string
	CreatedAt time.Time
}

// Proof is a persisted payment-proof document plus its extraction outcome.
type Proof struct {
	ID          uuid.UUID
	ClientID    uuid.UUID
	Filename    string
	ContentType string
	FileSize    int
	ContentHash string // sha256 hex over the raw uploaded bytes
	StoragePath string // durable copy used for reprocessing; empty if not retained

	Value       *float64
	Date        *string // ISO YYYY-MM-DD
	Beneficiary *string
	EndToEnd    *string
	RawText     string
	Confidence  float32
	Status      constants.ProofStatus

	IsDuplicate bool
	Deposited   bool
	UploadedAt  time.Time
}

// Transaction is one ledger entry against a client balance.
type Transaction struct {
	ID          uuid.UUID
	ClientID    uuid.UUID
	ProofID     *uuid.UUID
	Amount      float64
	Type        constants.TransactionType
	Status      constants.TransactionStatus
	Description string
	CreatedAt   time.Time
}

// Balance summarizes a client's ledger.
type Balance struct {
	ClientID         uuid.UUID
	Balance          float64
	TotalDeposits    float64
	TotalWithdrawals float64
}
