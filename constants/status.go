package constants

// ProofStatus is the canonical extraction status for rows in proof.
type ProofStatus string

// Stable values (store these exact strings in DB).
const (
	ProofStatusUploaded    ProofStatus = "UPLOADED"     // file stored, not processed
	ProofStatusExtracting  ProofStatus = "EXTRACTING"   // in progress
	ProofStatusExtracted   ProofStatus = "EXTRACTED"    // amount extracted successfully
	ProofStatusFailed      ProofStatus = "FAILED"       // no amount could be extracted
	ProofStatusManualEntry ProofStatus = "MANUAL_ENTRY" // amount entered by an operator
)

// TransactionType discriminates ledger entries.
type TransactionType string

const (
	TransactionDeposit    TransactionType = "DEPOSIT"
	TransactionWithdrawal TransactionType = "WITHDRAWAL"
)

// TransactionStatus is the settlement state of a ledger entry.
type TransactionStatus string

const (
	TransactionCompleted TransactionStatus = "COMPLETED"
	TransactionPending   TransactionStatus = "PENDING"
	TransactionCancelled TransactionStatus = "CANCELLED"
)
