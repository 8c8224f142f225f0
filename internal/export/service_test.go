package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"proofledger/constants"
	"proofledger/internal/common"
	"proofledger/internal/entity"
	"proofledger/internal/repository"
)

type stubClients struct{ client *entity.Client }

func (s *stubClients) Create(context.Context, *entity.Client) (*entity.Client, error) {
	return nil, nil
}
func (s *stubClients) GetByID(_ context.Context, id uuid.UUID) (*entity.Client, error) {
	if s.client != nil && s.client.ID == id {
		return s.client, nil
	}
	return nil, common.ErrNotFound
}
func (s *stubClients) List(context.Context) ([]*entity.Client, error) { return nil, nil }
func (s *stubClients) Update(context.Context, uuid.UUID, repository.ClientUpdate) (*entity.Client, error) {
	return nil, nil
}
func (s *stubClients) UpdateNotes(context.Context, uuid.UUID, string) error { return nil }
func (s *stubClients) Delete(context.Context, uuid.UUID) error              { return nil }
func (s *stubClients) Exists(context.Context, uuid.UUID) (bool, error)      { return true, nil }

type stubTransactions struct {
	txs     []*entity.Transaction
	balance *entity.Balance
}

func (s *stubTransactions) CreateDeposit(context.Context, *entity.Proof, string) (*entity.Transaction, error) {
	return nil, nil
}
func (s *stubTransactions) RemoveDeposit(context.Context, uuid.UUID) error { return nil }
func (s *stubTransactions) CreateWithdrawal(context.Context, uuid.UUID, float64, string) (*entity.Transaction, error) {
	return nil, nil
}
func (s *stubTransactions) ListByClient(context.Context, uuid.UUID) ([]*entity.Transaction, error) {
	return s.txs, nil
}
func (s *stubTransactions) GetBalance(context.Context, uuid.UUID) (*entity.Balance, error) {
	return s.balance, nil
}

type stubProofs struct{ proof *entity.Proof }

func (s *stubProofs) Create(context.Context, *entity.Proof) (*entity.Proof, error) { return nil, nil }
func (s *stubProofs) GetByID(_ context.Context, id uuid.UUID) (*entity.Proof, error) {
	if s.proof != nil && s.proof.ID == id {
		return s.proof, nil
	}
	return nil, common.ErrNotFound
}
func (s *stubProofs) ListByClient(context.Context, uuid.UUID) ([]*entity.Proof, error) {
	return nil, nil
}
func (s *stubProofs) ExistsByClientAndHash(context.Context, uuid.UUID, string) (bool, error) {
	return false, nil
}
func (s *stubProofs) UpdateExtraction(context.Context, uuid.UUID, repository.ExtractionUpdate) error {
	return nil
}
func (s *stubProofs) SetManualValue(context.Context, uuid.UUID, float64) error { return nil }
func (s *stubProofs) Delete(context.Context, uuid.UUID) error                  { return nil }

func TestExportStatementXLSX(t *testing.T) {
	clientID := uuid.New()
	proofID := uuid.New()
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	clients := &stubClients{client: &entity.Client{ID: clientID, Name: "Maria Souza"}}
	proofs := &stubProofs{proof: &entity.Proof{ID: proofID, Filename: "pix-march.pdf"}}
	txs := &stubTransactions{
		txs: []*entity.Transaction{
			{ID: uuid.New(), ClientID: clientID, ProofID: &proofID, Amount: 1500.50,
				Type: constants.TransactionDeposit, Status: constants.TransactionCompleted,
				Description: "PIX deposit", CreatedAt: now},
			{ID: uuid.New(), ClientID: clientID, Amount: 200,
				Type: constants.TransactionWithdrawal, Status: constants.TransactionCompleted,
				Description: "cash out", CreatedAt: now.Add(24 * time.Hour)},
		},
		balance: &entity.Balance{ClientID: clientID, Balance: 1300.50, TotalDeposits: 1500.50, TotalWithdrawals: 200},
	}

	svc := NewService(clients, txs, proofs, nil)
	data, err := svc.ExportStatementXLSX(context.Background(), clientID)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	const sheet = "Statement"
	header, err := wb.GetCellValue(sheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Date", header)

	date, _ := wb.GetCellValue(sheet, "A2")
	assert.Equal(t, "2026-03-14", date)
	txType, _ := wb.GetCellValue(sheet, "B2")
	assert.Equal(t, "DEPOSIT", txType)
	proofName, _ := wb.GetCellValue(sheet, "F2")
	assert.Equal(t, "pix-march.pdf", proofName)

	// withdrawals come out negative
	amount, _ := wb.GetCellValue(sheet, "C3")
	assert.Equal(t, "-200", amount)

	// summary block: blank row then totals
	label, _ := wb.GetCellValue(sheet, "B5")
	assert.Equal(t, "Total Deposits", label)
	closing, _ := wb.GetCellValue(sheet, "C7")
	assert.Equal(t, "1300.5", closing)
}

func TestExportStatementUnknownClient(t *testing.T) {
	svc := NewService(&stubClients{}, &stubTransactions{}, &stubProofs{}, nil)
	_, err := svc.ExportStatementXLSX(context.Background(), uuid.New())
	require.ErrorIs(t, err, common.ErrNotFound)
}
