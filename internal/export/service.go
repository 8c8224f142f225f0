package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"proofledger/constants"
	"proofledger/internal/repository"
)

// Service is a tiny façade over repositories that produces XLSX bytes for
// client statements.
type Service struct {
	clients      repository.ClientRepository
	transactions repository.TransactionRepository
	proofs       repository.ProofRepository
	logger       *slog.Logger
}

func NewService(clients repository.ClientRepository, transactions repository.TransactionRepository, proofs repository.ProofRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{clients: clients, transactions: transactions, proofs: proofs, logger: logger}
}

// ExportStatementXLSX returns an XLSX workbook (as bytes) listing a client's
// ledger entries plus a closing balance row.
func (s *Service) ExportStatementXLSX(ctx context.Context, clientID uuid.UUID) ([]byte, error) {
	start := time.Now()

	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("load client: %w", err)
	}
	txs, err := s.transactions.ListByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	balance, err := s.transactions.GetBalance(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("compute balance: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Statement"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Date",
		"Type",
		"Amount",
		"Status",
		"Description",
		"Proof Document",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	write := func(col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	row := 2
	for _, tx := range txs {
		// withdrawals render negative so the column sums to the balance
		amount := tx.Amount
		if tx.Type == constants.TransactionWithdrawal {
			amount = -amount
		}

		proofName := ""
		if tx.ProofID != nil {
			if p, err := s.proofs.GetByID(ctx, *tx.ProofID); err == nil {
				proofName = p.Filename
			}
		}

		write(1, row, tx.CreatedAt.Format("2006-01-02"))
		write(2, row, string(tx.Type))
		write(3, row, amount)
		write(4, row, string(tx.Status))
		write(5, row, truncate(tx.Description, 140))
		write(6, row, proofName)
		row++
	}

	row++ // blank separator before the summary block
	write(2, row, "Total Deposits")
	write(3, row, balance.TotalDeposits)
	row++
	write(2, row, "Total Withdrawals")
	write(3, row, balance.TotalWithdrawals)
	row++
	write(2, row, "Balance")
	write(3, row, balance.Balance)

	_ = f.SetColWidth(sheet, "A", "A", 14) // date
	_ = f.SetColWidth(sheet, "B", "B", 20) // type
	_ = f.SetColWidth(sheet, "C", "C", 14) // amount
	_ = f.SetColWidth(sheet, "D", "D", 14) // status
	_ = f.SetColWidth(sheet, "E", "E", 48) // description
	_ = f.SetColWidth(sheet, "F", "F", 40) // proof

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("statement.xlsx.ok",
		"client_id", clientID.String(),
		"client", client.Name,
		"rows", len(txs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
