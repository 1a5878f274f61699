package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corebooks/corebooks/internal/apperrors"
	"github.com/corebooks/corebooks/internal/core/domain"
	"github.com/corebooks/corebooks/internal/core/services"
)

// stubLedgerRepo serves a fixed set of rows, letting integrity tests tamper
// with stored hashes without going through a posting path.
type stubLedgerRepo struct {
	rows []domain.LedgerEntry
}

func (s *stubLedgerRepo) ListEntriesByAccount(ctx context.Context, entityID, accountID string, from, to *time.Time) ([]domain.LedgerEntry, error) {
	return s.rows, nil
}

func (s *stubLedgerRepo) ListEntriesByEntity(ctx context.Context, entityID string, afterSequence int64, limit int) ([]domain.LedgerEntry, error) {
	var page []domain.LedgerEntry
	for _, row := range s.rows {
		if row.SequenceNo <= afterSequence {
			continue
		}
		page = append(page, row)
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

func (s *stubLedgerRepo) LastEntry(ctx context.Context, entityID string) (*domain.LedgerEntry, error) {
	if len(s.rows) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &s.rows[len(s.rows)-1], nil
}

func chainedRows(n int) []domain.LedgerEntry {
	rows := make([]domain.LedgerEntry, 0, n)
	prevHash := ""
	for i := 0; i < n; i++ {
		entry := domain.LedgerEntry{
			LedgerID:      fmt.Sprintf("led-%d", i+1),
			EntityID:      "ent-1",
			TransactionID: fmt.Sprintf("txn-%d", i/2+1),
			LineItemID:    fmt.Sprintf("li-%d", i/2+1),
			AccountID:     "acc-1",
			EntryType:     domain.DebitEntry,
			Amount:        decimal.NewFromInt(int64(10 + i)),
			CurrencyCode:  "USD",
			PostedDate:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			SequenceNo:    int64(i + 1),
		}
		entry.Hash = domain.ChainHash(prevHash, entry)
		prevHash = entry.Hash
		rows = append(rows, entry)
	}
	return rows
}

func TestVerifyIntegrityIntactChain(t *testing.T) {
	repo := &stubLedgerRepo{rows: chainedRows(7)}
	// Batch size smaller than the row count exercises paging.
	svc := services.NewLedgerService(repo, 3)

	report, err := svc.VerifyIntegrity(context.Background(), "ent-1")
	require.NoError(t, err)
	assert.True(t, report.Intact)
	assert.Equal(t, int64(7), report.RowsVerified)
	assert.Empty(t, report.FirstBrokenLedgerID)
}

func TestVerifyIntegrityEmptyLedger(t *testing.T) {
	svc := services.NewLedgerService(&stubLedgerRepo{}, 0)

	report, err := svc.VerifyIntegrity(context.Background(), "ent-1")
	require.NoError(t, err)
	assert.True(t, report.Intact)
	assert.Equal(t, int64(0), report.RowsVerified)
}

func TestVerifyIntegrityDetectsTamperedAmount(t *testing.T) {
	rows := chainedRows(5)
	rows[2].Amount = rows[2].Amount.Add(decimal.NewFromInt(1000))
	svc := services.NewLedgerService(&stubLedgerRepo{rows: rows}, 2)

	report, err := svc.VerifyIntegrity(context.Background(), "ent-1")
	require.ErrorIs(t, err, apperrors.ErrIntegrity)
	assert.False(t, report.Intact)
	assert.Equal(t, "led-3", report.FirstBrokenLedgerID)
	assert.Equal(t, int64(2), report.RowsVerified, "rows before the break verified clean")
}

func TestVerifyIntegrityDetectsRewrittenHash(t *testing.T) {
	rows := chainedRows(5)
	// Rewriting a row's hash consistently still breaks its successor.
	rows[1].Amount = decimal.NewFromInt(9999)
	rows[1].Hash = domain.ChainHash(rows[0].Hash, rows[1])
	svc := services.NewLedgerService(&stubLedgerRepo{rows: rows}, 10)

	report, err := svc.VerifyIntegrity(context.Background(), "ent-1")
	require.ErrorIs(t, err, apperrors.ErrIntegrity)
	assert.Equal(t, "led-3", report.FirstBrokenLedgerID)
}
