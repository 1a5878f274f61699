package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/corebooks/corebooks/internal/apperrors"
	"github.com/corebooks/corebooks/internal/core/domain"
	portsrepo "github.com/corebooks/corebooks/internal/core/ports/repositories"
	"github.com/corebooks/corebooks/internal/dto"
)

// defaultIntegrityBatchSize pages the integrity sweep so an arbitrarily
// large ledger never loads into memory at once.
const defaultIntegrityBatchSize = 500

// LedgerService reads the posted journal and verifies the integrity chain.
type LedgerService struct {
	BaseService
	ledgerRepo portsrepo.LedgerRepository
	batchSize  int
}

// NewLedgerService creates a new LedgerService. batchSize <= 0 selects the
// default sweep page size.
func NewLedgerService(ledgerRepo portsrepo.LedgerRepository, batchSize int) *LedgerService {
	if batchSize <= 0 {
		batchSize = defaultIntegrityBatchSize
	}
	return &LedgerService{ledgerRepo: ledgerRepo, batchSize: batchSize}
}

// ListEntriesByAccount returns the account's ledger rows with posted date
// in [from, to], in sequence order.
func (s *LedgerService) ListEntriesByAccount(ctx context.Context, entityID, accountID string, from, to *time.Time) ([]domain.LedgerEntry, error) {
	entries, err := s.ledgerRepo.ListEntriesByAccount(ctx, entityID, accountID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger rows for account %s: %w", accountID, err)
	}
	return entries, nil
}

// VerifyIntegrity walks the entity's entire ledger in sequence order,
// recomputing each row's chain hash from its predecessor. The report names
// the first broken row; a broken chain also returns
// apperrors.ErrIntegrity so callers on error paths cannot miss it.
func (s *LedgerService) VerifyIntegrity(ctx context.Context, entityID string) (*dto.IntegrityReport, error) {
	report := &dto.IntegrityReport{EntityID: entityID, Intact: true}

	prevHash := ""
	afterSequence := int64(0)
	for {
		batch, err := s.ledgerRepo.ListEntriesByEntity(ctx, entityID, afterSequence, s.batchSize)
		if err != nil {
			return nil, fmt.Errorf("failed to page ledger rows: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		for _, entry := range batch {
			expected := domain.ChainHash(prevHash, entry)
			if entry.Hash != expected {
				report.Intact = false
				report.FirstBrokenLedgerID = entry.LedgerID
				s.LogError(ctx, apperrors.ErrIntegrity, "Ledger chain broken",
					slog.String("ledger_id", entry.LedgerID),
					slog.Int64("sequence_no", entry.SequenceNo))
				return report, apperrors.ErrIntegrity.WithContext(
					"entity_id", entityID,
					"ledger_id", entry.LedgerID,
					"sequence_no", entry.SequenceNo,
				)
			}
			prevHash = entry.Hash
			report.RowsVerified++
			afterSequence = entry.SequenceNo
		}

		if len(batch) < s.batchSize {
			break
		}
	}

	s.LogInfo(ctx, "Ledger integrity verified",
		slog.String("entity_id", entityID),
		slog.Int64("rows_verified", report.RowsVerified))
	return report, nil
}
