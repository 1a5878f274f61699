package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/corebooks/corebooks/internal/apperrors"
	"github.com/corebooks/corebooks/internal/core/domain"
	"github.com/corebooks/corebooks/internal/core/events"
	portsrepo "github.com/corebooks/corebooks/internal/core/ports/repositories"
	"github.com/corebooks/corebooks/internal/dto"
)

// ReportingPeriodService manages the period lifecycle and gates which
// transaction dates are currently postable.
type ReportingPeriodService struct {
	BaseService
	periodRepo portsrepo.ReportingPeriodRepository
	registry   *events.Registry
}

// NewReportingPeriodService creates a new ReportingPeriodService.
func NewReportingPeriodService(periodRepo portsrepo.ReportingPeriodRepository, registry *events.Registry) *ReportingPeriodService {
	return &ReportingPeriodService{periodRepo: periodRepo, registry: registry}
}

// CreatePeriod opens a new reporting period for the entity. At most one
// period may be OPEN at a time, and ranges must not overlap existing ones.
func (s *ReportingPeriodService) CreatePeriod(ctx context.Context, entityID string, req dto.CreatePeriodRequest, userID string) (*domain.ReportingPeriod, error) {
	if !req.PeriodStart.Before(req.PeriodEnd) {
		return nil, apperrors.ErrInvalidReportingPeriod.WithContext(
			"period_start", req.PeriodStart.Format(time.DateOnly),
			"period_end", req.PeriodEnd.Format(time.DateOnly),
		)
	}

	existing, err := s.periodRepo.ListPeriods(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list periods: %w", err)
	}
	for _, p := range existing {
		if p.IsDeleted() {
			continue
		}
		if p.Status == domain.PeriodOpen {
			return nil, apperrors.ErrInvalidReportingPeriod.WithContext(
				"reason", "an OPEN period already exists", "period_id", p.PeriodID)
		}
		// Ranges are inclusive on both ends, so sharing a boundary instant
		// already makes a date resolvable to two periods.
		if !req.PeriodStart.After(p.PeriodEnd) && !p.PeriodStart.After(req.PeriodEnd) {
			return nil, apperrors.ErrInvalidReportingPeriod.WithContext(
				"reason", "period range overlaps an existing period", "period_id", p.PeriodID)
		}
	}

	now := time.Now().UTC()
	period := domain.ReportingPeriod{
		PeriodID:    uuid.NewString(),
		EntityID:    entityID,
		Year:        req.Year,
		PeriodStart: req.PeriodStart,
		PeriodEnd:   req.PeriodEnd,
		Status:      domain.PeriodOpen,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.periodRepo.SavePeriod(ctx, period); err != nil {
		s.LogError(ctx, err, "Failed to save reporting period", slog.Int("year", req.Year))
		return nil, fmt.Errorf("failed to save reporting period: %w", err)
	}

	s.LogInfo(ctx, "Reporting period created",
		slog.String("period_id", period.PeriodID), slog.Int("year", period.Year))
	return &period, nil
}

// CurrentPeriod returns the entity's OPEN or ADJUSTING period, failing with
// apperrors.ErrMissingReportingPeriod when none exists.
func (s *ReportingPeriodService) CurrentPeriod(ctx context.Context, entityID string) (*domain.ReportingPeriod, error) {
	period, err := s.periodRepo.FindCurrentPeriod(ctx, entityID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrMissingReportingPeriod.WithContext("entity_id", entityID)
		}
		return nil, fmt.Errorf("failed to find current period: %w", err)
	}
	return period, nil
}

// PeriodForTransaction is the posting gate: it resolves the period covering
// the transaction date and checks that the period state admits the
// transaction type. The error distinguishes a closed period, a date outside
// the current period, and a missing period entirely.
func (s *ReportingPeriodService) PeriodForTransaction(ctx context.Context, entityID string, txType domain.TransactionType, date time.Time) (*domain.ReportingPeriod, error) {
	period, err := s.periodRepo.FindPeriodForDate(ctx, entityID, date)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("failed to find period for date: %w", err)
		}
		if _, currErr := s.CurrentPeriod(ctx, entityID); currErr != nil {
			return nil, currErr
		}
		return nil, apperrors.ErrInvalidTransactionDate.WithContext(
			"entity_id", entityID, "transaction_date", date.Format(time.DateOnly))
	}

	switch period.Status {
	case domain.PeriodClosed:
		return nil, apperrors.ErrClosedReportingPeriod.WithContext(
			"period_id", period.PeriodID, "transaction_date", date.Format(time.DateOnly))
	case domain.PeriodAdjusting:
		if !period.AcceptsTransactionType(txType) {
			return nil, apperrors.ErrInvalidTransactionType.WithContext(
				"period_id", period.PeriodID, "transaction_type", string(txType),
				"reason", "type not permitted in an adjusting period")
		}
	}
	return period, nil
}

// Transition moves a period strictly forward (OPEN -> ADJUSTING -> CLOSED).
// The repository enforces the status precondition under an exclusive row
// lock, serializing the transition against in-flight posts.
func (s *ReportingPeriodService) Transition(ctx context.Context, entityID, periodID string, target domain.PeriodStatus, userID string) (*domain.ReportingPeriod, error) {
	period, err := s.periodRepo.FindPeriodByID(ctx, entityID, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to find period %s: %w", periodID, err)
	}

	if !period.CanTransitionTo(target) {
		return nil, apperrors.ErrInvalidReportingPeriod.WithContext(
			"period_id", periodID,
			"from", string(period.Status),
			"to", string(target),
			"reason", "period transitions run strictly forward",
		)
	}

	now := time.Now().UTC()
	if err := s.periodRepo.TransitionPeriodStatus(ctx, entityID, periodID, period.Status, target, userID, now); err != nil {
		s.LogError(ctx, err, "Failed to transition reporting period",
			slog.String("period_id", periodID), slog.String("to", string(target)))
		return nil, fmt.Errorf("failed to transition period %s: %w", periodID, err)
	}

	from := period.Status
	period.Status = target
	period.Touch(userID, now)

	s.registry.Emit(ctx, events.PeriodTransitioned, entityID, map[string]any{
		"period_id": periodID,
		"from":      string(from),
		"to":        string(target),
	})
	s.LogInfo(ctx, "Reporting period transitioned",
		slog.String("period_id", periodID),
		slog.String("from", string(from)), slog.String("to", string(target)))
	return period, nil
}

// ListPeriods returns all periods for the entity.
func (s *ReportingPeriodService) ListPeriods(ctx context.Context, entityID string) ([]domain.ReportingPeriod, error) {
	periods, err := s.periodRepo.ListPeriods(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list periods: %w", err)
	}
	return periods, nil
}

// PeriodForYear returns the entity's period for the given calendar year,
// used to anchor opening balances.
func (s *ReportingPeriodService) PeriodForYear(ctx context.Context, entityID string, year int) (*domain.ReportingPeriod, error) {
	periods, err := s.periodRepo.ListPeriods(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list periods: %w", err)
	}
	for i := range periods {
		if periods[i].Year == year && !periods[i].IsDeleted() {
			return &periods[i], nil
		}
	}
	return nil, apperrors.ErrMissingReportingPeriod.WithContext("entity_id", entityID, "year", year)
}
