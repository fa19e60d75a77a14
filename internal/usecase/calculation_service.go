package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fuelrefund-service/internal/domain/entity"
	"fuelrefund-service/internal/domain/repository"
	apperrors "fuelrefund-service/pkg/errors"
	"fuelrefund-service/pkg/logger"
	"fuelrefund-service/pkg/metrics"
	"fuelrefund-service/pkg/utils"

	"github.com/shopspring/decimal"
)

// SaveCommand persists the aggregates of one period
type SaveCommand struct {
	PeriodLabel     string                         `json:"period_label" validate:"required"`
	GeneratedBy     string                         `json:"generated_by" validate:"required"`
	Aggregates      []entity.CollaboratorAggregate `json:"aggregates"`
	Overwrite       bool                           `json:"overwrite"`
	OverwriteReason string                         `json:"overwrite_reason"`
}

// CalculationService persists calculations and corrects them afterwards
type CalculationService struct {
	calculations repository.CalculationRepository
	absences     repository.AbsenceRepository
	locker       repository.Locker
	audit        *AuditTrail
	rules        Rules
	metrics      *metrics.Metrics
	logger       logger.Logger
}

// NewCalculationService creates a new calculation service
func NewCalculationService(
	calculations repository.CalculationRepository,
	absences repository.AbsenceRepository,
	locker repository.Locker,
	audit *AuditTrail,
	rules Rules,
	m *metrics.Metrics,
	logger logger.Logger,
) *CalculationService {
	return &CalculationService{
		calculations: calculations,
		absences:     absences,
		locker:       locker,
		audit:        audit,
		rules:        rules,
		metrics:      m,
		logger:       logger,
	}
}

// Exists reports whether a calculation was already saved for the period
func (s *CalculationService) Exists(ctx context.Context, periodLabel string) (bool, error) {
	return s.calculations.PeriodExists(ctx, strings.TrimSpace(periodLabel))
}

// Save persists a calculation. An existing period is only replaced when the
// caller confirms with Overwrite and a reason; the replacement is audited.
func (s *CalculationService) Save(ctx context.Context, cmd SaveCommand) (*entity.Calculation, error) {
	cmd.PeriodLabel = strings.TrimSpace(cmd.PeriodLabel)
	cmd.OverwriteReason = strings.TrimSpace(cmd.OverwriteReason)
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}
	if cmd.Overwrite && cmd.OverwriteReason == "" {
		return nil, apperrors.NewValidationError("overwrite_reason", "", "is required to overwrite a calculation")
	}

	unlock, err := s.locker.Lock(ctx, "calculation:"+cmd.PeriodLabel)
	if err != nil {
		return nil, fmt.Errorf("failed to lock period %s: %w", cmd.PeriodLabel, err)
	}
	defer unlock()

	exists, err := s.calculations.PeriodExists(ctx, cmd.PeriodLabel)
	if err != nil {
		return nil, fmt.Errorf("failed to check period: %w", err)
	}
	if exists && !cmd.Overwrite {
		return nil, apperrors.NewConflictError("calculation", cmd.PeriodLabel, "already saved; confirm overwrite with a reason")
	}

	calc := BuildCalculation(cmd.PeriodLabel, cmd.GeneratedBy, cmd.Aggregates)
	if err := s.calculations.SaveCalculation(ctx, calc, exists); err != nil {
		s.metrics.ErrorsCount.WithLabelValues("save_calculation").Inc()
		return nil, fmt.Errorf("failed to save calculation: %w", err)
	}

	mode := "create"
	if exists {
		mode = "overwrite"
		s.audit.Record(ctx, cmd.GeneratedBy, entity.AuditCalculationOverwrite, cmd.PeriodLabel,
			fmt.Sprintf("reason=%s; details=%d; total=%s", cmd.OverwriteReason, len(calc.Details), calc.Header.GrandTotal.StringFixed(2)))
	}
	s.metrics.CalculationsSaved.WithLabelValues(mode).Inc()

	s.logger.Info("Calculation saved",
		"period", cmd.PeriodLabel,
		"mode", mode,
		"details", len(calc.Details),
		"total", calc.Header.GrandTotal.StringFixed(2))
	return calc, nil
}

// BuildCalculation maps aggregates to the persisted hierarchy
func BuildCalculation(periodLabel, generatedBy string, aggregates []entity.CollaboratorAggregate) *entity.Calculation {
	calc := &entity.Calculation{
		Header: entity.CalculationHeader{
			PeriodLabel: periodLabel,
			GeneratedBy: generatedBy,
			ItemCount:   len(aggregates),
		},
		Details: make([]entity.CalculationDetail, 0, len(aggregates)),
	}

	var grandTotal float64
	for _, agg := range aggregates {
		grandTotal += agg.Value
		detail := entity.CalculationDetail{
			CollaboratorID:   agg.CollaboratorID,
			ExternalID:       agg.ExternalID,
			CollaboratorName: agg.CollaboratorName,
			Group:            agg.Group,
			VehicleClass:     agg.VehicleClass,
			Efficiency:       decimal.NewFromFloat(agg.Efficiency),
			UnitPrice:        decimal.NewFromFloat(agg.UnitPrice),
			TotalDistance:    decimal.NewFromFloat(agg.TotalDistance),
			Liters:           decimal.NewFromFloat(agg.Liters),
			TotalValue:       decimal.NewFromFloat(agg.Value),
			Entries:          make([]entity.CalculationDaily, 0, len(agg.Entries)),
		}
		for _, e := range agg.Entries {
			daily := entity.CalculationDaily{
				CollaboratorID: agg.CollaboratorID,
				RawDate:        e.RawDate,
				Distance:       decimal.NewFromFloat(e.Distance),
				Value:          decimal.NewFromFloat(e.Value),
				Observation:    e.Observation,
			}
			if t, ok := utils.ParseDateKey(e.DateKey); ok {
				daily.Date = &t
			}
			detail.Entries = append(detail.Entries, daily)
		}
		calc.Details = append(calc.Details, detail)
	}
	calc.Header.GrandTotal = decimal.NewFromFloat(grandTotal)
	return calc
}

// ZeroDailyEntries zeroes saved daily entries that conflict with an absence
// registered later. Parent detail and header totals are left as saved; a new
// calculation must be saved to correct them.
func (s *CalculationService) ZeroDailyEntries(ctx context.Context, entryIDs []uint, actorID string) (int64, error) {
	if len(entryIDs) == 0 {
		return 0, apperrors.NewValidationError("entry_ids", entryIDs, "at least one entry is required")
	}
	if strings.TrimSpace(actorID) == "" {
		return 0, apperrors.NewValidationError("actor", actorID, "is required")
	}

	affected, err := s.calculations.ZeroDailyEntries(ctx, entryIDs, ZeroedMarker)
	if err != nil {
		s.metrics.ErrorsCount.WithLabelValues("zero_daily_entries").Inc()
		return 0, fmt.Errorf("failed to zero daily entries: %w", err)
	}

	s.audit.Record(ctx, actorID, entity.AuditDailyEntriesZeroed, "daily_entries",
		fmt.Sprintf("requested=%d; affected=%d", len(entryIDs), affected))
	s.metrics.DailyEntriesZeroed.Add(float64(affected))

	s.logger.Info("Daily entries zeroed", "actor", actorID, "requested", len(entryIDs), "affected", affected)
	return affected, nil
}

// AbsenceConflicts lists saved, non-zero daily entries between from and to
// that fall inside an absence of the same collaborator
func (s *CalculationService) AbsenceConflicts(ctx context.Context, from, to time.Time) ([]entity.AbsenceConflict, error) {
	if to.Before(from) {
		return nil, apperrors.NewValidationError("to", utils.DateKey(to), "must not be before from")
	}

	entries, err := s.calculations.ListDailyEntries(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily entries: %w", err)
	}
	periods, err := s.absences.ListOverlapping(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list absences: %w", err)
	}
	idx := NewAbsenceIndex(periods, s.rules.TieBreak)

	conflicts := make([]entity.AbsenceConflict, 0)
	for _, e := range entries {
		if e.Distance.IsZero() && e.Value.IsZero() {
			continue
		}
		reason, ok := idx.Match(e.CollaboratorID, utils.DateKey(e.Date))
		if !ok {
			continue
		}
		conflicts = append(conflicts, entity.AbsenceConflict{
			EntryID:        e.ID,
			PeriodLabel:    e.PeriodLabel,
			CollaboratorID: e.CollaboratorID,
			Date:           e.Date,
			Distance:       e.Distance,
			Value:          e.Value,
			AbsenceReason:  reason,
		})
	}
	return conflicts, nil
}
