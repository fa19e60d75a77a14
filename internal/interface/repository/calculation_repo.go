package repository

import (
	"context"
	"fmt"
	"time"

	"fuelrefund-service/internal/domain/entity"
	"fuelrefund-service/internal/domain/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormCalculationRepository implements CalculationRepository and
// HistoryRepository over the saved calculation hierarchy
type GormCalculationRepository struct {
	db *gorm.DB
}

var (
	_ repository.CalculationRepository = (*GormCalculationRepository)(nil)
	_ repository.HistoryRepository     = (*GormCalculationRepository)(nil)
)

// NewGormCalculationRepository creates a new calculation repository
func NewGormCalculationRepository(db *gorm.DB) *GormCalculationRepository {
	return &GormCalculationRepository{db: db}
}

// PeriodExists reports whether any header carries the period label
func (r *GormCalculationRepository) PeriodExists(ctx context.Context, periodLabel string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&calculationHeaderModel{}).
		Where("period_label = ?", periodLabel).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check period %s: %w", periodLabel, err)
	}
	return count > 0, nil
}

// SaveCalculation writes header, details and daily entries in one
// transaction. With replace set, the previous hierarchy of the period is
// deleted inside the same transaction.
func (r *GormCalculationRepository) SaveCalculation(ctx context.Context, calc *entity.Calculation, replace bool) error {
	model := newCalculationModel(calc)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if replace {
			if err := deletePeriod(tx, calc.Header.PeriodLabel); err != nil {
				return err
			}
		}
		if err := tx.Create(model).Error; err != nil {
			return fmt.Errorf("failed to insert calculation: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	model.copyIDs(calc)
	return nil
}

func deletePeriod(tx *gorm.DB, periodLabel string) error {
	var headerIDs []uint
	if err := tx.Model(&calculationHeaderModel{}).Where("period_label = ?", periodLabel).Pluck("id", &headerIDs).Error; err != nil {
		return fmt.Errorf("failed to find previous calculation: %w", err)
	}
	if len(headerIDs) == 0 {
		return nil
	}

	var detailIDs []uint
	if err := tx.Model(&calculationDetailModel{}).Where("header_id IN ?", headerIDs).Pluck("id", &detailIDs).Error; err != nil {
		return fmt.Errorf("failed to find previous details: %w", err)
	}
	if len(detailIDs) > 0 {
		if err := tx.Where("detail_id IN ?", detailIDs).Delete(&calculationDailyModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete previous daily entries: %w", err)
		}
		if err := tx.Where("id IN ?", detailIDs).Delete(&calculationDetailModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete previous details: %w", err)
		}
	}
	if err := tx.Where("id IN ?", headerIDs).Delete(&calculationHeaderModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete previous header: %w", err)
	}
	return nil
}

// ZeroDailyEntries sets distance and value of the given entries to zero and
// appends the marker to their observation. Entries already carrying the
// marker are left untouched, so repeating the call changes nothing.
func (r *GormCalculationRepository) ZeroDailyEntries(ctx context.Context, ids []uint, marker string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&calculationDailyModel{}).
			Where("id IN ?", ids).
			Where("observation NOT LIKE ?", "%"+marker+"%").
			Updates(map[string]interface{}{
				"distance":    decimal.Zero,
				"value":       decimal.Zero,
				"observation": gorm.Expr("CASE WHEN observation = '' THEN ? ELSE observation || ' ' || ? END", marker, marker),
			})
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to zero daily entries: %w", err)
	}
	return affected, nil
}

type dailyEntryRow struct {
	ID             uint
	PeriodLabel    string
	CollaboratorID uint
	EntryDate      time.Time
	Distance       decimal.Decimal
	Value          decimal.Decimal
	Observation    string
}

// ListDailyEntries returns the dated daily entries between from and to,
// inclusive, with the period label of their calculation
func (r *GormCalculationRepository) ListDailyEntries(ctx context.Context, from, to time.Time) ([]*entity.PersistedDaily, error) {
	var rows []dailyEntryRow
	err := r.db.WithContext(ctx).
		Table("calculation_daily_entries AS e").
		Select("e.id, h.period_label, e.collaborator_id, e.entry_date, e.distance, e.value, e.observation").
		Joins("JOIN calculation_details AS d ON d.id = e.detail_id").
		Joins("JOIN calculation_headers AS h ON h.id = d.header_id").
		Where("e.entry_date IS NOT NULL AND e.entry_date >= ? AND e.entry_date <= ?", from, to).
		Order("e.entry_date, e.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list daily entries: %w", err)
	}

	result := make([]*entity.PersistedDaily, 0, len(rows))
	for _, row := range rows {
		result = append(result, &entity.PersistedDaily{
			ID:             row.ID,
			PeriodLabel:    row.PeriodLabel,
			CollaboratorID: row.CollaboratorID,
			Date:           row.EntryDate,
			Distance:       row.Distance,
			Value:          row.Value,
			Observation:    row.Observation,
		})
	}
	return result, nil
}

type historyRow struct {
	ExternalID       string
	CollaboratorName string
	GroupName        string
}

// LatestByExternalID returns the name and group of the most recent payout
// recorded under an external id, or nil when it was never paid
func (r *GormCalculationRepository) LatestByExternalID(ctx context.Context, externalID string) (*entity.HistoricalIdentity, error) {
	var rows []historyRow
	err := r.db.WithContext(ctx).
		Table("calculation_details AS d").
		Select("d.external_id, d.collaborator_name, d.group_name").
		Joins("JOIN calculation_headers AS h ON h.id = d.header_id").
		Where("d.external_id = ?", externalID).
		Order("h.created_at DESC, d.id DESC").
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to look up history of %s: %w", externalID, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &entity.HistoricalIdentity{
		ExternalID: rows[0].ExternalID,
		Name:       rows[0].CollaboratorName,
		Group:      rows[0].GroupName,
	}, nil
}
