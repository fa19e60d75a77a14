package repository

import (
	"context"
	"time"

	"fuelrefund-service/internal/domain/entity"
)

// CalculationRepository defines the calculation store operations
type CalculationRepository interface {
	PeriodExists(ctx context.Context, periodLabel string) (bool, error)
	// SaveCalculation inserts the hierarchy in one transaction. With replace
	// set, every header of the same period label is deleted first.
	SaveCalculation(ctx context.Context, calc *entity.Calculation, replace bool) error
	ZeroDailyEntries(ctx context.Context, ids []uint, marker string) (int64, error)
	ListDailyEntries(ctx context.Context, from, to time.Time) ([]*entity.PersistedDaily, error)
}

// HistoryRepository exposes past payouts
type HistoryRepository interface {
	LatestByExternalID(ctx context.Context, externalID string) (*entity.HistoricalIdentity, error)
}
