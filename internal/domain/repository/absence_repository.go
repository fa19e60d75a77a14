package repository

import (
	"context"
	"time"

	"fuelrefund-service/internal/domain/entity"
)

// AbsenceRepository defines the absence period operations
type AbsenceRepository interface {
	List(ctx context.Context) ([]*entity.AbsencePeriod, error)
	ListOverlapping(ctx context.Context, from, to time.Time) ([]*entity.AbsencePeriod, error)
	Create(ctx context.Context, absence *entity.AbsencePeriod) error
}
