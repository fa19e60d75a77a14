package repository

import (
	"context"

	"fuelrefund-service/internal/domain/entity"
)

// SessionRepository stores import sessions between correction calls
type SessionRepository interface {
	Save(ctx context.Context, session *entity.ImportSession) error
	FindByID(ctx context.Context, id string) (*entity.ImportSession, error)
	Delete(ctx context.Context, id string) error
}
