package repository

import (
	"context"

	"fuelrefund-service/internal/domain/entity"
)

// AuditRepository persists audit trail entries
type AuditRepository interface {
	Record(ctx context.Context, entry *entity.AuditEntry) error
}
