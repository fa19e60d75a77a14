package repository

import (
	"context"
	"fmt"

	"fuelrefund-service/internal/domain/entity"
	"fuelrefund-service/internal/domain/repository"

	"gorm.io/gorm"
)

// GormAuditRepository implements AuditRepository
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new audit repository
func NewGormAuditRepository(db *gorm.DB) repository.AuditRepository {
	return &GormAuditRepository{db: db}
}

// Record appends an entry to the audit trail
func (r *GormAuditRepository) Record(ctx context.Context, entry *entity.AuditEntry) error {
	model := &auditLogModel{
		Actor:   entry.Actor,
		Action:  entry.Action,
		Subject: entry.Subject,
		Details: entry.Details,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to record audit entry %s: %w", entry.Action, err)
	}
	entry.ID = model.ID
	entry.CreatedAt = model.CreatedAt
	return nil
}
