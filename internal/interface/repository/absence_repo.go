package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fuelrefund-service/internal/domain/entity"
	"fuelrefund-service/internal/domain/repository"
	apperrors "fuelrefund-service/pkg/errors"

	"gorm.io/gorm"
)

// GormAbsenceRepository implements AbsenceRepository
type GormAbsenceRepository struct {
	db *gorm.DB
}

// NewGormAbsenceRepository creates a new absence repository
func NewGormAbsenceRepository(db *gorm.DB) repository.AbsenceRepository {
	return &GormAbsenceRepository{db: db}
}

// List returns every absence period in insertion order
func (r *GormAbsenceRepository) List(ctx context.Context) ([]*entity.AbsencePeriod, error) {
	var models []absenceModel
	if err := r.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list absences: %w", err)
	}
	return toAbsences(models), nil
}

// ListOverlapping returns the periods intersecting [from, to]
func (r *GormAbsenceRepository) ListOverlapping(ctx context.Context, from, to time.Time) ([]*entity.AbsencePeriod, error) {
	var models []absenceModel
	err := r.db.WithContext(ctx).
		Where("start_date <= ? AND end_date >= ?", to, from).
		Order("id").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list absences: %w", err)
	}
	return toAbsences(models), nil
}

// Create inserts an absence period
func (r *GormAbsenceRepository) Create(ctx context.Context, absence *entity.AbsencePeriod) error {
	if absence.CollaboratorID == 0 {
		return apperrors.NewValidationError("collaborator_id", absence.CollaboratorID, "is required")
	}
	if absence.End.Before(absence.Start) {
		return apperrors.NewValidationError("end", absence.End, "must not be before start")
	}
	if strings.TrimSpace(absence.Reason) == "" {
		return apperrors.NewValidationError("reason", absence.Reason, "is required")
	}

	model := &absenceModel{
		CollaboratorID: absence.CollaboratorID,
		StartDate:      absence.Start,
		EndDate:        absence.End,
		Reason:         strings.TrimSpace(absence.Reason),
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create absence: %w", err)
	}
	absence.ID = model.ID
	absence.CreatedAt = model.CreatedAt
	return nil
}

func toAbsences(models []absenceModel) []*entity.AbsencePeriod {
	result := make([]*entity.AbsencePeriod, 0, len(models))
	for i := range models {
		result = append(result, models[i].toEntity())
	}
	return result
}
