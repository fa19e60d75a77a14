package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"fuelrefund-service/internal/domain/entity"
	"fuelrefund-service/internal/domain/repository"
	apperrors "fuelrefund-service/pkg/errors"

	"gorm.io/gorm"
)

// GormCollaboratorRepository implements CollaboratorRepository
type GormCollaboratorRepository struct {
	db *gorm.DB
}

// NewGormCollaboratorRepository creates a new collaborator repository
func NewGormCollaboratorRepository(db *gorm.DB) repository.CollaboratorRepository {
	return &GormCollaboratorRepository{db: db}
}

// List returns the whole registry ordered by name
func (r *GormCollaboratorRepository) List(ctx context.Context) ([]*entity.Collaborator, error) {
	var models []collaboratorModel
	if err := r.db.WithContext(ctx).Order("name, id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list collaborators: %w", err)
	}
	result := make([]*entity.Collaborator, 0, len(models))
	for i := range models {
		result = append(result, models[i].toEntity())
	}
	return result, nil
}

// FindByID finds a collaborator by registry id
func (r *GormCollaboratorRepository) FindByID(ctx context.Context, id uint) (*entity.Collaborator, error) {
	var model collaboratorModel
	err := r.db.WithContext(ctx).First(&model, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError("collaborator", strconv.FormatUint(uint64(id), 10))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find collaborator %d: %w", id, err)
	}
	return model.toEntity(), nil
}

// FindByExternalID finds a collaborator by external id
func (r *GormCollaboratorRepository) FindByExternalID(ctx context.Context, externalID string) (*entity.Collaborator, error) {
	var model collaboratorModel
	err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError("collaborator", externalID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find collaborator %s: %w", externalID, err)
	}
	return model.toEntity(), nil
}

// DistinctGroups returns every non-empty group in use
func (r *GormCollaboratorRepository) DistinctGroups(ctx context.Context) ([]string, error) {
	var groups []string
	err := r.db.WithContext(ctx).
		Model(&collaboratorModel{}).
		Distinct("group_name").
		Where("group_name <> ''").
		Order("group_name").
		Pluck("group_name", &groups).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

// Create inserts a collaborator
func (r *GormCollaboratorRepository) Create(ctx context.Context, collaborator *entity.Collaborator) error {
	model := newCollaboratorModel(collaborator)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create collaborator %s: %w", collaborator.ExternalID, err)
	}
	collaborator.ID = model.ID
	collaborator.CreatedAt = model.CreatedAt
	collaborator.UpdatedAt = model.UpdatedAt
	return nil
}

// UpdateNameSector changes the name and sector of a collaborator and stamps
// who changed it. Group and vehicle class are left alone.
func (r *GormCollaboratorRepository) UpdateNameSector(ctx context.Context, id uint, name, sectorCode, editor, reason string) error {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&collaboratorModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"name":            name,
			"sector_code":     sectorCode,
			"last_editor":     editor,
			"last_reason":     reason,
			"last_changed_at": now,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update collaborator %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFoundError("collaborator", strconv.FormatUint(uint64(id), 10))
	}
	return nil
}
