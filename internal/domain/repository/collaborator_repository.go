package repository

import (
	"context"

	"fuelrefund-service/internal/domain/entity"
)

// CollaboratorRepository defines the registry store operations
type CollaboratorRepository interface {
	List(ctx context.Context) ([]*entity.Collaborator, error)
	FindByID(ctx context.Context, id uint) (*entity.Collaborator, error)
	FindByExternalID(ctx context.Context, externalID string) (*entity.Collaborator, error)
	DistinctGroups(ctx context.Context) ([]string, error)
	Create(ctx context.Context, collaborator *entity.Collaborator) error
	UpdateNameSector(ctx context.Context, id uint, name, sectorCode, editor, reason string) error
}
