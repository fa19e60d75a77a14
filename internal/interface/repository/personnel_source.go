package repository

import (
	"context"
	"fmt"

	"fuelrefund-service/internal/domain/repository"

	"gorm.io/gorm"
)

// GormPersonnelSource runs the configured personnel query against the
// external system of record
type GormPersonnelSource struct {
	db    *gorm.DB
	query string
}

// NewGormPersonnelSource creates a new personnel source
func NewGormPersonnelSource(db *gorm.DB, query string) repository.PersonnelSource {
	return &GormPersonnelSource{db: db, query: query}
}

// QueryPersonnel returns every row of the query keyed by column name
func (s *GormPersonnelSource) QueryPersonnel(ctx context.Context) ([]map[string]interface{}, error) {
	var rows []map[string]interface{}
	if err := s.db.WithContext(ctx).Raw(s.query).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query personnel: %w", err)
	}
	return rows, nil
}
