package repository

import "context"

// PersonnelSource queries the external system of record. Row keys are
// whatever the source returns; callers match them case-insensitively.
type PersonnelSource interface {
	QueryPersonnel(ctx context.Context) ([]map[string]interface{}, error)
}
