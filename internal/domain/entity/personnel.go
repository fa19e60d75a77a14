package entity

// DiffKind classifies an external personnel row against the registry
type DiffKind string

const (
	DiffNew     DiffKind = "new"
	DiffChanged DiffKind = "changed"
)

// ExternalPersonnel is one row of the external system of record after key
// normalization
type ExternalPersonnel struct {
	ExternalID string `json:"external_id"`
	Name       string `json:"name"`
	SectorCode string `json:"sector_code"`
	Group      string `json:"group"`
}

// FieldChange is one field-level difference of a changed row
type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// DiffItem pairs an external row with its classification. Proposed carries
// the insert payload for new rows; Changes the differences for changed rows.
type DiffItem struct {
	Kind           DiffKind          `json:"kind" binding:"required,oneof=new changed"`
	ExternalID     string            `json:"external_id" binding:"required"`
	CollaboratorID uint              `json:"collaborator_id,omitempty"`
	Proposed       ExternalPersonnel `json:"proposed"`
	Changes        []FieldChange     `json:"changes,omitempty"`
}

// DiffResult is the outcome of one diff run
type DiffResult struct {
	New     []DiffItem `json:"new"`
	Changed []DiffItem `json:"changed"`
	Skipped int        `json:"skipped"`
}

// SyncItemResult reports what happened to one selected item
type SyncItemResult struct {
	ExternalID string   `json:"external_id"`
	Kind       DiffKind `json:"kind"`
	Applied    bool     `json:"applied"`
	Error      string   `json:"error,omitempty"`
}

// SyncResult is the outcome of applying a selection of diff items
type SyncResult struct {
	Applied int              `json:"applied"`
	Results []SyncItemResult `json:"results"`
}
