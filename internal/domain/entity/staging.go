package entity

// StagingRecord is one matched (external id, date) observation awaiting
// aggregation.
//
// ConsideredDistance is derived from exactly one source: the original value,
// an absence block (0) or an explicit edit. Overridden marks a human edit of
// the distance; it wins over Blocked, which is kept for display.
type StagingRecord struct {
	ID                 int          `json:"id" bson:"id"`
	ExternalID         string       `json:"external_id" bson:"externalId"`
	CollaboratorID     uint         `json:"collaborator_id" bson:"collaboratorId"`
	CollaboratorName   string       `json:"collaborator_name" bson:"collaboratorName"`
	Group              string       `json:"group" bson:"group"`
	VehicleClass       VehicleClass `json:"vehicle_class" bson:"vehicleClass"`
	TelemetryName      string       `json:"telemetry_name" bson:"telemetryName"`
	RawDate            string       `json:"raw_date" bson:"rawDate"`
	DateKey            string       `json:"date_key" bson:"dateKey"`
	OriginalDistance   float64      `json:"original_distance" bson:"originalDistance"`
	ConsideredDistance float64      `json:"considered_distance" bson:"consideredDistance"`
	LowDistance        bool         `json:"low_distance" bson:"lowDistance"`
	Blocked            bool         `json:"blocked" bson:"blocked"`
	BlockReason        string       `json:"block_reason,omitempty" bson:"blockReason,omitempty"`
	Edited             bool         `json:"edited" bson:"edited"`
	EditReason         string       `json:"edit_reason,omitempty" bson:"editReason,omitempty"`
	Overridden         bool         `json:"overridden" bson:"overridden"`
	MergedFrom         string       `json:"merged_from,omitempty" bson:"mergedFrom,omitempty"`
}

// IgnoredGroup holds every raw row of an external id with no registry match
type IgnoredGroup struct {
	ExternalID string         `json:"external_id" bson:"externalId"`
	Name       string         `json:"name" bson:"name"`
	Rows       []TelemetryRow `json:"rows" bson:"rows"`
}

// MergeSuggestion proposes a merge target for an ignored external id based on
// the last payout recorded under it
type MergeSuggestion struct {
	ExternalID       string `json:"external_id"`
	HistoricalName   string `json:"historical_name"`
	HistoricalGroup  string `json:"historical_group"`
	CollaboratorID   uint   `json:"collaborator_id"`
	CollaboratorName string `json:"collaborator_name"`
}
