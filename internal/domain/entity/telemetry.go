package entity

// TelemetryRow is one raw line of a telemetry export, as read from the file.
// Values are kept as text; the matcher validates and converts them.
type TelemetryRow struct {
	Line       int    `json:"line" bson:"line"`
	ExternalID string `json:"external_id" bson:"externalId"`
	Name       string `json:"name" bson:"name"`
	Date       string `json:"date" bson:"date"`
	Distance   string `json:"distance" bson:"distance"`
}

// RejectedRow is a telemetry row skipped because of an input error
type RejectedRow struct {
	Line    int    `json:"line" bson:"line"`
	Message string `json:"message" bson:"message"`
}
