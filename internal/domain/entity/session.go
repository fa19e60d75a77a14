package entity

import "time"

// ImportSession is the working state of one telemetry import, from upload
// until the calculation is saved or the session is closed
type ImportSession struct {
	ID           string          `json:"id" bson:"_id"`
	FileName     string          `json:"file_name" bson:"fileName"`
	CreatedBy    string          `json:"created_by" bson:"createdBy"`
	PeriodLabel  string          `json:"period_label" bson:"periodLabel"`
	PeriodStart  string          `json:"period_start,omitempty" bson:"periodStart,omitempty"`
	PeriodEnd    string          `json:"period_end,omitempty" bson:"periodEnd,omitempty"`
	Records      []StagingRecord `json:"records" bson:"records"`
	Ignored      []IgnoredGroup  `json:"ignored" bson:"ignored"`
	Rejected     []RejectedRow   `json:"rejected" bson:"rejected"`
	NextRecordID int             `json:"-" bson:"nextRecordId"`
	CreatedAt    time.Time       `json:"created_at" bson:"createdAt"`
	UpdatedAt    time.Time       `json:"updated_at" bson:"updatedAt"`
}

// Clone returns a deep copy so a failed operation can be discarded
func (s *ImportSession) Clone() *ImportSession {
	c := *s
	c.Records = append([]StagingRecord(nil), s.Records...)
	c.Rejected = append([]RejectedRow(nil), s.Rejected...)
	c.Ignored = make([]IgnoredGroup, len(s.Ignored))
	for i, g := range s.Ignored {
		g.Rows = append([]TelemetryRow(nil), g.Rows...)
		c.Ignored[i] = g
	}
	return &c
}

// FindRecord returns the index of the staging record with the given id
func (s *ImportSession) FindRecord(id int) int {
	for i := range s.Records {
		if s.Records[i].ID == id {
			return i
		}
	}
	return -1
}

// FindIgnored returns the index of the ignored group for an external id
func (s *ImportSession) FindIgnored(externalID string) int {
	for i := range s.Ignored {
		if s.Ignored[i].ExternalID == externalID {
			return i
		}
	}
	return -1
}
