package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CollaboratorAggregate is the payable total of one collaborator
type CollaboratorAggregate struct {
	CollaboratorID   uint         `json:"collaborator_id"`
	ExternalID       string       `json:"external_id"`
	CollaboratorName string       `json:"collaborator_name"`
	Group            string       `json:"group"`
	VehicleClass     VehicleClass `json:"vehicle_class"`
	Efficiency       float64      `json:"efficiency"`
	UnitPrice        float64      `json:"unit_price"`
	PerUnitRate      float64      `json:"per_unit_rate"`
	TotalDistance    float64      `json:"total_distance"`
	Liters           float64      `json:"liters"`
	Value            float64      `json:"value"`
	Entries          []DailyValue `json:"entries"`
}

// DisplayValue rounds the payout to cents for presentation
func (a CollaboratorAggregate) DisplayValue() string {
	return decimal.NewFromFloat(a.Value).StringFixed(2)
}

// DailyValue is the contribution of one staging record to a payout
type DailyValue struct {
	RecordID    int     `json:"record_id"`
	DateKey     string  `json:"date_key"`
	RawDate     string  `json:"raw_date"`
	Distance    float64 `json:"distance"`
	Value       float64 `json:"value"`
	Observation string  `json:"observation,omitempty"`
}

// CalculationHeader identifies one saved calculation run
type CalculationHeader struct {
	ID          uint            `json:"id"`
	PeriodLabel string          `json:"period_label"`
	GeneratedBy string          `json:"generated_by"`
	GrandTotal  decimal.Decimal `json:"grand_total"`
	ItemCount   int             `json:"item_count"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CalculationDetail is the payout line of one collaborator, with the pricing
// snapshot used to compute it
type CalculationDetail struct {
	ID               uint               `json:"id"`
	HeaderID         uint               `json:"header_id"`
	CollaboratorID   uint               `json:"collaborator_id"`
	ExternalID       string             `json:"external_id"`
	CollaboratorName string             `json:"collaborator_name"`
	Group            string             `json:"group"`
	VehicleClass     VehicleClass       `json:"vehicle_class"`
	Efficiency       decimal.Decimal    `json:"efficiency"`
	UnitPrice        decimal.Decimal    `json:"unit_price"`
	TotalDistance    decimal.Decimal    `json:"total_distance"`
	Liters           decimal.Decimal    `json:"liters"`
	TotalValue       decimal.Decimal    `json:"total_value"`
	Entries          []CalculationDaily `json:"entries"`
}

// CalculationDaily is one persisted day of a payout line
type CalculationDaily struct {
	ID             uint            `json:"id"`
	DetailID       uint            `json:"detail_id"`
	CollaboratorID uint            `json:"collaborator_id"`
	Date           *time.Time      `json:"date,omitempty"`
	RawDate        string          `json:"raw_date"`
	Distance       decimal.Decimal `json:"distance"`
	Value          decimal.Decimal `json:"value"`
	Observation    string          `json:"observation"`
}

// Calculation is the full hierarchy persisted by one save
type Calculation struct {
	Header  CalculationHeader   `json:"header"`
	Details []CalculationDetail `json:"details"`
}

// HistoricalIdentity is the name and group last paid under an external id
type HistoricalIdentity struct {
	ExternalID string `json:"external_id"`
	Name       string `json:"name"`
	Group      string `json:"group"`
}

// AbsenceConflict is a persisted daily entry that falls inside an absence
// registered after the calculation was saved
type AbsenceConflict struct {
	EntryID        uint            `json:"entry_id"`
	PeriodLabel    string          `json:"period_label"`
	CollaboratorID uint            `json:"collaborator_id"`
	Date           time.Time       `json:"date"`
	Distance       decimal.Decimal `json:"distance"`
	Value          decimal.Decimal `json:"value"`
	AbsenceReason  string          `json:"absence_reason"`
}

// PersistedDaily is a saved daily entry together with its period
type PersistedDaily struct {
	ID             uint            `json:"id"`
	PeriodLabel    string          `json:"period_label"`
	CollaboratorID uint            `json:"collaborator_id"`
	Date           time.Time       `json:"date"`
	Distance       decimal.Decimal `json:"distance"`
	Value          decimal.Decimal `json:"value"`
	Observation    string          `json:"observation"`
}
