package repository

import (
	"time"

	"fuelrefund-service/internal/domain/entity"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type collaboratorModel struct {
	ID            uint       `gorm:"primaryKey"`
	ExternalID    string     `gorm:"size:64;uniqueIndex;not null"`
	SectorCode    string     `gorm:"size:64"`
	Name          string     `gorm:"size:255;not null"`
	GroupName     string     `gorm:"size:100;index"`
	VehicleClass  string     `gorm:"size:20;not null"`
	Active        bool       `gorm:"not null"`
	LastEditor    string     `gorm:"size:100"`
	LastReason    string     `gorm:"size:255"`
	LastChangedAt *time.Time
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

func (collaboratorModel) TableName() string { return "collaborators" }

type absenceModel struct {
	ID             uint      `gorm:"primaryKey"`
	CollaboratorID uint      `gorm:"index;not null"`
	StartDate      time.Time `gorm:"index;not null"`
	EndDate        time.Time `gorm:"index;not null"`
	Reason         string    `gorm:"size:255;not null"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

func (absenceModel) TableName() string { return "absence_periods" }

type calculationHeaderModel struct {
	ID          uint                     `gorm:"primaryKey"`
	PeriodLabel string                   `gorm:"size:100;index;not null"`
	GeneratedBy string                   `gorm:"size:100;not null"`
	GrandTotal  decimal.Decimal          `gorm:"type:decimal(20,6);not null"`
	ItemCount   int                      `gorm:"not null"`
	CreatedAt   time.Time                `gorm:"autoCreateTime"`
	Details     []calculationDetailModel `gorm:"foreignKey:HeaderID"`
}

func (calculationHeaderModel) TableName() string { return "calculation_headers" }

type calculationDetailModel struct {
	ID               uint                    `gorm:"primaryKey"`
	HeaderID         uint                    `gorm:"index;not null"`
	CollaboratorID   uint                    `gorm:"index;not null"`
	ExternalID       string                  `gorm:"size:64;index"`
	CollaboratorName string                  `gorm:"size:255"`
	GroupName        string                  `gorm:"size:100"`
	VehicleClass     string                  `gorm:"size:20"`
	Efficiency       decimal.Decimal         `gorm:"type:decimal(20,6)"`
	UnitPrice        decimal.Decimal         `gorm:"type:decimal(20,6)"`
	TotalDistance    decimal.Decimal         `gorm:"type:decimal(20,6)"`
	Liters           decimal.Decimal         `gorm:"type:decimal(20,6)"`
	TotalValue       decimal.Decimal         `gorm:"type:decimal(20,6)"`
	Entries          []calculationDailyModel `gorm:"foreignKey:DetailID"`
}

func (calculationDetailModel) TableName() string { return "calculation_details" }

type calculationDailyModel struct {
	ID             uint            `gorm:"primaryKey"`
	DetailID       uint            `gorm:"index;not null"`
	CollaboratorID uint            `gorm:"index;not null"`
	EntryDate      *time.Time      `gorm:"index"`
	RawDate        string          `gorm:"size:50"`
	Distance       decimal.Decimal `gorm:"type:decimal(20,6)"`
	Value          decimal.Decimal `gorm:"type:decimal(20,6)"`
	Observation    string          `gorm:"size:500;not null"`
}

func (calculationDailyModel) TableName() string { return "calculation_daily_entries" }

type auditLogModel struct {
	ID        uint      `gorm:"primaryKey"`
	Actor     string    `gorm:"size:100;index;not null"`
	Action    string    `gorm:"size:50;index;not null"`
	Subject   string    `gorm:"size:255"`
	Details   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (auditLogModel) TableName() string { return "audit_logs" }

// AutoMigrate creates or updates the relational schema
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&collaboratorModel{},
		&absenceModel{},
		&calculationHeaderModel{},
		&calculationDetailModel{},
		&calculationDailyModel{},
		&auditLogModel{},
	)
}

func (m *collaboratorModel) toEntity() *entity.Collaborator {
	return &entity.Collaborator{
		ID:           m.ID,
		ExternalID:   m.ExternalID,
		SectorCode:   m.SectorCode,
		Name:         m.Name,
		Group:        m.GroupName,
		VehicleClass: entity.VehicleClass(m.VehicleClass),
		Active:       m.Active,
		LastEditor:   m.LastEditor,
		LastReason:   m.LastReason,
		LastChanged:  m.LastChangedAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func newCollaboratorModel(c *entity.Collaborator) *collaboratorModel {
	return &collaboratorModel{
		ID:            c.ID,
		ExternalID:    c.ExternalID,
		SectorCode:    c.SectorCode,
		Name:          c.Name,
		GroupName:     c.Group,
		VehicleClass:  string(c.VehicleClass),
		Active:        c.Active,
		LastEditor:    c.LastEditor,
		LastReason:    c.LastReason,
		LastChangedAt: c.LastChanged,
	}
}

func (m *absenceModel) toEntity() *entity.AbsencePeriod {
	return &entity.AbsencePeriod{
		ID:             m.ID,
		CollaboratorID: m.CollaboratorID,
		Start:          m.StartDate,
		End:            m.EndDate,
		Reason:         m.Reason,
		CreatedAt:      m.CreatedAt,
	}
}

func newCalculationModel(calc *entity.Calculation) *calculationHeaderModel {
	header := &calculationHeaderModel{
		PeriodLabel: calc.Header.PeriodLabel,
		GeneratedBy: calc.Header.GeneratedBy,
		GrandTotal:  calc.Header.GrandTotal,
		ItemCount:   calc.Header.ItemCount,
		Details:     make([]calculationDetailModel, 0, len(calc.Details)),
	}
	for _, d := range calc.Details {
		detail := calculationDetailModel{
			CollaboratorID:   d.CollaboratorID,
			ExternalID:       d.ExternalID,
			CollaboratorName: d.CollaboratorName,
			GroupName:        d.Group,
			VehicleClass:     string(d.VehicleClass),
			Efficiency:       d.Efficiency,
			UnitPrice:        d.UnitPrice,
			TotalDistance:    d.TotalDistance,
			Liters:           d.Liters,
			TotalValue:       d.TotalValue,
			Entries:          make([]calculationDailyModel, 0, len(d.Entries)),
		}
		for _, e := range d.Entries {
			detail.Entries = append(detail.Entries, calculationDailyModel{
				CollaboratorID: e.CollaboratorID,
				EntryDate:      e.Date,
				RawDate:        e.RawDate,
				Distance:       e.Distance,
				Value:          e.Value,
				Observation:    e.Observation,
			})
		}
		header.Details = append(header.Details, detail)
	}
	return header
}

// copyIDs writes the generated keys back into the domain hierarchy
func (m *calculationHeaderModel) copyIDs(calc *entity.Calculation) {
	calc.Header.ID = m.ID
	calc.Header.CreatedAt = m.CreatedAt
	for i := range m.Details {
		calc.Details[i].ID = m.Details[i].ID
		calc.Details[i].HeaderID = m.ID
		for j := range m.Details[i].Entries {
			calc.Details[i].Entries[j].ID = m.Details[i].Entries[j].ID
			calc.Details[i].Entries[j].DetailID = m.Details[i].ID
		}
	}
}
