package entity

import (
	"strings"
	"time"
)

// VehicleClass is the kind of vehicle a collaborator is reimbursed for
type VehicleClass string

const (
	VehicleCar        VehicleClass = "CAR"
	VehicleMotorcycle VehicleClass = "MOTORCYCLE"
)

// ParseVehicleClass maps a free-form label to a VehicleClass
func ParseVehicleClass(value string) (VehicleClass, bool) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "CAR", "CARRO":
		return VehicleCar, true
	case "MOTORCYCLE", "MOTO":
		return VehicleMotorcycle, true
	}
	return "", false
}

// Collaborator is a registry master record of field personnel
type Collaborator struct {
	ID           uint         `json:"id"`
	ExternalID   string       `json:"external_id"`
	SectorCode   string       `json:"sector_code"`
	Name         string       `json:"name"`
	Group        string       `json:"group"`
	VehicleClass VehicleClass `json:"vehicle_class"`
	Active       bool         `json:"active"`
	LastEditor   string       `json:"last_editor,omitempty"`
	LastReason   string       `json:"last_reason,omitempty"`
	LastChanged  *time.Time   `json:"last_changed_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}
