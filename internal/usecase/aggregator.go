package usecase

import (
	"sort"
	"strings"

	"fuelrefund-service/internal/domain/entity"
	apperrors "fuelrefund-service/pkg/errors"
)

// Pricing is the fuel price and per-vehicle efficiency of one aggregation
type Pricing struct {
	UnitPrice  float64                         `json:"fuel_price"`
	Efficiency map[entity.VehicleClass]float64 `json:"efficiency"`
}

// PricingOverride replaces parts of the configured pricing for one run
type PricingOverride struct {
	UnitPrice  *float64                        `json:"fuel_price,omitempty"`
	Efficiency map[entity.VehicleClass]float64 `json:"efficiency,omitempty"`
}

// Apply returns p with the override's values on top
func (p Pricing) Apply(o *PricingOverride) Pricing {
	out := Pricing{UnitPrice: p.UnitPrice, Efficiency: make(map[entity.VehicleClass]float64, len(p.Efficiency))}
	for k, v := range p.Efficiency {
		out.Efficiency[k] = v
	}
	if o == nil {
		return out
	}
	if o.UnitPrice != nil {
		out.UnitPrice = *o.UnitPrice
	}
	for k, v := range o.Efficiency {
		out.Efficiency[k] = v
	}
	return out
}

// Observation is the text carried by a daily entry: the block reason for a
// blocked day, the adjustment reason for an edited one, otherwise empty
func Observation(rec entity.StagingRecord) string {
	if rec.Blocked && !rec.Overridden {
		return rec.BlockReason
	}
	if rec.Edited {
		return AdjustmentPrefix + rec.EditReason
	}
	return ""
}

// Aggregate groups staging records per collaborator and prices each payable
// group. Groups in the catch-all bucket are left out. Sums carry full
// precision; rounding belongs to presentation.
func Aggregate(records []entity.StagingRecord, pricing Pricing, catchAllGroup string) ([]entity.CollaboratorAggregate, error) {
	if pricing.UnitPrice < 0 {
		return nil, apperrors.NewValidationError("fuel_price", pricing.UnitPrice, "must not be negative")
	}

	byCollaborator := make(map[uint]*entity.CollaboratorAggregate)
	var order []uint

	for _, rec := range records {
		if strings.EqualFold(strings.TrimSpace(rec.Group), catchAllGroup) {
			continue
		}

		agg, ok := byCollaborator[rec.CollaboratorID]
		if !ok {
			efficiency := pricing.Efficiency[rec.VehicleClass]
			if efficiency <= 0 {
				return nil, apperrors.NewValidationError("efficiency", string(rec.VehicleClass), "no positive efficiency for vehicle class")
			}
			agg = &entity.CollaboratorAggregate{
				CollaboratorID:   rec.CollaboratorID,
				ExternalID:       rec.ExternalID,
				CollaboratorName: rec.CollaboratorName,
				Group:            rec.Group,
				VehicleClass:     rec.VehicleClass,
				Efficiency:       efficiency,
				UnitPrice:        pricing.UnitPrice,
				PerUnitRate:      pricing.UnitPrice / efficiency,
			}
			byCollaborator[rec.CollaboratorID] = agg
			order = append(order, rec.CollaboratorID)
		}

		agg.TotalDistance += rec.ConsideredDistance
		agg.Entries = append(agg.Entries, entity.DailyValue{
			RecordID:    rec.ID,
			DateKey:     rec.DateKey,
			RawDate:     rec.RawDate,
			Distance:    rec.ConsideredDistance,
			Value:       rec.ConsideredDistance * agg.PerUnitRate,
			Observation: Observation(rec),
		})
	}

	out := make([]entity.CollaboratorAggregate, 0, len(order))
	for _, id := range order {
		agg := byCollaborator[id]
		agg.Liters = agg.TotalDistance / agg.Efficiency
		agg.Value = agg.Liters * agg.UnitPrice
		sort.SliceStable(agg.Entries, func(i, j int) bool {
			if agg.Entries[i].DateKey != agg.Entries[j].DateKey {
				return agg.Entries[i].DateKey < agg.Entries[j].DateKey
			}
			return agg.Entries[i].RecordID < agg.Entries[j].RecordID
		})
		out = append(out, *agg)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CollaboratorName != out[j].CollaboratorName {
			return out[i].CollaboratorName < out[j].CollaboratorName
		}
		return out[i].CollaboratorID < out[j].CollaboratorID
	})
	return out, nil
}
