package usecase

import (
	"errors"
	"reflect"
	"strings"

	"fuelrefund-service/internal/domain/entity"
	apperrors "fuelrefund-service/pkg/errors"

	"github.com/go-playground/validator/v10"
)

// Observation and audit texts
const (
	AdjustmentPrefix  = "Adjustment: "
	MergeReasonFormat = "Merged from external id %s"
	ZeroedMarker      = "[ZEROED: retroactive absence]"
	SyncReason        = "external registry sync"
)

// Rules holds the business parameters of the pipeline. It is built once at
// startup from configuration and passed to every usecase that needs it.
type Rules struct {
	CatchAllGroup       string
	DefaultGroups       []string
	DefaultVehicleClass entity.VehicleClass
	FuelPrice           float64
	Efficiency          map[entity.VehicleClass]float64
	TieBreak            TieBreakPolicy
}

// DefaultRules returns the rules used when nothing is configured
func DefaultRules() Rules {
	return Rules{
		CatchAllGroup:       "Outros",
		DefaultGroups:       []string{"Vendedores", "Promotores", "Outros"},
		DefaultVehicleClass: entity.VehicleCar,
		FuelPrice:           5.0,
		Efficiency: map[entity.VehicleClass]float64{
			entity.VehicleCar:        10,
			entity.VehicleMotorcycle: 30,
		},
		TieBreak: TieBreakFirst,
	}
}

// IsCatchAll reports whether group is the reserved non-payable group
func (r Rules) IsCatchAll(group string) bool {
	return strings.EqualFold(strings.TrimSpace(group), r.CatchAllGroup)
}

// Pricing returns the default pricing of the rules
func (r Rules) Pricing() Pricing {
	eff := make(map[entity.VehicleClass]float64, len(r.Efficiency))
	for k, v := range r.Efficiency {
		eff[k] = v
	}
	return Pricing{UnitPrice: r.FuelPrice, Efficiency: eff}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// validateCommand converts validator failures to a ValidationError
func validateCommand(cmd interface{}) error {
	err := validate.Struct(cmd)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return apperrors.NewValidationError(fe.Field(), fe.Value(), "failed on "+fe.Tag())
	}
	return apperrors.NewValidationError("", nil, err.Error())
}
