// Package telemetry reads daily distance exports from tracking providers.
package telemetry

import (
	"strings"

	"fuelrefund-service/internal/domain/entity"
	apperrors "fuelrefund-service/pkg/errors"
)

var (
	idHeaders       = []string{"id", "external_id", "externalid", "codigo", "código", "matricula", "matrícula"}
	nameHeaders     = []string{"name", "nome"}
	dateHeaders     = []string{"date", "data"}
	distanceHeaders = []string{"distance", "km", "distancia", "distância"}
)

// columnIndex maps the telemetry fields to positions in a row
type columnIndex struct {
	id       int
	name     int
	date     int
	distance int
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.ReplaceAll(h, " ", "_")
}

func findColumn(header []string, aliases []string) int {
	for i, h := range header {
		n := normalizeHeader(h)
		for _, a := range aliases {
			if n == a {
				return i
			}
		}
	}
	return -1
}

// mapColumns locates the columns of a header row. Name is optional; a
// missing id, date or distance column makes the input unreadable.
func mapColumns(header []string) (columnIndex, error) {
	idx := columnIndex{
		id:       findColumn(header, idHeaders),
		name:     findColumn(header, nameHeaders),
		date:     findColumn(header, dateHeaders),
		distance: findColumn(header, distanceHeaders),
	}
	switch {
	case idx.id < 0:
		return idx, apperrors.NewInputError(0, "header", "missing external id column")
	case idx.date < 0:
		return idx, apperrors.NewInputError(0, "header", "missing date column")
	case idx.distance < 0:
		return idx, apperrors.NewInputError(0, "header", "missing distance column")
	}
	return idx, nil
}

func cell(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// toRow builds a telemetry row from a data record
func (c columnIndex) toRow(line int, record []string) entity.TelemetryRow {
	return entity.TelemetryRow{
		Line:       line,
		ExternalID: cell(record, c.id),
		Name:       cell(record, c.name),
		Date:       cell(record, c.date),
		Distance:   cell(record, c.distance),
	}
}

func hasExtension(filename string, exts ...string) bool {
	lower := strings.ToLower(strings.TrimSpace(filename))
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
