package usecase

import (
	"fmt"
	"strings"

	"fuelrefund-service/internal/domain/entity"
	"fuelrefund-service/pkg/utils"
)

// StagingResult is the outcome of matching one telemetry batch
type StagingResult struct {
	Records      []entity.StagingRecord
	Ignored      []entity.IgnoredGroup
	Rejected     []entity.RejectedRow
	PeriodStart  string
	PeriodEnd    string
	PeriodLabel  string
	NextRecordID int
}

// acceptedRow is a telemetry row that passed id and distance validation
type acceptedRow struct {
	row      entity.TelemetryRow
	id       string
	distance float64
	dateKey  string
}

// acceptRow validates the external id and distance of a row
func acceptRow(row entity.TelemetryRow) (acceptedRow, *entity.RejectedRow) {
	id := utils.NormalizeExternalID(row.ExternalID)
	if id == "" {
		return acceptedRow{}, &entity.RejectedRow{Line: row.Line, Message: "missing external id"}
	}
	if !utils.IsNumericID(id) {
		return acceptedRow{}, &entity.RejectedRow{Line: row.Line, Message: fmt.Sprintf("non-numeric external id %q", row.ExternalID)}
	}

	distance, ok := utils.ParseDecimal(row.Distance)
	if !ok {
		return acceptedRow{}, &entity.RejectedRow{Line: row.Line, Message: fmt.Sprintf("invalid distance %q", row.Distance)}
	}
	if distance < 0 {
		return acceptedRow{}, &entity.RejectedRow{Line: row.Line, Message: fmt.Sprintf("negative distance %q", row.Distance)}
	}

	accepted := acceptedRow{row: row, id: id, distance: distance}
	if t, ok := utils.ParseFlexibleDate(row.Date); ok {
		accepted.dateKey = utils.DateKey(t)
	}
	return accepted, nil
}

// BuildStaging matches telemetry rows against the registry and applies the
// absence rule. Row-level problems never fail the batch: invalid rows are
// rejected, unknown ids are grouped, rows with unparseable dates are staged
// with an empty date key.
func BuildStaging(rows []entity.TelemetryRow, collaborators []*entity.Collaborator, absences *AbsenceIndex) StagingResult {
	byExternalID := make(map[string]*entity.Collaborator, len(collaborators))
	for _, c := range collaborators {
		if c == nil {
			continue
		}
		byExternalID[strings.TrimSpace(c.ExternalID)] = c
	}

	result := StagingResult{NextRecordID: 1}
	ignoredIndex := make(map[string]int)

	for _, row := range rows {
		accepted, rejected := acceptRow(row)
		if rejected != nil {
			result.Rejected = append(result.Rejected, *rejected)
			continue
		}

		if accepted.dateKey != "" {
			if result.PeriodStart == "" || accepted.dateKey < result.PeriodStart {
				result.PeriodStart = accepted.dateKey
			}
			if accepted.dateKey > result.PeriodEnd {
				result.PeriodEnd = accepted.dateKey
			}
		}

		collaborator, ok := byExternalID[accepted.id]
		if !ok {
			i, seen := ignoredIndex[accepted.id]
			if !seen {
				i = len(result.Ignored)
				ignoredIndex[accepted.id] = i
				result.Ignored = append(result.Ignored, entity.IgnoredGroup{
					ExternalID: accepted.id,
					Name:       strings.TrimSpace(row.Name),
				})
			}
			result.Ignored[i].Rows = append(result.Ignored[i].Rows, row)
			continue
		}

		rec := newStagingRecord(result.NextRecordID, accepted, collaborator)
		result.NextRecordID++
		applyAbsence(&rec, absences)
		result.Records = append(result.Records, rec)
	}

	if result.PeriodStart == "" {
		result.PeriodLabel = utils.PERIOD_UNIDENTIFIED
	} else {
		result.PeriodLabel = utils.FormatPeriodLabel(result.PeriodStart, result.PeriodEnd)
	}
	return result
}

func newStagingRecord(id int, accepted acceptedRow, collaborator *entity.Collaborator) entity.StagingRecord {
	return entity.StagingRecord{
		ID:                 id,
		ExternalID:         collaborator.ExternalID,
		CollaboratorID:     collaborator.ID,
		CollaboratorName:   collaborator.Name,
		Group:              collaborator.Group,
		VehicleClass:       collaborator.VehicleClass,
		TelemetryName:      strings.TrimSpace(accepted.row.Name),
		RawDate:            strings.TrimSpace(accepted.row.Date),
		DateKey:            accepted.dateKey,
		OriginalDistance:   accepted.distance,
		ConsideredDistance: accepted.distance,
	}
}
