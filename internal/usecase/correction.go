package usecase

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"fuelrefund-service/internal/domain/entity"
	apperrors "fuelrefund-service/pkg/errors"
)

// MaxEditReasonLength keeps "Adjustment: <reason>" plus the zeroed marker
// within the persisted observation column
const MaxEditReasonLength = 450

// EditCommand sets the considered distance of one staging record
type EditCommand struct {
	RecordID int     `json:"record_id" validate:"gt=0"`
	Distance float64 `json:"distance" validate:"gte=0"`
	Reason   string  `json:"reason" validate:"required,max=450"`
}

// EditRecord applies a manual distance override. Edited values are trusted
// regardless of magnitude; a prior block stays visible but no longer applies.
func EditRecord(session *entity.ImportSession, cmd EditCommand) error {
	cmd.Reason = strings.TrimSpace(cmd.Reason)
	if math.IsNaN(cmd.Distance) || math.IsInf(cmd.Distance, 0) {
		return apperrors.NewValidationError("distance", cmd.Distance, "must be a finite number")
	}
	if err := validateCommand(cmd); err != nil {
		return err
	}

	i := session.FindRecord(cmd.RecordID)
	if i < 0 {
		return apperrors.NewNotFoundError("staging record", strconv.Itoa(cmd.RecordID))
	}

	rec := &session.Records[i]
	rec.ConsideredDistance = cmd.Distance
	rec.Edited = true
	rec.Overridden = true
	rec.EditReason = cmd.Reason
	rec.LowDistance = false
	return nil
}

// MergeIgnored reattributes every row of an ignored external id to target.
// Each new record is checked against the target's absences and marked edited
// with a reason naming the original id. The ignored group is removed.
func MergeIgnored(session *entity.ImportSession, externalID string, target *entity.Collaborator, absences *AbsenceIndex) ([]entity.StagingRecord, error) {
	if target == nil {
		return nil, apperrors.NewValidationError("collaborator_id", nil, "merge target is required")
	}
	gi := session.FindIgnored(externalID)
	if gi < 0 {
		return nil, apperrors.NewNotFoundError("ignored external id", externalID)
	}

	group := session.Ignored[gi]
	created := make([]entity.StagingRecord, 0, len(group.Rows))
	next := session.NextRecordID
	if next < 1 {
		next = 1
	}

	for _, row := range group.Rows {
		accepted, rejected := acceptRow(row)
		if rejected != nil {
			// Ignored groups only hold accepted rows
			return nil, apperrors.NewInputError(row.Line, "row", rejected.Message)
		}

		rec := newStagingRecord(next, accepted, target)
		next++
		rec.Edited = true
		rec.EditReason = fmt.Sprintf(MergeReasonFormat, externalID)
		rec.MergedFrom = externalID
		applyAbsence(&rec, absences)
		created = append(created, rec)
	}

	session.Records = append(session.Records, created...)
	session.NextRecordID = next
	session.Ignored = append(session.Ignored[:gi:gi], session.Ignored[gi+1:]...)
	return created, nil
}

// RevalidateRecords re-applies the absence rule to every record not edited by
// a human and returns how many records changed. Running it twice against the
// same index changes nothing the second time.
func RevalidateRecords(session *entity.ImportSession, absences *AbsenceIndex) int {
	changed := 0
	for i := range session.Records {
		rec := &session.Records[i]
		if rec.Edited {
			continue
		}
		before := *rec
		applyAbsence(rec, absences)
		if before != *rec {
			changed++
		}
	}
	return changed
}

// MatchSuggestion finds the single active collaborator whose name equals the
// historical name (case-insensitive) and whose group equals the historical
// group exactly. Ambiguous or missing matches yield nil.
func MatchSuggestion(history *entity.HistoricalIdentity, collaborators []*entity.Collaborator) (*entity.MergeSuggestion, int) {
	if history == nil {
		return nil, 0
	}
	name := strings.TrimSpace(history.Name)

	var match *entity.Collaborator
	candidates := 0
	for _, c := range collaborators {
		if c == nil || !c.Active {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(c.Name), name) && c.Group == history.Group {
			candidates++
			match = c
		}
	}
	if candidates != 1 {
		return nil, candidates
	}
	return &entity.MergeSuggestion{
		ExternalID:       history.ExternalID,
		HistoricalName:   history.Name,
		HistoricalGroup:  history.Group,
		CollaboratorID:   match.ID,
		CollaboratorName: match.Name,
	}, 1
}
