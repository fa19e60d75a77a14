package usecase

import (
	"fmt"
	"strings"

	"fuelrefund-service/internal/domain/entity"
	"fuelrefund-service/pkg/utils"
)

// TieBreakPolicy decides which period's reason is reported when several
// absence periods of the same collaborator contain a date
type TieBreakPolicy string

const (
	// TieBreakFirst reports the first matching period in store order
	TieBreakFirst TieBreakPolicy = "first"
	// TieBreakEarliestStart reports the matching period that started first
	TieBreakEarliestStart TieBreakPolicy = "earliest_start"
	// TieBreakLatestStart reports the matching period that started last
	TieBreakLatestStart TieBreakPolicy = "latest_start"
)

// ParseTieBreakPolicy validates a configured policy name
func ParseTieBreakPolicy(value string) (TieBreakPolicy, error) {
	switch p := TieBreakPolicy(strings.ToLower(strings.TrimSpace(value))); p {
	case "":
		return TieBreakFirst, nil
	case TieBreakFirst, TieBreakEarliestStart, TieBreakLatestStart:
		return p, nil
	}
	return "", fmt.Errorf("unknown absence tie-break policy %q", value)
}

type absenceSpan struct {
	startKey string
	endKey   string
	reason   string
}

// AbsenceIndex answers "is this collaborator absent on this day" at calendar
// day granularity. It is immutable once built, so matching is idempotent.
type AbsenceIndex struct {
	spans  map[uint][]absenceSpan
	policy TieBreakPolicy
}

// NewAbsenceIndex indexes periods by collaborator. Periods with start after
// end are ignored.
func NewAbsenceIndex(periods []*entity.AbsencePeriod, policy TieBreakPolicy) *AbsenceIndex {
	idx := &AbsenceIndex{spans: make(map[uint][]absenceSpan), policy: policy}
	for _, p := range periods {
		if p == nil {
			continue
		}
		span := absenceSpan{
			startKey: utils.DateKey(p.Start),
			endKey:   utils.DateKey(p.End),
			reason:   p.Reason,
		}
		if span.startKey == "" || span.endKey == "" || span.startKey > span.endKey {
			continue
		}
		idx.spans[p.CollaboratorID] = append(idx.spans[p.CollaboratorID], span)
	}
	return idx
}

// Match reports whether dateKey falls inside any period of the collaborator,
// both ends inclusive, and which reason applies under the tie-break policy.
// An empty date key never matches.
func (idx *AbsenceIndex) Match(collaboratorID uint, dateKey string) (string, bool) {
	if dateKey == "" {
		return "", false
	}

	var chosen *absenceSpan
	spans := idx.spans[collaboratorID]
	for i := range spans {
		s := &spans[i]
		if dateKey < s.startKey || dateKey > s.endKey {
			continue
		}
		if chosen == nil {
			chosen = s
			if idx.policy == TieBreakFirst || idx.policy == "" {
				break
			}
			continue
		}
		switch idx.policy {
		case TieBreakEarliestStart:
			if s.startKey < chosen.startKey {
				chosen = s
			}
		case TieBreakLatestStart:
			if s.startKey > chosen.startKey {
				chosen = s
			}
		}
	}

	if chosen == nil {
		return "", false
	}
	return chosen.reason, true
}

// applyAbsence derives blocked/considered/low-distance of a record from the
// index. Callers decide whether the record may be touched.
func applyAbsence(rec *entity.StagingRecord, idx *AbsenceIndex) {
	reason, blocked := idx.Match(rec.CollaboratorID, rec.DateKey)
	rec.Blocked = blocked
	rec.BlockReason = reason
	if blocked {
		rec.ConsideredDistance = 0
	} else {
		rec.ConsideredDistance = rec.OriginalDistance
	}
	rec.LowDistance = !rec.Blocked && !rec.Edited && rec.ConsideredDistance < 1
}
