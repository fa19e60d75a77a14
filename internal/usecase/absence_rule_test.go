package usecase

import (
	"testing"
	"time"

	"fuelrefund-service/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func overlappingPeriods() []*entity.AbsencePeriod {
	return []*entity.AbsencePeriod{
		{CollaboratorID: 1, Start: day("2024-01-05"), End: day("2024-01-20"), Reason: "Vacation"},
		{CollaboratorID: 1, Start: day("2024-01-01"), End: day("2024-01-10"), Reason: "Medical leave"},
		{CollaboratorID: 1, Start: day("2024-01-08"), End: day("2024-01-09"), Reason: "Training"},
	}
}

func TestParseTieBreakPolicy(t *testing.T) {
	p, err := ParseTieBreakPolicy("")
	require.NoError(t, err)
	assert.Equal(t, TieBreakFirst, p)

	p, err = ParseTieBreakPolicy(" Latest_Start ")
	require.NoError(t, err)
	assert.Equal(t, TieBreakLatestStart, p)

	_, err = ParseTieBreakPolicy("longest")
	assert.Error(t, err)
}

func TestAbsenceIndex_InclusiveBounds(t *testing.T) {
	idx := NewAbsenceIndex([]*entity.AbsencePeriod{
		{CollaboratorID: 1, Start: day("2024-01-05"), End: day("2024-01-07"), Reason: "Vacation"},
	}, TieBreakFirst)

	for _, key := range []string{"2024-01-05", "2024-01-06", "2024-01-07"} {
		reason, ok := idx.Match(1, key)
		assert.True(t, ok, key)
		assert.Equal(t, "Vacation", reason)
	}
	for _, key := range []string{"2024-01-04", "2024-01-08", ""} {
		_, ok := idx.Match(1, key)
		assert.False(t, ok, key)
	}

	_, ok := idx.Match(2, "2024-01-06")
	assert.False(t, ok, "other collaborators are not affected")
}

func TestAbsenceIndex_PeriodsReadBackInLocalZone(t *testing.T) {
	brt := time.FixedZone("BRT", -3*60*60)
	idx := NewAbsenceIndex([]*entity.AbsencePeriod{
		{CollaboratorID: 1, Start: day("2024-01-05").In(brt), End: day("2024-01-05").In(brt), Reason: "Vacation"},
	}, TieBreakFirst)

	_, ok := idx.Match(1, "2024-01-05")
	assert.True(t, ok)
	_, ok = idx.Match(1, "2024-01-04")
	assert.False(t, ok)
}

func TestAbsenceIndex_SkipsInvertedPeriods(t *testing.T) {
	idx := NewAbsenceIndex([]*entity.AbsencePeriod{
		{CollaboratorID: 1, Start: day("2024-01-10"), End: day("2024-01-05"), Reason: "Broken"},
		nil,
	}, TieBreakFirst)
	_, ok := idx.Match(1, "2024-01-07")
	assert.False(t, ok)
}

func TestAbsenceIndex_TieBreakPolicies(t *testing.T) {
	tests := []struct {
		policy TieBreakPolicy
		want   string
	}{
		{TieBreakFirst, "Vacation"},
		{TieBreakEarliestStart, "Medical leave"},
		{TieBreakLatestStart, "Training"},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			idx := NewAbsenceIndex(overlappingPeriods(), tt.policy)
			reason, ok := idx.Match(1, "2024-01-08")
			require.True(t, ok)
			assert.Equal(t, tt.want, reason)

			// matching is pure
			again, _ := idx.Match(1, "2024-01-08")
			assert.Equal(t, reason, again)
		})
	}
}

func TestApplyAbsence(t *testing.T) {
	idx := NewAbsenceIndex([]*entity.AbsencePeriod{
		{CollaboratorID: 1, Start: day("2024-01-05"), End: day("2024-01-05"), Reason: "Vacation"},
	}, TieBreakFirst)

	blocked := entity.StagingRecord{CollaboratorID: 1, DateKey: "2024-01-05", OriginalDistance: 40, ConsideredDistance: 40}
	applyAbsence(&blocked, idx)
	assert.True(t, blocked.Blocked)
	assert.Equal(t, "Vacation", blocked.BlockReason)
	assert.Zero(t, blocked.ConsideredDistance)
	assert.False(t, blocked.LowDistance)

	low := entity.StagingRecord{CollaboratorID: 1, DateKey: "2024-01-06", OriginalDistance: 0.4}
	applyAbsence(&low, idx)
	assert.False(t, low.Blocked)
	assert.Equal(t, 0.4, low.ConsideredDistance)
	assert.True(t, low.LowDistance)

	undated := entity.StagingRecord{CollaboratorID: 1, OriginalDistance: 3}
	applyAbsence(&undated, idx)
	assert.False(t, undated.Blocked)
	assert.Equal(t, 3.0, undated.ConsideredDistance)
}
