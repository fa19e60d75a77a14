package usecase

import (
	"context"
	"fmt"
	"io"
	"time"

	"fuelrefund-service/internal/domain/entity"
	"fuelrefund-service/internal/domain/repository"
	apperrors "fuelrefund-service/pkg/errors"
	"fuelrefund-service/pkg/logger"
	"fuelrefund-service/pkg/metrics"

	"github.com/google/uuid"
)

// ImportService runs the telemetry pipeline: read, match, correct, aggregate.
// Every correction works on a copy of the session and persists it only on
// success, so a failed call leaves the stored session untouched.
type ImportService struct {
	router        FormatRouter
	collaborators repository.CollaboratorRepository
	absences      repository.AbsenceRepository
	history       repository.HistoryRepository
	sessions      repository.SessionRepository
	rules         Rules
	metrics       *metrics.Metrics
	logger        logger.Logger
	now           func() time.Time
}

// NewImportService creates a new import service
func NewImportService(
	router FormatRouter,
	collaborators repository.CollaboratorRepository,
	absences repository.AbsenceRepository,
	history repository.HistoryRepository,
	sessions repository.SessionRepository,
	rules Rules,
	m *metrics.Metrics,
	logger logger.Logger,
) *ImportService {
	return &ImportService{
		router:        router,
		collaborators: collaborators,
		absences:      absences,
		history:       history,
		sessions:      sessions,
		rules:         rules,
		metrics:       m,
		logger:        logger,
		now:           time.Now,
	}
}

// Import reads a telemetry file and stages it in a new session
func (s *ImportService) Import(ctx context.Context, filename string, r io.Reader, actor string) (*entity.ImportSession, error) {
	start := s.now()
	defer func() {
		s.metrics.OperationTime.WithLabelValues("import").Observe(time.Since(start).Seconds())
	}()

	reader := s.router.GetReader(filename)
	if reader == nil {
		return nil, apperrors.NewInputError(0, "file", fmt.Sprintf("unsupported file format: %s", filename))
	}

	rows, err := reader.Read(ctx, r)
	if err != nil {
		s.metrics.ErrorsCount.WithLabelValues("import").Inc()
		return nil, err
	}

	collaborators, err := s.collaborators.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list collaborators: %w", err)
	}
	absences, err := s.absenceIndex(ctx)
	if err != nil {
		return nil, err
	}

	result := BuildStaging(rows, collaborators, absences)

	now := s.now()
	session := &entity.ImportSession{
		ID:           uuid.NewString(),
		FileName:     filename,
		CreatedBy:    actor,
		PeriodLabel:  result.PeriodLabel,
		PeriodStart:  result.PeriodStart,
		PeriodEnd:    result.PeriodEnd,
		Records:      result.Records,
		Ignored:      result.Ignored,
		Rejected:     result.Rejected,
		NextRecordID: result.NextRecordID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save import session: %w", err)
	}

	ignoredRows := 0
	for _, g := range session.Ignored {
		ignoredRows += len(g.Rows)
	}
	blocked := 0
	for _, rec := range session.Records {
		if rec.Blocked {
			blocked++
		}
	}
	s.metrics.TelemetryRows.WithLabelValues(metrics.OutcomeMatched).Add(float64(len(session.Records)))
	s.metrics.TelemetryRows.WithLabelValues(metrics.OutcomeIgnored).Add(float64(ignoredRows))
	s.metrics.TelemetryRows.WithLabelValues(metrics.OutcomeRejected).Add(float64(len(session.Rejected)))
	s.metrics.RecordsBlocked.Add(float64(blocked))

	s.logger.Info("Telemetry staged",
		"session", session.ID,
		"file", filename,
		"period", session.PeriodLabel,
		"records", len(session.Records),
		"blocked", blocked,
		"ignoredIds", len(session.Ignored),
		"rejected", len(session.Rejected))

	return session, nil
}

// Get returns a stored session
func (s *ImportService) Get(ctx context.Context, sessionID string) (*entity.ImportSession, error) {
	return s.sessions.FindByID(ctx, sessionID)
}

// Close ends a session; its ignored groups are discarded with it
func (s *ImportService) Close(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.logger.Info("Import session closed", "session", sessionID)
	return nil
}

// Edit overrides the considered distance of one record
func (s *ImportService) Edit(ctx context.Context, sessionID string, cmd EditCommand) (*entity.StagingRecord, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	working := session.Clone()
	if err := EditRecord(working, cmd); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, working); err != nil {
		return nil, err
	}

	rec := working.Records[working.FindRecord(cmd.RecordID)]
	s.logger.Info("Staging record edited",
		"session", sessionID,
		"record", cmd.RecordID,
		"distance", cmd.Distance,
		"reason", rec.EditReason)
	return &rec, nil
}

// MergeCommand reattributes an ignored external id to a collaborator
type MergeCommand struct {
	ExternalID     string `json:"external_id" validate:"required"`
	CollaboratorID uint   `json:"collaborator_id" validate:"required"`
}

// Merge moves an ignored group into staging under the target collaborator
func (s *ImportService) Merge(ctx context.Context, sessionID string, cmd MergeCommand) ([]entity.StagingRecord, error) {
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	target, err := s.collaborators.FindByID(ctx, cmd.CollaboratorID)
	if err != nil {
		return nil, err
	}
	absences, err := s.absenceIndex(ctx)
	if err != nil {
		return nil, err
	}

	working := session.Clone()
	created, err := MergeIgnored(working, cmd.ExternalID, target, absences)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, working); err != nil {
		return nil, err
	}

	s.logger.Info("Ignored telemetry merged",
		"session", sessionID,
		"externalId", cmd.ExternalID,
		"collaborator", target.ID,
		"records", len(created))
	return created, nil
}

// Suggestions proposes merge targets for every ignored id of the session.
// It never changes the session.
func (s *ImportService) Suggestions(ctx context.Context, sessionID string) ([]entity.MergeSuggestion, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(session.Ignored))
	for _, g := range session.Ignored {
		ids = append(ids, g.ExternalID)
	}
	return s.SuggestMerges(ctx, ids)
}

// SuggestMerges looks up the last payout of each ignored id and matches its
// name and group against the active registry
func (s *ImportService) SuggestMerges(ctx context.Context, ignoredExternalIDs []string) ([]entity.MergeSuggestion, error) {
	if len(ignoredExternalIDs) == 0 {
		return []entity.MergeSuggestion{}, nil
	}

	collaborators, err := s.collaborators.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list collaborators: %w", err)
	}

	suggestions := make([]entity.MergeSuggestion, 0)
	for _, id := range ignoredExternalIDs {
		hist, err := s.history.LatestByExternalID(ctx, id)
		if err != nil {
			s.logger.Warn("History lookup failed", "externalId", id, "error", err)
			continue
		}
		if hist == nil {
			continue
		}

		suggestion, candidates := MatchSuggestion(hist, collaborators)
		if suggestion == nil {
			if candidates > 1 {
				s.logger.Info("Ambiguous merge suggestion skipped",
					"externalId", id,
					"name", hist.Name,
					"candidates", candidates)
			}
			continue
		}
		suggestions = append(suggestions, *suggestion)
	}
	return suggestions, nil
}

// Revalidate re-applies current absences to every non-edited record
func (s *ImportService) Revalidate(ctx context.Context, sessionID string) (int, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	absences, err := s.absenceIndex(ctx)
	if err != nil {
		return 0, err
	}

	working := session.Clone()
	changed := RevalidateRecords(working, absences)
	if changed == 0 {
		return 0, nil
	}
	if err := s.persist(ctx, working); err != nil {
		return 0, err
	}

	s.logger.Info("Staging revalidated", "session", sessionID, "changed", changed)
	return changed, nil
}

// Aggregate prices the session with the configured pricing, optionally
// overridden for this run
func (s *ImportService) Aggregate(ctx context.Context, sessionID string, override *PricingOverride) ([]entity.CollaboratorAggregate, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return Aggregate(session.Records, s.rules.Pricing().Apply(override), s.rules.CatchAllGroup)
}

func (s *ImportService) absenceIndex(ctx context.Context) (*AbsenceIndex, error) {
	periods, err := s.absences.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list absences: %w", err)
	}
	return NewAbsenceIndex(periods, s.rules.TieBreak), nil
}

func (s *ImportService) persist(ctx context.Context, session *entity.ImportSession) error {
	session.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, session); err != nil {
		return fmt.Errorf("failed to save import session: %w", err)
	}
	return nil
}
