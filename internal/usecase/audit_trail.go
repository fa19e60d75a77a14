package usecase

import (
	"context"
	"time"

	"fuelrefund-service/internal/domain/entity"
	"fuelrefund-service/internal/domain/repository"
	apperrors "fuelrefund-service/pkg/errors"
	"fuelrefund-service/pkg/logger"
	"fuelrefund-service/pkg/metrics"
)

// AuditTrail writes audit entries without ever failing the caller
type AuditTrail struct {
	repo    repository.AuditRepository
	metrics *metrics.Metrics
	logger  logger.Logger
	now     func() time.Time
}

// NewAuditTrail creates a new audit trail
func NewAuditTrail(repo repository.AuditRepository, m *metrics.Metrics, logger logger.Logger) *AuditTrail {
	return &AuditTrail{
		repo:    repo,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// Record writes one entry. Failures are logged and counted, then swallowed.
func (a *AuditTrail) Record(ctx context.Context, actor, action, subject, details string) {
	entry := &entity.AuditEntry{
		Actor:     actor,
		Action:    action,
		Subject:   subject,
		Details:   details,
		CreatedAt: a.now(),
	}
	if err := a.repo.Record(ctx, entry); err != nil {
		auditErr := &apperrors.AuditError{Action: action, Err: err}
		a.logger.Error("Failed to write audit entry",
			"action", action,
			"subject", subject,
			"error", auditErr)
		a.metrics.AuditFailures.Inc()
	}
}
