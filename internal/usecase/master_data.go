package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fuelrefund-service/internal/domain/entity"
	"fuelrefund-service/internal/domain/repository"
	apperrors "fuelrefund-service/pkg/errors"
	"fuelrefund-service/pkg/logger"
	"fuelrefund-service/pkg/metrics"
	"fuelrefund-service/pkg/utils"
)

// Key aliases accepted in external personnel rows, matched case-insensitively
var (
	personnelIDKeys     = []string{"id", "external_id", "externalid", "matricula", "codigo"}
	personnelNameKeys   = []string{"name", "nome"}
	personnelSectorKeys = []string{"sector", "sector_code", "setor"}
	personnelGroupKeys  = []string{"group", "grupo"}
)

// NormalizePersonnelRow extracts the known fields of a raw source row
func NormalizePersonnelRow(raw map[string]interface{}) entity.ExternalPersonnel {
	lowered := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		lowered[strings.ToLower(strings.TrimSpace(k))] = v
	}
	pick := func(keys []string) string {
		for _, k := range keys {
			if v, ok := lowered[k]; ok && v != nil {
				switch t := v.(type) {
				case []byte:
					return strings.TrimSpace(string(t))
				default:
					return strings.TrimSpace(fmt.Sprint(t))
				}
			}
		}
		return ""
	}
	return entity.ExternalPersonnel{
		ExternalID: utils.NormalizeExternalID(pick(personnelIDKeys)),
		Name:       pick(personnelNameKeys),
		SectorCode: pick(personnelSectorKeys),
		Group:      pick(personnelGroupKeys),
	}
}

// groupWhitelist is the set of known groups, lower-cased
func groupWhitelist(inUse []string, defaults []string) map[string]struct{} {
	known := make(map[string]struct{})
	for _, g := range append(append([]string(nil), defaults...), inUse...) {
		if g = strings.TrimSpace(g); g != "" {
			known[strings.ToLower(g)] = struct{}{}
		}
	}
	return known
}

// registryGroups lists the groups of a registry snapshot
func registryGroups(registry []*entity.Collaborator) []string {
	groups := make([]string, 0, len(registry))
	for _, c := range registry {
		if c != nil {
			groups = append(groups, c.Group)
		}
	}
	return groups
}

// resolveGroup keeps a known group verbatim and sends anything else to the
// catch-all group
func resolveGroup(group string, known map[string]struct{}, catchAll string) string {
	group = strings.TrimSpace(group)
	if _, ok := known[strings.ToLower(group)]; ok && group != "" {
		return group
	}
	return catchAll
}

// DiffPersonnel classifies external rows against a registry snapshot. Only
// name and sector are compared for existing records: a registry group, once
// set, is never diffed.
func DiffPersonnel(rows []map[string]interface{}, registry []*entity.Collaborator, rules Rules) entity.DiffResult {
	byExternalID := make(map[string]*entity.Collaborator, len(registry))
	for _, c := range registry {
		if c != nil {
			byExternalID[strings.TrimSpace(c.ExternalID)] = c
		}
	}
	known := groupWhitelist(registryGroups(registry), rules.DefaultGroups)

	result := entity.DiffResult{New: []entity.DiffItem{}, Changed: []entity.DiffItem{}}
	seen := make(map[string]struct{}, len(rows))

	for _, raw := range rows {
		p := NormalizePersonnelRow(raw)
		if p.ExternalID == "" || p.Name == "" {
			result.Skipped++
			continue
		}
		if _, dup := seen[p.ExternalID]; dup {
			result.Skipped++
			continue
		}
		seen[p.ExternalID] = struct{}{}

		existing, ok := byExternalID[p.ExternalID]
		if !ok {
			p.Group = resolveGroup(p.Group, known, rules.CatchAllGroup)
			result.New = append(result.New, entity.DiffItem{
				Kind:       entity.DiffNew,
				ExternalID: p.ExternalID,
				Proposed:   p,
			})
			continue
		}

		var changes []entity.FieldChange
		if strings.TrimSpace(existing.Name) != p.Name {
			changes = append(changes, entity.FieldChange{Field: "name", Old: existing.Name, New: p.Name})
		}
		if strings.TrimSpace(existing.SectorCode) != p.SectorCode {
			changes = append(changes, entity.FieldChange{Field: "sector_code", Old: existing.SectorCode, New: p.SectorCode})
		}
		if len(changes) == 0 {
			continue
		}

		p.Group = existing.Group
		result.Changed = append(result.Changed, entity.DiffItem{
			Kind:           entity.DiffChanged,
			ExternalID:     p.ExternalID,
			CollaboratorID: existing.ID,
			Proposed:       p,
			Changes:        changes,
		})
	}
	return result
}

// MasterDataService reconciles the registry with the external system of record
type MasterDataService struct {
	source        repository.PersonnelSource
	collaborators repository.CollaboratorRepository
	locker        repository.Locker
	audit         *AuditTrail
	rules         Rules
	metrics       *metrics.Metrics
	logger        logger.Logger
	now           func() time.Time
}

// NewMasterDataService creates a new master-data service
func NewMasterDataService(
	source repository.PersonnelSource,
	collaborators repository.CollaboratorRepository,
	locker repository.Locker,
	audit *AuditTrail,
	rules Rules,
	m *metrics.Metrics,
	logger logger.Logger,
) *MasterDataService {
	return &MasterDataService{
		source:        source,
		collaborators: collaborators,
		locker:        locker,
		audit:         audit,
		rules:         rules,
		metrics:       m,
		logger:        logger,
		now:           time.Now,
	}
}

// Diff compares the external source with the registry. If the source cannot
// be queried the whole run fails; no partial diff is returned.
func (s *MasterDataService) Diff(ctx context.Context) (*entity.DiffResult, error) {
	start := s.now()
	defer func() {
		s.metrics.OperationTime.WithLabelValues("registry_diff").Observe(time.Since(start).Seconds())
	}()

	rows, err := s.source.QueryPersonnel(ctx)
	if err != nil {
		s.metrics.ErrorsCount.WithLabelValues("registry_diff").Inc()
		return nil, apperrors.NewConnectivityError("personnel source", err)
	}

	registry, err := s.collaborators.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list collaborators: %w", err)
	}

	result := DiffPersonnel(rows, registry, s.rules)
	s.logger.Info("Registry diff computed",
		"sourceRows", len(rows),
		"new", len(result.New),
		"changed", len(result.Changed),
		"skipped", result.Skipped)
	return &result, nil
}

// Sync applies the selected items one by one. Each item succeeds or fails on
// its own and is reported in the result; one batch audit entry is written.
func (s *MasterDataService) Sync(ctx context.Context, items []entity.DiffItem, actor string) (*entity.SyncResult, error) {
	if strings.TrimSpace(actor) == "" {
		return nil, apperrors.NewValidationError("actor", actor, "is required")
	}

	unlock, err := s.locker.Lock(ctx, "registry-sync")
	if err != nil {
		return nil, fmt.Errorf("failed to lock registry sync: %w", err)
	}
	defer unlock()

	groups, err := s.collaborators.DistinctGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	known := groupWhitelist(groups, s.rules.DefaultGroups)

	result := &entity.SyncResult{Results: make([]entity.SyncItemResult, 0, len(items))}
	for _, item := range items {
		itemResult := entity.SyncItemResult{ExternalID: item.ExternalID, Kind: item.Kind}
		if err := s.applyItem(ctx, item, actor, known); err != nil {
			itemResult.Error = err.Error()
			s.metrics.SyncItems.WithLabelValues(string(item.Kind), "failed").Inc()
			s.logger.Warn("Sync item failed", "externalId", item.ExternalID, "kind", item.Kind, "error", err)
		} else {
			itemResult.Applied = true
			result.Applied++
			s.metrics.SyncItems.WithLabelValues(string(item.Kind), "applied").Inc()
		}
		result.Results = append(result.Results, itemResult)
	}

	s.audit.Record(ctx, actor, entity.AuditRegistrySync, "collaborators",
		fmt.Sprintf("selected=%d; applied=%d", len(items), result.Applied))

	s.logger.Info("Registry sync applied", "actor", actor, "selected", len(items), "applied", result.Applied)
	return result, nil
}

func (s *MasterDataService) applyItem(ctx context.Context, item entity.DiffItem, actor string, known map[string]struct{}) error {
	externalID := utils.NormalizeExternalID(item.ExternalID)
	name := strings.TrimSpace(item.Proposed.Name)
	sector := strings.TrimSpace(item.Proposed.SectorCode)
	if externalID == "" {
		return apperrors.NewValidationError("external_id", item.ExternalID, "is required")
	}
	if name == "" {
		return apperrors.NewValidationError("name", item.Proposed.Name, "is required")
	}

	switch item.Kind {
	case entity.DiffNew:
		existing, err := s.collaborators.FindByExternalID(ctx, externalID)
		if err != nil && !apperrors.IsNotFound(err) {
			return err
		}
		if existing != nil {
			return apperrors.NewConflictError("collaborator", externalID, "external id already registered")
		}
		now := s.now()
		return s.collaborators.Create(ctx, &entity.Collaborator{
			ExternalID:   externalID,
			SectorCode:   sector,
			Name:         name,
			Group:        resolveGroup(item.Proposed.Group, known, s.rules.CatchAllGroup),
			VehicleClass: s.rules.DefaultVehicleClass,
			Active:       true,
			LastEditor:   actor,
			LastReason:   SyncReason,
			LastChanged:  &now,
		})

	case entity.DiffChanged:
		var existing *entity.Collaborator
		var err error
		if item.CollaboratorID != 0 {
			existing, err = s.collaborators.FindByID(ctx, item.CollaboratorID)
		} else {
			existing, err = s.collaborators.FindByExternalID(ctx, externalID)
		}
		if err != nil {
			return err
		}
		if existing.ExternalID != externalID {
			return apperrors.NewValidationError("collaborator_id", item.CollaboratorID, "does not belong to external id "+externalID)
		}
		return s.collaborators.UpdateNameSector(ctx, existing.ID, name, sector, actor, SyncReason)
	}

	return apperrors.NewValidationError("kind", string(item.Kind), "must be new or changed")
}
