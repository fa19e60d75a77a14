package usecase

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"fuelrefund-service/internal/domain/entity"
	apperrors "fuelrefund-service/pkg/errors"
	"fuelrefund-service/pkg/logger"
	"fuelrefund-service/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

func testMetrics() *metrics.Metrics {
	return metrics.NewMetricsWith(prometheus.NewRegistry(), "test")
}

func testLogger() logger.Logger {
	return logger.NewNopLogger()
}

func day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

type fakeCollaborators struct {
	items     []*entity.Collaborator
	createErr map[string]error
	updates   int
}

func (f *fakeCollaborators) List(ctx context.Context) ([]*entity.Collaborator, error) {
	out := make([]*entity.Collaborator, 0, len(f.items))
	for _, c := range f.items {
		copied := *c
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeCollaborators) FindByID(ctx context.Context, id uint) (*entity.Collaborator, error) {
	for _, c := range f.items {
		if c.ID == id {
			copied := *c
			return &copied, nil
		}
	}
	return nil, apperrors.NewNotFoundError("collaborator", strconv.Itoa(int(id)))
}

func (f *fakeCollaborators) FindByExternalID(ctx context.Context, externalID string) (*entity.Collaborator, error) {
	for _, c := range f.items {
		if c.ExternalID == externalID {
			copied := *c
			return &copied, nil
		}
	}
	return nil, apperrors.NewNotFoundError("collaborator", externalID)
}

func (f *fakeCollaborators) DistinctGroups(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	var groups []string
	for _, c := range f.items {
		if c.Group != "" && !seen[c.Group] {
			seen[c.Group] = true
			groups = append(groups, c.Group)
		}
	}
	return groups, nil
}

func (f *fakeCollaborators) Create(ctx context.Context, c *entity.Collaborator) error {
	if err := f.createErr[c.ExternalID]; err != nil {
		return err
	}
	c.ID = uint(len(f.items) + 1)
	copied := *c
	f.items = append(f.items, &copied)
	return nil
}

func (f *fakeCollaborators) UpdateNameSector(ctx context.Context, id uint, name, sector, editor, reason string) error {
	for _, c := range f.items {
		if c.ID == id {
			c.Name = name
			c.SectorCode = sector
			c.LastEditor = editor
			c.LastReason = reason
			f.updates++
			return nil
		}
	}
	return apperrors.NewNotFoundError("collaborator", strconv.Itoa(int(id)))
}

type fakeAbsences struct {
	periods []*entity.AbsencePeriod
}

func (f *fakeAbsences) List(ctx context.Context) ([]*entity.AbsencePeriod, error) {
	return f.periods, nil
}

func (f *fakeAbsences) ListOverlapping(ctx context.Context, from, to time.Time) ([]*entity.AbsencePeriod, error) {
	var out []*entity.AbsencePeriod
	for _, p := range f.periods {
		if !p.Start.After(to) && !p.End.Before(from) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeAbsences) Create(ctx context.Context, a *entity.AbsencePeriod) error {
	a.ID = uint(len(f.periods) + 1)
	f.periods = append(f.periods, a)
	return nil
}

type fakeHistory struct {
	byID map[string]*entity.HistoricalIdentity
	errs map[string]error
}

func (f *fakeHistory) LatestByExternalID(ctx context.Context, externalID string) (*entity.HistoricalIdentity, error) {
	if err := f.errs[externalID]; err != nil {
		return nil, err
	}
	return f.byID[externalID], nil
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]*entity.ImportSession
	saves    int
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: map[string]*entity.ImportSession{}}
}

func (f *fakeSessions) Save(ctx context.Context, s *entity.ImportSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[s.ID] = s.Clone()
	f.saves++
	return nil
}

func (f *fakeSessions) FindByID(ctx context.Context, id string) (*entity.ImportSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("import session", id)
	}
	return s.Clone(), nil
}

func (f *fakeSessions) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[id]; !ok {
		return apperrors.NewNotFoundError("import session", id)
	}
	delete(f.sessions, id)
	return nil
}

type fakeCalculations struct {
	saved    map[string]*entity.Calculation
	replaced int
	saveErr  error
	zeroed   []uint
	daily    []*entity.PersistedDaily
}

func newFakeCalculations() *fakeCalculations {
	return &fakeCalculations{saved: map[string]*entity.Calculation{}}
}

func (f *fakeCalculations) PeriodExists(ctx context.Context, label string) (bool, error) {
	_, ok := f.saved[label]
	return ok, nil
}

func (f *fakeCalculations) SaveCalculation(ctx context.Context, calc *entity.Calculation, replace bool) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if replace {
		f.replaced++
	}
	f.saved[calc.Header.PeriodLabel] = calc
	return nil
}

func (f *fakeCalculations) ZeroDailyEntries(ctx context.Context, ids []uint, marker string) (int64, error) {
	f.zeroed = append(f.zeroed, ids...)
	return int64(len(ids)), nil
}

func (f *fakeCalculations) ListDailyEntries(ctx context.Context, from, to time.Time) ([]*entity.PersistedDaily, error) {
	return f.daily, nil
}

type fakeAudit struct {
	entries []*entity.AuditEntry
	err     error
}

func (f *fakeAudit) Record(ctx context.Context, e *entity.AuditEntry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, e)
	return nil
}

type fakeLocker struct {
	mu   sync.Mutex
	keys []string
}

func (f *fakeLocker) Lock(ctx context.Context, key string) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	return func() {}, nil
}

type fakeSource struct {
	rows []map[string]interface{}
	err  error
}

func (f *fakeSource) QueryPersonnel(ctx context.Context) ([]map[string]interface{}, error) {
	return f.rows, f.err
}

// fakeReader reads "id;name;date;distance" lines without a header
type fakeReader struct {
	ext string
	err error
}

func (f *fakeReader) CanHandle(filename string) bool {
	return strings.HasSuffix(filename, f.ext)
}

func (f *fakeReader) Read(ctx context.Context, r io.Reader) ([]entity.TelemetryRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var rows []entity.TelemetryRow
	for i, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		parts := strings.Split(line, ";")
		if len(parts) != 4 {
			return nil, errors.New("bad fixture line")
		}
		rows = append(rows, entity.TelemetryRow{Line: i + 1, ExternalID: parts[0], Name: parts[1], Date: parts[2], Distance: parts[3]})
	}
	return rows, nil
}

type fakeRouter struct {
	readers []TelemetryReader
}

func (f *fakeRouter) Register(r TelemetryReader) { f.readers = append(f.readers, r) }

func (f *fakeRouter) GetReader(filename string) TelemetryReader {
	for _, r := range f.readers {
		if r.CanHandle(filename) {
			return r
		}
	}
	return nil
}
