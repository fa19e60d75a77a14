package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fuelrefund-service/internal/domain/entity"
	"fuelrefund-service/internal/infrastructure/lock"
	"fuelrefund-service/internal/infrastructure/router"
	"fuelrefund-service/internal/interface/repository"
	"fuelrefund-service/internal/interface/telemetry"
	"fuelrefund-service/internal/usecase"
	"fuelrefund-service/pkg/logger"
	"fuelrefund-service/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const personnelQuery = `SELECT id, name, sector, grp AS "group" FROM personnel`

type testEnv struct {
	engine *gin.Engine
	db     *gorm.DB
	ana    *entity.Collaborator
	bruno  *entity.Collaborator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, repository.AutoMigrate(db))

	log := logger.NewNopLogger()
	reg := prometheus.NewRegistry()
	m := metrics.NewMetricsWith(reg, "test")
	rules := usecase.DefaultRules()

	collaborators := repository.NewGormCollaboratorRepository(db)
	absences := repository.NewGormAbsenceRepository(db)
	calculations := repository.NewGormCalculationRepository(db)
	audit := usecase.NewAuditTrail(repository.NewGormAuditRepository(db), m, log)
	locker := lock.NewLocalLocker()

	formats := router.NewFormatRouter(log)
	formats.Register(telemetry.NewCSVReader())
	formats.Register(telemetry.NewXLSXReader())

	imports := usecase.NewImportService(formats, collaborators, absences, calculations,
		repository.NewMemorySessionRepository(), rules, m, log)
	calcService := usecase.NewCalculationService(calculations, absences, locker, audit, rules, m, log)
	masterData := usecase.NewMasterDataService(repository.NewGormPersonnelSource(db, personnelQuery),
		collaborators, locker, audit, rules, m, log)

	env := &testEnv{
		engine: NewRouter(NewHandler(imports, calcService, masterData, collaborators, absences, log), reg),
		db:     db,
	}

	ctx := context.Background()
	env.ana = &entity.Collaborator{ExternalID: "1001", Name: "Ana", SectorCode: "S1", Group: "Vendedores", VehicleClass: entity.VehicleCar, Active: true}
	env.bruno = &entity.Collaborator{ExternalID: "1002", Name: "Bruno", SectorCode: "S2", Group: "Outros", VehicleClass: entity.VehicleMotorcycle, Active: true}
	require.NoError(t, collaborators.Create(ctx, env.ana))
	require.NoError(t, collaborators.Create(ctx, env.bruno))
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(ActorHeader, "analyst")
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) upload(t *testing.T, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set(ActorHeader, "analyst")
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) importSession(t *testing.T, content string) entity.ImportSession {
	t.Helper()
	rec := e.upload(t, "telemetry.csv", content)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var session entity.ImportSession
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	return session
}

const sampleTelemetry = "id;name;date;distance\n" +
	"1001;Ana;05/01/2024;10\n" +
	"1001;Ana;06/01/2024;20\n" +
	"1002;Bruno;05/01/2024;30\n" +
	"9999;Carla Nova;06/01/2024;15\n" +
	"abc;Broken;06/01/2024;5\n"

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Healthy", rec.Body.String())

	env.importSession(t, sampleTelemetry)
	rec = env.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_telemetry_rows_total")
}

func TestImport(t *testing.T) {
	env := newTestEnv(t)
	session := env.importSession(t, sampleTelemetry)

	assert.NotEmpty(t, session.ID)
	assert.Equal(t, "analyst", session.CreatedBy)
	assert.Equal(t, "05/01/2024 - 06/01/2024", session.PeriodLabel)
	assert.Len(t, session.Records, 3)
	require.Len(t, session.Ignored, 1)
	assert.Equal(t, "9999", session.Ignored[0].ExternalID)
	require.Len(t, session.Rejected, 1)
	assert.Equal(t, 6, session.Rejected[0].Line)

	rec := env.do(t, http.MethodGet, "/api/v1/imports/"+session.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestImportErrors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.upload(t, "telemetry.pdf", "x")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.upload(t, "telemetry.csv", "name;distance\nAna;3\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/imports", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/imports/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAggregateExcludesCatchAll(t *testing.T) {
	env := newTestEnv(t)
	session := env.importSession(t, sampleTelemetry)

	rec := env.do(t, http.MethodPost, "/api/v1/imports/"+session.ID+"/aggregate", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp aggregateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Aggregates, 1)
	assert.Equal(t, "Ana", resp.Aggregates[0].CollaboratorName)
	assert.InDelta(t, 30, resp.Aggregates[0].TotalDistance, 1e-9)
	assert.InDelta(t, 15, resp.Aggregates[0].Value, 1e-9)
	assert.Equal(t, "15.00", resp.GrandTotal)

	rec = env.do(t, http.MethodPost, "/api/v1/imports/"+session.ID+"/aggregate", map[string]interface{}{"fuel_price": 6})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "18.00", resp.GrandTotal)

	rec = env.do(t, http.MethodPost, "/api/v1/imports/"+session.ID+"/aggregate", map[string]interface{}{"fuel_price": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEditRecord(t *testing.T) {
	env := newTestEnv(t)
	session := env.importSession(t, sampleTelemetry)
	path := "/api/v1/imports/" + session.ID + "/records/1/edit"

	rec := env.do(t, http.MethodPost, path, map[string]interface{}{"distance": 12.5, "reason": "odometer photo"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var record entity.StagingRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, 12.5, record.ConsideredDistance)
	assert.True(t, record.Edited)

	rec = env.do(t, http.MethodPost, path, map[string]interface{}{"distance": 5, "reason": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, path, map[string]interface{}{"distance": -1, "reason": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, path, map[string]interface{}{"reason": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/imports/"+session.ID+"/records/99/edit", map[string]interface{}{"distance": 1, "reason": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// failed edits leave the stored record as it was
	rec = env.do(t, http.MethodGet, "/api/v1/imports/"+session.ID, nil)
	var stored entity.ImportSession
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stored))
	assert.Equal(t, 12.5, stored.Records[0].ConsideredDistance)
}

func TestMerge(t *testing.T) {
	env := newTestEnv(t)
	session := env.importSession(t, sampleTelemetry)
	path := "/api/v1/imports/" + session.ID + "/merge"

	rec := env.do(t, http.MethodPost, path, map[string]interface{}{"external_id": "9999", "collaborator_id": env.ana.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Records []entity.StagingRecord `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "1001", resp.Records[0].ExternalID)
	assert.Equal(t, "9999", resp.Records[0].MergedFrom)

	rec = env.do(t, http.MethodPost, path, map[string]interface{}{"external_id": "9999", "collaborator_id": env.ana.ID})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, path, map[string]interface{}{"external_id": "9999", "collaborator_id": 4242})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaveConflictAndOverwrite(t *testing.T) {
	env := newTestEnv(t)

	first := env.importSession(t, sampleTelemetry)
	rec := env.do(t, http.MethodPost, "/api/v1/imports/"+first.ID+"/save", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// the saved session is closed
	rec = env.do(t, http.MethodGet, "/api/v1/imports/"+first.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/calculations/exists?period=05/01/2024%20-%2006/01/2024", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"exists":true`)

	second := env.importSession(t, sampleTelemetry)
	savePath := "/api/v1/imports/" + second.ID + "/save"

	rec = env.do(t, http.MethodPost, savePath, map[string]interface{}{})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, savePath, map[string]interface{}{"overwrite": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, savePath, map[string]interface{}{"overwrite": true, "overwrite_reason": "late telemetry"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var headers, audits int64
	env.db.Table("calculation_headers").Count(&headers)
	env.db.Table("audit_logs").Where("action = ?", entity.AuditCalculationOverwrite).Count(&audits)
	assert.Equal(t, int64(1), headers)
	assert.Equal(t, int64(1), audits)
}

func TestRetroactiveAbsenceFlow(t *testing.T) {
	env := newTestEnv(t)

	session := env.importSession(t, sampleTelemetry)
	rec := env.do(t, http.MethodPost, "/api/v1/imports/"+session.ID+"/save", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/v1/absences", map[string]interface{}{
		"collaborator_id": env.ana.ID, "start": "06/01/2024", "end": "06/01/2024", "reason": "Medical leave",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/v1/calculations/absence-conflicts?from=2024-01-01&to=2024-01-31", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var conflicts struct {
		Conflicts []entity.AbsenceConflict `json:"conflicts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conflicts))
	require.Len(t, conflicts.Conflicts, 1)
	assert.Equal(t, "Medical leave", conflicts.Conflicts[0].AbsenceReason)

	ids := []uint{conflicts.Conflicts[0].EntryID}
	rec = env.do(t, http.MethodPost, "/api/v1/calculations/daily-entries/zero", map[string]interface{}{"entry_ids": ids})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"affected":1`)

	rec = env.do(t, http.MethodGet, "/api/v1/calculations/absence-conflicts?from=2024-01-01&to=2024-01-31", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conflicts))
	assert.Empty(t, conflicts.Conflicts)

	rec = env.do(t, http.MethodPost, "/api/v1/calculations/daily-entries/zero", map[string]interface{}{"entry_ids": []uint{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAbsenceValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/absences", map[string]interface{}{
		"collaborator_id": env.ana.ID, "start": "10/01/2024", "end": "05/01/2024", "reason": "Vacation",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/absences", map[string]interface{}{
		"collaborator_id": 999, "start": "01/01/2024", "end": "05/01/2024", "reason": "Vacation",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/absences", map[string]interface{}{
		"collaborator_id": env.ana.ID, "start": "not a date", "end": "05/01/2024", "reason": "Vacation",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRevalidateAfterAbsence(t *testing.T) {
	env := newTestEnv(t)
	session := env.importSession(t, sampleTelemetry)

	rec := env.do(t, http.MethodPost, "/api/v1/absences", map[string]interface{}{
		"collaborator_id": env.ana.ID, "start": "2024-01-05", "end": "2024-01-05", "reason": "Vacation",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/imports/"+session.ID+"/revalidate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"changed":1`)

	rec = env.do(t, http.MethodPost, "/api/v1/imports/"+session.ID+"/revalidate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"changed":0`)

	rec = env.do(t, http.MethodGet, "/api/v1/absences", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Vacation")
}

func TestSuggestions(t *testing.T) {
	env := newTestEnv(t)

	// a past payout under 9999 identifies Ana
	require.NoError(t, env.db.Exec(
		"INSERT INTO calculation_headers (period_label, generated_by, grand_total, item_count, created_at) VALUES ('old', 'x', 0, 1, ?)", time.Now()).Error)
	require.NoError(t, env.db.Exec(
		"INSERT INTO calculation_details (header_id, collaborator_id, external_id, collaborator_name, group_name) VALUES (1, 1, '9999', 'ana', 'Vendedores')").Error)

	session := env.importSession(t, sampleTelemetry)
	rec := env.do(t, http.MethodGet, "/api/v1/imports/"+session.ID+"/suggestions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Suggestions []entity.MergeSuggestion `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Suggestions, 1)
	assert.Equal(t, env.ana.ID, resp.Suggestions[0].CollaboratorID)
	assert.Equal(t, "9999", resp.Suggestions[0].ExternalID)
}

func TestRegistryDiffAndSync(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.db.Exec("CREATE TABLE personnel (id INTEGER, name TEXT, sector TEXT, grp TEXT)").Error)
	require.NoError(t, env.db.Exec(`INSERT INTO personnel VALUES
		(1001, 'Ana', 'S1', 'Vendedores'),
		(1002, 'Bruno Lima', 'S2', 'Outros'),
		(2001, 'Dora', 'S3', 'Unknown Group'),
		(NULL, 'No Id', 'S4', 'Vendedores')`).Error)

	rec := env.do(t, http.MethodGet, "/api/v1/registry/diff", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var diff entity.DiffResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &diff))
	require.Len(t, diff.New, 1)
	assert.Equal(t, "2001", diff.New[0].ExternalID)
	assert.Equal(t, "Outros", diff.New[0].Proposed.Group)
	require.Len(t, diff.Changed, 1)
	assert.Equal(t, "1002", diff.Changed[0].ExternalID)
	assert.Equal(t, 1, diff.Skipped)

	items := append(diff.New, diff.Changed...)
	items = append(items, entity.DiffItem{Kind: entity.DiffNew, ExternalID: "1001", Proposed: entity.ExternalPersonnel{ExternalID: "1001", Name: "Ana"}})
	rec = env.do(t, http.MethodPost, "/api/v1/registry/sync", map[string]interface{}{"items": items})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result entity.SyncResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 2, result.Applied)
	require.Len(t, result.Results, 3)
	assert.False(t, result.Results[2].Applied)
	assert.NotEmpty(t, result.Results[2].Error)

	rec = env.do(t, http.MethodGet, "/api/v1/registry/diff", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &diff))
	assert.Empty(t, diff.New)
	assert.Empty(t, diff.Changed)

	rec = env.do(t, http.MethodPost, "/api/v1/registry/sync", map[string]interface{}{"items": []entity.DiffItem{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegistryDiffSourceDown(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/v1/registry/diff", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestCloseImport(t *testing.T) {
	env := newTestEnv(t)
	session := env.importSession(t, sampleTelemetry)

	rec := env.do(t, http.MethodDelete, "/api/v1/imports/"+session.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/imports/"+session.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
