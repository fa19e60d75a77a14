// Package app wires configuration, stores and usecases for the binaries.
package app

import (
	"context"
	"fmt"

	"fuelrefund-service/internal/domain/repository"
	"fuelrefund-service/internal/infrastructure/config"
	"fuelrefund-service/internal/infrastructure/lock"
	"fuelrefund-service/internal/infrastructure/persistence"
	"fuelrefund-service/internal/infrastructure/router"
	"fuelrefund-service/internal/interface/httpapi"
	repo "fuelrefund-service/internal/interface/repository"
	"fuelrefund-service/internal/interface/telemetry"
	"fuelrefund-service/internal/usecase"
	"fuelrefund-service/pkg/logger"
	"fuelrefund-service/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
)

// App holds every long-lived dependency of the service
type App struct {
	Config   *config.Config
	Rules    usecase.Rules
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	DB            *gorm.DB
	Collaborators repository.CollaboratorRepository
	Absences      repository.AbsenceRepository

	Imports      *usecase.ImportService
	Calculations *usecase.CalculationService
	MasterData   *usecase.MasterDataService

	logger  logger.Logger
	closers []func(context.Context) error
}

// New connects every configured store and builds the usecases. Optional
// stores fall back to in-process implementations when not configured.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	rules, err := cfg.Rules()
	if err != nil {
		return nil, fmt.Errorf("invalid business rules: %w", err)
	}

	a := &App{
		Config:   cfg,
		Rules:    rules,
		Registry: prometheus.NewRegistry(),
		logger:   log,
	}
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.NewMetricsWith(a.Registry, cfg.MetricsNamespace)

	log.Info("Connecting to PostgreSQL")
	db, err := persistence.NewPostgres(cfg.PostgresURI)
	if err != nil {
		return nil, err
	}
	a.DB = db
	a.closers = append(a.closers, func(context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})

	sessions, err := a.sessionRepository(ctx)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	locker, err := a.locker(ctx)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	source, err := a.personnelSource()
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	a.Collaborators = repo.NewGormCollaboratorRepository(db)
	a.Absences = repo.NewGormAbsenceRepository(db)
	calculations := repo.NewGormCalculationRepository(db)
	audit := usecase.NewAuditTrail(repo.NewGormAuditRepository(db), a.Metrics, log)

	formats := router.NewFormatRouter(log)
	formats.Register(telemetry.NewCSVReader())
	formats.Register(telemetry.NewXLSXReader())

	a.Imports = usecase.NewImportService(formats, a.Collaborators, a.Absences, calculations, sessions, rules, a.Metrics, log)
	a.Calculations = usecase.NewCalculationService(calculations, a.Absences, locker, audit, rules, a.Metrics, log)
	a.MasterData = usecase.NewMasterDataService(source, a.Collaborators, locker, audit, rules, a.Metrics, log)
	return a, nil
}

// Migrate creates or updates the relational schema
func (a *App) Migrate() error {
	return repo.AutoMigrate(a.DB)
}

// Handler builds the HTTP API on top of the usecases
func (a *App) Handler() *httpapi.Handler {
	return httpapi.NewHandler(a.Imports, a.Calculations, a.MasterData, a.Collaborators, a.Absences, a.logger)
}

// Close releases every connection in reverse order of creation
func (a *App) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Error("Failed to close connection", "error", err)
		}
	}
	a.closers = nil
}

func (a *App) sessionRepository(ctx context.Context) (repository.SessionRepository, error) {
	if a.Config.MongoURI == "" {
		a.logger.Warn("MONGODB_DSN not set, import sessions are kept in memory")
		return repo.NewMemorySessionRepository(), nil
	}

	a.logger.Info("Connecting to MongoDB")
	client, err := persistence.NewMongoClient(ctx, a.Config.MongoURI, a.Config.MongoUser, a.Config.MongoPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	a.closers = append(a.closers, func(ctx context.Context) error {
		return client.Disconnect(ctx)
	})
	return repo.NewMongoSessionRepository(client.Database(a.Config.MongoDB)), nil
}

func (a *App) locker(ctx context.Context) (repository.Locker, error) {
	if a.Config.RedisAddress == "" {
		a.logger.Warn("REDIS_ADDRESS not set, write locks are local to this process")
		return lock.NewLocalLocker(), nil
	}

	a.logger.Info("Connecting to Redis", "address", a.Config.RedisAddress)
	rdb, err := persistence.NewRedisClient(ctx, a.Config.RedisAddress, a.Config.RedisPassword)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error {
		return rdb.Close()
	})
	return lock.NewRedisLocker(rdb, a.Config.LockTTL, a.logger), nil
}

func (a *App) personnelSource() (repository.PersonnelSource, error) {
	if a.Config.ExternalMySQLDSN == "" {
		a.logger.Warn("EXTERNAL_MYSQL_DSN not set, registry diff is unavailable")
		return unconfiguredSource{}, nil
	}

	db, err := persistence.NewExternalMySQL(a.Config.ExternalMySQLDSN)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})
	return repo.NewGormPersonnelSource(db, a.Config.ExternalPersonnelQuery), nil
}

type unconfiguredSource struct{}

func (unconfiguredSource) QueryPersonnel(ctx context.Context) ([]map[string]interface{}, error) {
	return nil, fmt.Errorf("external personnel source is not configured")
}
