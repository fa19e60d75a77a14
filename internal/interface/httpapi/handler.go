// Package httpapi exposes the reconciliation pipeline over HTTP with gin.
package httpapi

import (
	"net/http"
	"strings"

	"fuelrefund-service/internal/domain/repository"
	"fuelrefund-service/internal/usecase"
	apperrors "fuelrefund-service/pkg/errors"
	"fuelrefund-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ActorHeader carries the authenticated user id set by the gateway
const ActorHeader = "X-Actor"

// Handler serves the API routes
type Handler struct {
	imports       *usecase.ImportService
	calculations  *usecase.CalculationService
	masterData    *usecase.MasterDataService
	collaborators repository.CollaboratorRepository
	absences      repository.AbsenceRepository
	logger        logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(
	imports *usecase.ImportService,
	calculations *usecase.CalculationService,
	masterData *usecase.MasterDataService,
	collaborators repository.CollaboratorRepository,
	absences repository.AbsenceRepository,
	logger logger.Logger,
) *Handler {
	return &Handler{
		imports:       imports,
		calculations:  calculations,
		masterData:    masterData,
		collaborators: collaborators,
		absences:      absences,
		logger:        logger,
	}
}

// NewRouter builds the gin engine with health, metrics and API routes
func NewRouter(h *Handler, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "Healthy")
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api/v1")

	imports := api.Group("/imports")
	imports.POST("", h.Import())
	imports.GET("/:id", h.GetImport())
	imports.DELETE("/:id", h.CloseImport())
	imports.POST("/:id/records/:recordId/edit", h.EditRecord())
	imports.POST("/:id/merge", h.Merge())
	imports.GET("/:id/suggestions", h.Suggestions())
	imports.POST("/:id/revalidate", h.Revalidate())
	imports.POST("/:id/aggregate", h.Aggregate())
	imports.POST("/:id/save", h.Save())

	calculations := api.Group("/calculations")
	calculations.GET("/exists", h.CalculationExists())
	calculations.POST("/daily-entries/zero", h.ZeroDailyEntries())
	calculations.GET("/absence-conflicts", h.AbsenceConflicts())

	api.GET("/absences", h.ListAbsences())
	api.POST("/absences", h.CreateAbsence())

	registry := api.Group("/registry")
	registry.GET("/diff", h.RegistryDiff())
	registry.POST("/sync", h.RegistrySync())

	return r
}

func actorFrom(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(ActorHeader))
}

// statusFor maps the error taxonomy to HTTP status codes
func statusFor(err error) int {
	switch {
	case apperrors.IsInputError(err), apperrors.IsValidationError(err):
		return http.StatusBadRequest
	case apperrors.IsNotFound(err):
		return http.StatusNotFound
	case apperrors.IsConflict(err):
		return http.StatusConflict
	case apperrors.IsConnectivity(err):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (h *Handler) fail(c *gin.Context, operation string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "operation", operation, "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}
