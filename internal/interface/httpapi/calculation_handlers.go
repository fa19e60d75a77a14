package httpapi

import (
	"net/http"
	"strings"

	"fuelrefund-service/internal/domain/entity"
	"fuelrefund-service/pkg/utils"

	"github.com/gin-gonic/gin"
)

type zeroRequest struct {
	EntryIDs []uint `json:"entry_ids" binding:"required,min=1"`
}

type absenceRequest struct {
	CollaboratorID uint   `json:"collaborator_id" binding:"required"`
	Start          string `json:"start" binding:"required"`
	End            string `json:"end" binding:"required"`
	Reason         string `json:"reason" binding:"required"`
}

// CalculationExists reports whether a period was already saved
func (h *Handler) CalculationExists() gin.HandlerFunc {
	return func(c *gin.Context) {
		period := strings.TrimSpace(c.Query("period"))
		if period == "" {
			badRequest(c, "query parameter period is required")
			return
		}
		exists, err := h.calculations.Exists(c.Request.Context(), period)
		if err != nil {
			h.fail(c, "calculation_exists", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"period": period, "exists": exists})
	}
}

// ZeroDailyEntries zeroes saved entries that fall in a retroactive absence
func (h *Handler) ZeroDailyEntries() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req zeroRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "entry_ids is required")
			return
		}
		affected, err := h.calculations.ZeroDailyEntries(c.Request.Context(), req.EntryIDs, actorFrom(c))
		if err != nil {
			h.fail(c, "zero_daily_entries", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"affected": affected})
	}
}

// AbsenceConflicts lists saved entries inside an absence of their collaborator
func (h *Handler) AbsenceConflicts() gin.HandlerFunc {
	return func(c *gin.Context) {
		from, ok := utils.ParseFlexibleDate(c.Query("from"))
		if !ok {
			badRequest(c, "query parameter from must be a date")
			return
		}
		to, ok := utils.ParseFlexibleDate(c.Query("to"))
		if !ok {
			badRequest(c, "query parameter to must be a date")
			return
		}
		conflicts, err := h.calculations.AbsenceConflicts(c.Request.Context(), from, to)
		if err != nil {
			h.fail(c, "absence_conflicts", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"conflicts": conflicts})
	}
}

// ListAbsences returns every registered absence period
func (h *Handler) ListAbsences() gin.HandlerFunc {
	return func(c *gin.Context) {
		absences, err := h.absences.List(c.Request.Context())
		if err != nil {
			h.fail(c, "list_absences", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"absences": absences})
	}
}

// CreateAbsence registers an absence period for a collaborator
func (h *Handler) CreateAbsence() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req absenceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "collaborator_id, start, end and reason are required")
			return
		}
		start, ok := utils.ParseFlexibleDate(req.Start)
		if !ok {
			badRequest(c, "start must be a date")
			return
		}
		end, ok := utils.ParseFlexibleDate(req.End)
		if !ok {
			badRequest(c, "end must be a date")
			return
		}

		ctx := c.Request.Context()
		if _, err := h.collaborators.FindByID(ctx, req.CollaboratorID); err != nil {
			h.fail(c, "create_absence", err)
			return
		}

		absence := &entity.AbsencePeriod{
			CollaboratorID: req.CollaboratorID,
			Start:          start,
			End:            end,
			Reason:         req.Reason,
		}
		if err := h.absences.Create(ctx, absence); err != nil {
			h.fail(c, "create_absence", err)
			return
		}
		h.logger.Info("Absence registered",
			"collaborator", absence.CollaboratorID,
			"start", utils.DateKey(start),
			"end", utils.DateKey(end),
			"actor", actorFrom(c))
		c.JSON(http.StatusCreated, absence)
	}
}
