package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"fuelrefund-service/internal/domain/entity"
	"fuelrefund-service/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const maxUploadSizeBytes int64 = 20 * 1024 * 1024

type editRequest struct {
	Distance *float64 `json:"distance" binding:"required"`
	Reason   string   `json:"reason"`
}

type saveRequest struct {
	PeriodLabel     string                   `json:"period_label"`
	Overwrite       bool                     `json:"overwrite"`
	OverwriteReason string                   `json:"overwrite_reason"`
	Pricing         *usecase.PricingOverride `json:"pricing,omitempty"`
}

type aggregateResponse struct {
	PeriodLabel string                         `json:"period_label"`
	Aggregates  []entity.CollaboratorAggregate `json:"aggregates"`
	GrandTotal  string                         `json:"grand_total"`
}

// Import stages an uploaded telemetry file in a new session
func (h *Handler) Import() gin.HandlerFunc {
	return func(c *gin.Context) {
		header, err := c.FormFile("file")
		if err != nil {
			badRequest(c, "multipart field \"file\" is required")
			return
		}
		if header.Size > maxUploadSizeBytes {
			badRequest(c, "file too large")
			return
		}

		file, err := header.Open()
		if err != nil {
			h.fail(c, "import", err)
			return
		}
		defer file.Close()

		session, err := h.imports.Import(c.Request.Context(), header.Filename, file, actorFrom(c))
		if err != nil {
			h.fail(c, "import", err)
			return
		}
		c.JSON(http.StatusCreated, session)
	}
}

// GetImport returns a session with its records, ignored groups and rejected rows
func (h *Handler) GetImport() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := h.imports.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			h.fail(c, "get_import", err)
			return
		}
		c.JSON(http.StatusOK, session)
	}
}

// CloseImport discards a session
func (h *Handler) CloseImport() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.imports.Close(c.Request.Context(), c.Param("id")); err != nil {
			h.fail(c, "close_import", err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// EditRecord overrides the considered distance of a staging record
func (h *Handler) EditRecord() gin.HandlerFunc {
	return func(c *gin.Context) {
		recordID, err := strconv.Atoi(c.Param("recordId"))
		if err != nil {
			badRequest(c, "invalid record id")
			return
		}
		var req editRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request: distance is required")
			return
		}

		record, err := h.imports.Edit(c.Request.Context(), c.Param("id"), usecase.EditCommand{
			RecordID: recordID,
			Distance: *req.Distance,
			Reason:   req.Reason,
		})
		if err != nil {
			h.fail(c, "edit_record", err)
			return
		}
		c.JSON(http.StatusOK, record)
	}
}

// Merge moves an ignored external id under a registered collaborator
func (h *Handler) Merge() gin.HandlerFunc {
	return func(c *gin.Context) {
		var cmd usecase.MergeCommand
		if err := c.ShouldBindJSON(&cmd); err != nil {
			badRequest(c, "invalid request")
			return
		}
		records, err := h.imports.Merge(c.Request.Context(), c.Param("id"), cmd)
		if err != nil {
			h.fail(c, "merge", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"records": records})
	}
}

// Suggestions lists merge proposals for the ignored ids of a session
func (h *Handler) Suggestions() gin.HandlerFunc {
	return func(c *gin.Context) {
		suggestions, err := h.imports.Suggestions(c.Request.Context(), c.Param("id"))
		if err != nil {
			h.fail(c, "suggestions", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
	}
}

// Revalidate re-applies the current absences to a session
func (h *Handler) Revalidate() gin.HandlerFunc {
	return func(c *gin.Context) {
		changed, err := h.imports.Revalidate(c.Request.Context(), c.Param("id"))
		if err != nil {
			h.fail(c, "revalidate", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"changed": changed})
	}
}

// Aggregate prices a session, optionally with a per-run pricing override
func (h *Handler) Aggregate() gin.HandlerFunc {
	return func(c *gin.Context) {
		override, ok := bindOptionalOverride(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		session, err := h.imports.Get(ctx, c.Param("id"))
		if err != nil {
			h.fail(c, "aggregate", err)
			return
		}
		aggregates, err := h.imports.Aggregate(ctx, session.ID, override)
		if err != nil {
			h.fail(c, "aggregate", err)
			return
		}
		c.JSON(http.StatusOK, aggregateResponse{
			PeriodLabel: session.PeriodLabel,
			Aggregates:  aggregates,
			GrandTotal:  grandTotal(aggregates),
		})
	}
}

// Save aggregates a session and persists it as the calculation of its
// period. The session is closed once the calculation is stored.
func (h *Handler) Save() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req saveRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			badRequest(c, "invalid request")
			return
		}

		ctx := c.Request.Context()
		sessionID := c.Param("id")
		session, err := h.imports.Get(ctx, sessionID)
		if err != nil {
			h.fail(c, "save_calculation", err)
			return
		}
		aggregates, err := h.imports.Aggregate(ctx, sessionID, req.Pricing)
		if err != nil {
			h.fail(c, "save_calculation", err)
			return
		}

		label := strings.TrimSpace(req.PeriodLabel)
		if label == "" {
			label = session.PeriodLabel
		}
		calc, err := h.calculations.Save(ctx, usecase.SaveCommand{
			PeriodLabel:     label,
			GeneratedBy:     actorFrom(c),
			Aggregates:      aggregates,
			Overwrite:       req.Overwrite,
			OverwriteReason: req.OverwriteReason,
		})
		if err != nil {
			h.fail(c, "save_calculation", err)
			return
		}

		if err := h.imports.Close(ctx, sessionID); err != nil {
			h.logger.Warn("Failed to close saved session", "session", sessionID, "error", err)
		}
		c.JSON(http.StatusCreated, calc)
	}
}

func bindOptionalOverride(c *gin.Context) (*usecase.PricingOverride, bool) {
	var override usecase.PricingOverride
	if err := c.ShouldBindJSON(&override); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, true
		}
		badRequest(c, "invalid pricing override")
		return nil, false
	}
	return &override, true
}

func grandTotal(aggregates []entity.CollaboratorAggregate) string {
	var total float64
	for _, a := range aggregates {
		total += a.Value
	}
	return decimal.NewFromFloat(total).StringFixed(2)
}
