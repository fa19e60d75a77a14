package httpapi

import (
	"net/http"

	"fuelrefund-service/internal/domain/entity"

	"github.com/gin-gonic/gin"
)

type syncRequest struct {
	Items []entity.DiffItem `json:"items" binding:"required,min=1,dive"`
}

// RegistryDiff compares the external personnel source with the registry
func (h *Handler) RegistryDiff() gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := h.masterData.Diff(c.Request.Context())
		if err != nil {
			h.fail(c, "registry_diff", err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// RegistrySync applies the selected diff items
func (h *Handler) RegistrySync() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req syncRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "items must be a non-empty list of diff items")
			return
		}
		result, err := h.masterData.Sync(c.Request.Context(), req.Items, actorFrom(c))
		if err != nil {
			h.fail(c, "registry_sync", err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
