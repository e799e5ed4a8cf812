package handlers

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/haedwin/entity-receiver-go/pkg/errors"
	"github.com/haedwin/entity-receiver-go/pkg/utils"
)

// GetEntities returns a snapshot of every tracked entity.
func (h *Handlers) GetEntities(c *gin.Context) {
	entities := h.core.ListAll()

	meta := gin.H{
		"count":     len(entities),
		"listening": h.core.IsListening(),
	}
	utils.SendSuccessWithMeta(c, entities, meta)
}

// GetEntity returns the current record for one entity id.
func (h *Handlers) GetEntity(c *gin.Context) {
	entityID := c.Param("id")

	record, ok := h.core.Get(entityID)
	if !ok {
		utils.SendAppError(c, apperrors.WithDetails(apperrors.ErrNotFound, entityID))
		return
	}
	utils.SendSuccess(c, record)
}
