package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/haedwin/entity-receiver-go/pkg/utils"
)

// Health reports service liveness and the receiver's status.
func (h *Handlers) Health(c *gin.Context) {
	utils.SendSuccess(c, gin.H{
		"status":    "ok",
		"listening": h.core.IsListening(),
		"entities":  len(h.core.ListAll()),
	})
}
