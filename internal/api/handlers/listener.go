package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/haedwin/entity-receiver-go/pkg/errors"
	"github.com/haedwin/entity-receiver-go/pkg/utils"
)

// GetListenerStatus reports the receiver's lifecycle state.
func (h *Handlers) GetListenerStatus(c *gin.Context) {
	utils.SendSuccess(c, gin.H{
		"enabled":   h.core.IsEnabled(),
		"listening": h.core.IsListening(),
		"udp_port":  h.cfg.Receiver.UDPPort,
	})
}

// EnableListener turns the UDP listener on. A bind failure is reported to
// the caller; the receiver does not retry on its own.
func (h *Handlers) EnableListener(c *gin.Context) {
	if err := h.core.Enable(); err != nil {
		h.log.WithError(err).Error("Failed to enable UDP listener")
		utils.SendAppError(c, apperrors.New(http.StatusConflict, err.Error()))
		return
	}
	utils.SendSuccess(c, gin.H{
		"enabled":   true,
		"listening": h.core.IsListening(),
	})
}

// DisableListener turns the UDP listener off. Registry contents survive;
// only the staleness sweeper removes entries.
func (h *Handlers) DisableListener(c *gin.Context) {
	h.core.Disable()
	utils.SendSuccess(c, gin.H{
		"enabled":   false,
		"listening": false,
	})
}
