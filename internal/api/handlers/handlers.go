package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/haedwin/entity-receiver-go/internal/config"
	"github.com/haedwin/entity-receiver-go/internal/core/receiver"
)

// Handlers holds the dependencies the HTTP surface reads from. It is a thin
// adapter over the receiver's public interface and adds no logic of its own.
type Handlers struct {
	cfg  *config.Config
	core *receiver.Service
	log  *logrus.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(cfg *config.Config, core *receiver.Service, log *logrus.Logger) *Handlers {
	return &Handlers{
		cfg:  cfg,
		core: core,
		log:  log,
	}
}
