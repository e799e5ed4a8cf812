package discovery

import (
	"fmt"

	"github.com/grandcat/zeroconf"
	"github.com/sirupsen/logrus"
)

const (
	serviceType = "_entity-receiver._udp"
	domain      = "local."
)

// Advertiser announces the UDP ingestion port over mDNS so broadcasters on
// the local network can find the receiver without manual configuration.
type Advertiser struct {
	server *zeroconf.Server
	logger *logrus.Logger
}

// NewAdvertiser registers the mDNS service and starts answering queries.
func NewAdvertiser(instance string, port int, logger *logrus.Logger) (*Advertiser, error) {
	server, err := zeroconf.Register(instance, serviceType, domain, port, []string{"version=1"}, nil)
	if err != nil {
		return nil, fmt.Errorf("registering mDNS service: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"instance": instance,
		"service":  serviceType,
		"port":     port,
	}).Info("mDNS advertisement started")

	return &Advertiser{server: server, logger: logger}, nil
}

// Shutdown withdraws the mDNS advertisement.
func (a *Advertiser) Shutdown() {
	a.server.Shutdown()
	a.logger.Info("mDNS advertisement stopped")
}
