package receiver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Options configures a Service. Zero fields fall back to the defaults the
// original receiver shipped with.
type Options struct {
	Port          int
	BufferSize    int
	PollInterval  time.Duration
	SweepInterval time.Duration
	StaleAfter    time.Duration
}

func (o *Options) applyDefaults() {
	if o.BufferSize <= 0 {
		o.BufferSize = 4096
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 100 * time.Millisecond
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = 30 * time.Second
	}
	if o.StaleAfter <= 0 {
		o.StaleAfter = 10 * time.Minute
	}
}

// StartError reports a failure to bind the ingestion socket. It is the only
// error the receiver propagates to its caller; per-datagram errors are
// absorbed internally.
type StartError struct {
	Port int
	Err  error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("starting UDP listener on port %d: %v", e.Port, e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

// Service is the entity-state ingestion core: it owns the UDP socket, the
// registry, the staleness sweeper, and the observer hub, and exposes the
// enable/disable lifecycle the switch adapter drives.
type Service struct {
	opts   Options
	logger *logrus.Logger

	registry *Registry
	hub      *ObserverHub

	mu         sync.Mutex
	enabled    bool
	conn       *net.UDPConn
	cancel     context.CancelFunc
	listenDone chan struct{}
	sweepDone  chan struct{}
}

// NewService creates a receiver in the Enabled-Stopped state; nothing is
// bound until Start is called.
func NewService(opts Options, logger *logrus.Logger) *Service {
	opts.applyDefaults()
	return &Service{
		opts:     opts,
		logger:   logger,
		registry: NewRegistry(),
		hub:      NewObserverHub(logger),
		enabled:  true,
	}
}

// Registry returns the live registry. Adapters use it for snapshot reads.
func (s *Service) Registry() *Registry { return s.registry }

// Subscribe registers an observer for the given event kind.
func (s *Service) Subscribe(kind EventKind, obs Observer) *Subscription {
	return s.hub.Subscribe(kind, obs)
}

// Get returns the current record for entityID.
func (s *Service) Get(entityID string) (*EntityRecord, bool) {
	return s.registry.Get(entityID)
}

// ListAll returns a snapshot of all tracked entities.
func (s *Service) ListAll() map[string]*EntityRecord {
	return s.registry.ListAll()
}

// IsEnabled reports whether the receiver is enabled.
func (s *Service) IsEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// IsListening reports whether the receiver is enabled, the socket is open,
// and the receive loop is still running.
func (s *Service) IsListening() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isListeningLocked()
}

func (s *Service) isListeningLocked() bool {
	if !s.enabled || s.conn == nil || s.listenDone == nil {
		return false
	}
	select {
	case <-s.listenDone:
		return false
	default:
		return true
	}
}

// LocalAddr returns the bound socket address, or nil when stopped. Useful
// when the configured port is 0 and the OS picked one.
func (s *Service) LocalAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// Start binds the socket and launches the receive loop and the sweeper. It
// is a no-op when the receiver is disabled or already running. A bind
// failure is returned as a *StartError; the receiver does not retry.
func (s *Service) Start() error {
	return s.start(true)
}

func (s *Service) start(notify bool) error {
	s.mu.Lock()
	if !s.enabled {
		s.mu.Unlock()
		s.logger.Debug("Receiver is disabled, not starting UDP listener")
		return nil
	}
	if s.conn != nil {
		s.mu.Unlock()
		return nil
	}

	conn, err := bindUDP(s.opts.Port)
	if err != nil {
		s.mu.Unlock()
		s.logger.WithError(err).Errorf("Failed to start UDP listener on port %d", s.opts.Port)
		return &StartError{Port: s.opts.Port, Err: err}
	}

	ctx, cancel := context.WithCancel(context.Background())
	listenDone := make(chan struct{})
	sweepDone := make(chan struct{})

	s.conn = conn
	s.cancel = cancel
	s.listenDone = listenDone
	s.sweepDone = sweepDone

	lst := &listener{
		conn:    conn,
		logger:  s.logger,
		handle:  s.handleDatagram,
		poll:    s.opts.PollInterval,
		bufSize: s.opts.BufferSize,
	}
	swp := &sweeper{
		registry:   s.registry,
		hub:        s.hub,
		logger:     s.logger,
		interval:   s.opts.SweepInterval,
		staleAfter: s.opts.StaleAfter,
	}

	go func() {
		defer close(listenDone)
		lst.run(ctx)
	}()
	go func() {
		defer close(sweepDone)
		swp.run(ctx)
	}()
	s.mu.Unlock()

	s.logger.WithField("addr", conn.LocalAddr().String()).Info("Started UDP listener")
	if notify {
		s.publishStatus()
	}
	return nil
}

// Stop cancels both loops, waits for them to finish, and closes the socket.
// No receive is in flight once Stop returns. Calling Stop when already
// stopped is a no-op.
func (s *Service) Stop() {
	s.stop(true)
}

func (s *Service) stop(notify bool) {
	s.mu.Lock()
	if s.conn == nil {
		s.mu.Unlock()
		return
	}
	conn := s.conn
	cancel := s.cancel
	listenDone := s.listenDone
	sweepDone := s.sweepDone
	s.conn = nil
	s.cancel = nil
	s.listenDone = nil
	s.sweepDone = nil
	s.mu.Unlock()

	cancel()
	// Wake a receive blocked inside its poll window.
	conn.SetReadDeadline(time.Now())
	<-listenDone
	<-sweepDone
	conn.Close()

	s.logger.Info("Stopped UDP listener")
	if notify {
		s.publishStatus()
	}
}

// Enable turns the receiver on and attempts to start it. A status event is
// published whenever the enabled flag or the effective listening state
// changed, so UI observers are never left stale.
func (s *Service) Enable() error {
	s.mu.Lock()
	wasEnabled := s.enabled
	wasListening := s.isListeningLocked()
	s.enabled = true
	s.mu.Unlock()

	var err error
	if !wasEnabled {
		err = s.start(false)
	}
	if !wasEnabled || wasListening != s.IsListening() {
		s.publishStatus()
	}
	return err
}

// Disable stops the receiver and flips it off. Disabling an already
// disabled receiver produces no event.
func (s *Service) Disable() {
	s.mu.Lock()
	wasEnabled := s.enabled
	s.enabled = false
	s.mu.Unlock()

	if !wasEnabled {
		return
	}
	s.stop(false)
	s.publishStatus()
}

// SetEnabled flips the receiver to the requested state.
func (s *Service) SetEnabled(enabled bool) error {
	if enabled {
		return s.Enable()
	}
	s.Disable()
	return nil
}

func (s *Service) publishStatus() {
	s.hub.Publish(Event{Kind: EventStatusChanged, Listening: s.IsListening()})
}

// handleDatagram runs on the receive goroutine for every inbound datagram.
// A bad datagram is logged and dropped; it never affects later ones.
func (s *Service) handleDatagram(payload []byte, addr *net.UDPAddr) {
	metricDatagramsReceived.Inc()
	sourceIP := addr.IP.String()

	record, err := decodeDatagram(payload, sourceIP, time.Now())
	if err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			metricDatagramsRejected.WithLabelValues("validation").Inc()
		} else {
			metricDatagramsRejected.WithLabelValues("decode").Inc()
		}
		s.logger.WithField("source_ip", sourceIP).WithError(err).Warn("Discarding datagram")
		return
	}

	added := s.registry.Upsert(record)
	metricEntitiesTracked.Set(float64(s.registry.Len()))

	kind := EventEntityUpdated
	if added {
		kind = EventEntityAdded
	}
	s.hub.Publish(Event{Kind: kind, EntityID: record.EntityID})

	s.logger.WithFields(logrus.Fields{
		"entity_id": record.EntityID,
		"state":     record.State,
		"source_ip": sourceIP,
	}).Debug("Received entity update")
}
