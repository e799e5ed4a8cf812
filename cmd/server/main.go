package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/haedwin/entity-receiver-go/internal/api"
	"github.com/haedwin/entity-receiver-go/internal/config"
	"github.com/haedwin/entity-receiver-go/internal/core/receiver"
	"github.com/haedwin/entity-receiver-go/internal/discovery"
	"github.com/haedwin/entity-receiver-go/internal/websocket"
	"github.com/haedwin/entity-receiver-go/pkg/logger"
)

func main() {
	// Initialize logger
	log := logger.New()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	logger.SetLevel(log, cfg.Logging.Level)

	// Fail fast on a taken port, before anything else is wired up
	if err := receiver.CheckPortAvailable(cfg.Receiver.UDPPort); err != nil {
		log.Fatal("UDP port check failed:", err)
	}

	// Create the ingestion core
	core := receiver.NewService(receiver.Options{
		Port:          cfg.Receiver.UDPPort,
		BufferSize:    cfg.Receiver.BufferSize,
		PollInterval:  cfg.Receiver.PollIntervalDuration(),
		SweepInterval: cfg.Receiver.SweepIntervalDuration(),
		StaleAfter:    cfg.Receiver.StaleAfterDuration(),
	}, log)

	// Create WebSocket hub and forward receiver events to it
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()

	wsHub := websocket.NewHub(log)
	go wsHub.Run(hubCtx)

	forwarder := websocket.NewEventForwarder(wsHub, core, log)
	forwarder.Start()

	// Start the UDP listener
	if err := core.Start(); err != nil {
		log.Fatal("Failed to start UDP listener:", err)
	}

	// Advertise the ingestion port over mDNS
	var advertiser *discovery.Advertiser
	if cfg.Discovery.Enabled {
		advertiser, err = discovery.NewAdvertiser(cfg.Discovery.Instance, cfg.Receiver.UDPPort, log)
		if err != nil {
			log.WithError(err).Warn("Failed to start mDNS advertisement")
		}
	}

	// Initialize router
	router := api.NewRouter(cfg, core, log, wsHub)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("Starting Entity Receiver API on port %d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")

	core.Stop()
	forwarder.Stop()
	if advertiser != nil {
		advertiser.Shutdown()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Info("Server exited")
}
