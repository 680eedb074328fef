// Package main implements the modem network registration service entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modem-control/mnr/internal/api"
	"github.com/modem-control/mnr/internal/audit"
	"github.com/modem-control/mnr/internal/auth"
	"github.com/modem-control/mnr/internal/config"
	"github.com/modem-control/mnr/internal/eventloop"
	"github.com/modem-control/mnr/internal/modem/sim"
	"github.com/modem-control/mnr/internal/netreg"
	"github.com/modem-control/mnr/internal/normalize"
	"github.com/modem-control/mnr/internal/provdb"
	"github.com/modem-control/mnr/internal/telemetry"
)

const Version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file")
	flag.Parse()

	log.Printf("Starting modem network registration service v%s", Version)

	// Step 1: Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Println("Configuration loaded successfully")

	// Step 2: Initialize telemetry hub
	hub := telemetry.NewHub(cfg.Telemetry)
	log.Println("Telemetry hub initialized")

	// Step 3: Initialize audit logger
	auditLogger, err := audit.NewLogger(cfg.Audit)
	if err != nil {
		log.Fatalf("Failed to initialize audit logger: %v", err)
	}
	log.Println("Audit logger initialized")

	// Step 4: Open the operator-name database, if configured
	var lookup normalize.Lookup
	if cfg.ProvisionDB != "" {
		db, err := provdb.Open(cfg.ProvisionDB)
		if err != nil {
			log.Fatalf("Failed to open provisioning database: %v", err)
		}
		defer db.Close()
		lookup = db
		log.Printf("Provisioning database opened: %s", cfg.ProvisionDB)
	}

	// Step 5: Start the subsystem event loop and the simulated modem
	loop := eventloop.New()
	simModem := sim.New(loop, sim.DefaultOptions())

	svc := netreg.NewService(loop, simModem, cfg, simModem, lookup, &hubNotifier{hub: hub, modemID: "modem0"})
	loop.Post(svc.Start)
	loop.Sync()

	manager := netreg.NewManager()
	manager.Add("modem0", "sim-modem", svc)
	log.Println("Modem manager initialized")

	// Step 6: Create the API server
	authMW, err := buildAuth(cfg)
	if err != nil {
		log.Fatalf("Failed to configure authentication: %v", err)
	}
	server := api.NewServer(hub, manager, authMW, cfg.API)
	server.SetAuditLogger(auditLogger)
	log.Println("API server created")

	// Step 7: Start HTTP server
	log.Printf("Starting HTTP server on %s", cfg.API.Addr)
	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			serverErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	log.Printf("Service started; health endpoint: http://localhost%s/api/v1/health", cfg.API.Addr)

	// Graceful shutdown on signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		log.Printf("Received signal %v, initiating graceful shutdown...", sig)
	case err := <-serverErr:
		log.Printf("Server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.Printf("Error stopping HTTP server: %v", err)
	} else {
		log.Println("HTTP server stopped gracefully")
	}

	loop.Post(func() {
		svc.Stop()
		simModem.Stop()
	})
	loop.Sync()
	loop.Stop()
	log.Println("Event loop stopped")

	hub.Stop()
	log.Println("Telemetry hub stopped")

	if err := auditLogger.Close(); err != nil {
		log.Printf("Error closing audit logger: %v", err)
	}

	log.Println("Shutdown complete")
}

func buildAuth(cfg *config.Config) (*auth.Middleware, error) {
	switch {
	case cfg.API.AuthSecret != "":
		v, err := auth.NewHS256Verifier(cfg.API.AuthSecret)
		if err != nil {
			return nil, err
		}
		return auth.NewMiddleware(v), nil
	case cfg.API.AuthPublicKey != "":
		v, err := auth.NewRS256Verifier(cfg.API.AuthPublicKey)
		if err != nil {
			return nil, err
		}
		return auth.NewMiddleware(v), nil
	default:
		log.Println("Authentication disabled: no secret or public key configured")
		return auth.NewMiddleware(nil), nil
	}
}

// hubNotifier publishes registration-subsystem state changes as telemetry
// events scoped to one modem.
type hubNotifier struct {
	hub     *telemetry.Hub
	modemID string
}

func (n *hubNotifier) RegistrationChanged(snap netreg.Snapshot) {
	n.hub.PublishModem(n.modemID, telemetry.Event{
		Type: telemetry.EventRegistration,
		Data: map[string]interface{}{
			"status": snap.Status.String(),
			"tech":   snap.Tech.String(),
			"lac":    snap.LAC,
			"cellId": snap.CellID,
			"operator": map[string]interface{}{
				"name": snap.Operator.Name,
				"mcc":  snap.Operator.MCC,
				"mnc":  snap.Operator.MNC,
			},
		},
	})
}

func (n *hubNotifier) SignalStrengthChanged(dbm, percent int) {
	n.hub.PublishModem(n.modemID, telemetry.Event{
		Type: telemetry.EventSignal,
		Data: map[string]interface{}{"dbm": dbm, "percent": percent},
	})
}

func (n *hubNotifier) NetworkTime(nt netreg.NetworkTime) {
	n.hub.PublishModem(n.modemID, telemetry.Event{
		Type: telemetry.EventNetworkTime,
		Data: map[string]interface{}{
			"time":      nt.Time.Format(time.RFC3339),
			"utcOffset": nt.UTCOffset,
			"dst":       nt.DST,
		},
	})
}

var _ netreg.Notifier = (*hubNotifier)(nil)
