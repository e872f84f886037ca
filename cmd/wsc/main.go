// Package main implements the WiFi Station Container entry point.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/radio-control/wsc/internal/api"
	"github.com/radio-control/wsc/internal/atcmd/serialat"
	"github.com/radio-control/wsc/internal/audit"
	"github.com/radio-control/wsc/internal/auth"
	"github.com/radio-control/wsc/internal/command"
	"github.com/radio-control/wsc/internal/config"
	"github.com/radio-control/wsc/internal/modem"
	"github.com/radio-control/wsc/internal/station"
	"github.com/radio-control/wsc/internal/station/espmock"
	"github.com/radio-control/wsc/internal/telemetry"
)

const (
	// Service configuration
	DefaultPort = "8000"
	DefaultAddr = ":" + DefaultPort
	Version     = "1.0.0"
)

func main() {
	log.Printf("Starting WiFi Station Container v%s", Version)

	// Step 1: Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Println("Configuration loaded successfully")

	// Step 2: Initialize telemetry hub
	telemetryHub := telemetry.NewHub(cfg)
	if telemetryHub == nil {
		log.Fatal("Failed to create telemetry hub")
	}
	log.Println("Telemetry hub initialized")

	// Step 3: Initialize audit logger
	auditLogger, err := audit.NewLogger("logs")
	if err != nil {
		log.Fatalf("Failed to initialize audit logger: %v", err)
	}
	log.Println("Audit logger initialized")

	// Step 4: Initialize modem manager and register configured modems
	modemManager := modem.NewManager()
	closers := registerModems(cfg, modemManager)
	log.Printf("Modem manager initialized with %d modem(s)", len(modemManager.List().Items))

	// The ready event carries the current inventory snapshot
	telemetryHub.SetSnapshotFunc(func() (string, []interface{}) {
		list := modemManager.List()
		items := make([]interface{}, len(list.Items))
		for i, m := range list.Items {
			items[i] = m
		}
		return list.ActiveModemID, items
	})

	// Step 5: Create command orchestrator
	orchestrator := command.NewOrchestrator(telemetryHub, cfg, modemManager)
	orchestrator.SetAuditLogger(auditLogger)

	// Step 6: Create API server, with auth when a verifier is configured
	server := buildServer(telemetryHub, orchestrator, modemManager)
	log.Println("API server created")

	// Step 7: Start HTTP server
	addr := getServerAddress()
	log.Printf("Starting HTTP server on %s", addr)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(addr); err != nil {
			serverErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	// Wait a moment for server to start
	time.Sleep(100 * time.Millisecond)

	log.Printf("WiFi Station Container started successfully")
	log.Printf("Health endpoint: http://localhost%s/api/v1/health", addr)
	log.Printf("API base URL: http://localhost%s/api/v1", addr)

	// Set up graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		log.Printf("Received signal %v, initiating graceful shutdown...", sig)
	case err := <-serverErr:
		log.Printf("Server error: %v", err)
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	telemetryHub.Stop()
	log.Println("Telemetry hub stopped")

	if err := auditLogger.Close(); err != nil {
		log.Printf("Error closing audit logger: %v", err)
	}
	log.Println("Audit logger closed")

	for _, c := range closers {
		if err := c(); err != nil {
			log.Printf("Error closing modem channel: %v", err)
		}
	}

	if err := server.Stop(ctx); err != nil {
		log.Printf("Error stopping HTTP server: %v", err)
	} else {
		log.Println("HTTP server stopped gracefully")
	}

	log.Println("WiFi Station Container shutdown complete")
}

// registerModems wires each configured modem to a command channel and
// registers the resulting station adapter. It returns closers for the
// opened serial channels.
func registerModems(cfg *config.TimingConfig, manager *modem.Manager) []func() error {
	var closers []func() error

	modems := cfg.Modems
	if len(modems) == 0 {
		// No inventory configured, fall back to the default serial device
		modems = []config.ModemConfig{{
			ID:     "modem-0",
			Model:  "ESP32-AT",
			Device: cfg.Serial.Device,
			Baud:   cfg.Serial.Baud,
		}}
	}

	for _, mc := range modems {
		if mc.Mock {
			mock := espmock.NewESPMock()
			if err := manager.Register(mc.ID, mc.Model, station.New(mock, mock)); err != nil {
				log.Printf("Failed to register mock modem %s: %v", mc.ID, err)
			} else {
				log.Printf("Registered mock modem %s", mc.ID)
			}
			continue
		}

		ch, err := serialat.Open(serialat.Options{
			Device:          mc.Device,
			Baud:            mc.Baud,
			ReadTimeout:     cfg.Serial.ReadTimeout,
			ExchangeTimeout: cfg.Serial.ExchangeTimeout,
		})
		if err != nil {
			log.Printf("Failed to open modem %s on %s: %v", mc.ID, mc.Device, err)
			continue
		}

		if err := manager.Register(mc.ID, mc.Model, station.New(ch, ch)); err != nil {
			log.Printf("Failed to register modem %s: %v", mc.ID, err)
			_ = ch.Close()
			continue
		}

		closers = append(closers, ch.Close)
		log.Printf("Registered modem %s on %s @ %d baud", mc.ID, mc.Device, mc.Baud)
	}

	return closers
}

// buildServer assembles the API server, enabling JWT auth when verifier
// settings are present in the environment.
func buildServer(hub *telemetry.Hub, orchestrator *command.Orchestrator, manager *modem.Manager) *api.Server {
	verifierCfg := auth.VerifierConfig{
		Algorithm:    os.Getenv("WSC_JWT_ALG"),
		SecretKey:    os.Getenv("WSC_JWT_SECRET"),
		PublicKeyPEM: os.Getenv("WSC_JWT_PUBLIC_KEY"),
	}

	if verifierCfg.Algorithm != "" {
		verifier, err := auth.NewVerifier(verifierCfg)
		if err != nil {
			log.Fatalf("Failed to configure JWT verifier: %v", err)
		}
		middleware := auth.NewMiddlewareWithVerifier(verifier)
		log.Printf("JWT authentication enabled (%s)", verifierCfg.Algorithm)
		return api.NewServerWithAuth(hub, orchestrator, manager, middleware, 30*time.Second, 30*time.Second, 120*time.Second)
	}

	log.Println("JWT authentication disabled, using development token fixtures")
	return api.NewServerWithAuth(hub, orchestrator, manager, auth.NewMiddleware(), 30*time.Second, 30*time.Second, 120*time.Second)
}

// getServerAddress returns the server address from environment or default.
func getServerAddress() string {
	if addr := os.Getenv("WSC_ADDR"); addr != "" {
		return addr
	}
	return DefaultAddr
}
