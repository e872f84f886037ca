//
//
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/radio-control/wsc/internal/auth"
)

// RegisterRoutes registers all v1 endpoints.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// API v1 base path
	apiV1 := "/api/v1"

	// Health endpoint (no auth required)
	mux.HandleFunc(apiV1+"/health", s.handleHealth)

	// If no auth middleware, register routes without protection
	if s.authMiddleware == nil {
		// Capabilities endpoint
		mux.HandleFunc(apiV1+"/capabilities", s.handleCapabilities)

		// Modems endpoints
		mux.HandleFunc(apiV1+"/modems", s.handleModems)
		mux.HandleFunc(apiV1+"/modems/select", s.handleSelectModem)

		// Modem-specific endpoints (join, link, persistence, individual modem)
		mux.HandleFunc(apiV1+"/modems/", s.handleModemEndpoints)

		// Telemetry endpoint
		mux.HandleFunc(apiV1+"/telemetry", s.handleTelemetry)
		return
	}

	// Register routes with authentication and authorization
	// Capabilities endpoint (viewer access)
	mux.HandleFunc(apiV1+"/capabilities", s.authMiddleware.RequireAuth(s.authMiddleware.RequireScope(auth.ScopeRead)(s.handleCapabilities)))

	// Modems endpoints (viewer access)
	mux.HandleFunc(apiV1+"/modems", s.authMiddleware.RequireAuth(s.authMiddleware.RequireScope(auth.ScopeRead)(s.handleModems)))

	// Select modem endpoint (controller access)
	mux.HandleFunc(apiV1+"/modems/select", s.authMiddleware.RequireAuth(s.authMiddleware.RequireScope(auth.ScopeControl)(s.handleSelectModem)))

	// Modem-specific endpoints (join, link, persistence, individual modem)
	mux.HandleFunc(apiV1+"/modems/", s.handleModemEndpoints)

	// Telemetry endpoint (viewer access)
	mux.HandleFunc(apiV1+"/telemetry", s.authMiddleware.RequireAuth(s.authMiddleware.RequireScope(auth.ScopeTelemetry)(s.handleTelemetry)))
}

// handleCapabilities handles GET /capabilities
func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only GET method is allowed", nil)
		return
	}

	// Return capabilities
	capabilities := map[string]interface{}{
		"telemetry": []string{"sse"},
		"commands":  []string{"http-json"},
		"version":   "1.0.0",
	}

	WriteSuccess(w, capabilities)
}

// handleModems handles GET /modems
func (s *Server) handleModems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only GET method is allowed", nil)
		return
	}

	// Fetch modems from the manager
	if s.modemManager == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE",
			"Modem manager not available", nil)
		return
	}

	list := s.modemManager.List()
	WriteSuccess(w, list)
}

// handleSelectModem handles POST /modems/select
func (s *Server) handleSelectModem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only POST method is allowed", nil)
		return
	}

	// Parse request (strict JSON)
	var req struct {
		ModemID string `json:"modemId"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Malformed JSON or unknown fields", nil)
		return
	}
	// Trailing data check
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Trailing data after JSON object", nil)
		return
	}

	// Ensure services available
	if s.modemManager == nil || s.orchestrator == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Service not available", nil)
		return
	}

	// Call orchestrator to confirm selection (probes the command channel)
	if err := s.orchestrator.SelectModem(r.Context(), req.ModemID); err != nil {
		status, body := ToAPIError(err)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write(body)
		return
	}

	WriteSuccess(w, map[string]string{"activeModemId": req.ModemID})
}

// handleModemEndpoints handles all modem-specific endpoints.
// Routes to appropriate handler based on path.
func (s *Server) handleModemEndpoints(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	// Extract modem ID and determine endpoint type
	modemID := s.extractModemID(path)
	if modemID == "" {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST",
			"Modem ID is required", nil)
		return
	}

	// Apply authentication and authorization based on endpoint type
	if s.authMiddleware != nil {
		// Route based on path suffix with appropriate auth
		if strings.HasSuffix(path, "/join") {
			// Join requires control scope
			s.authMiddleware.RequireAuth(s.authMiddleware.RequireScope(auth.ScopeControl)(s.handleModemJoin))(w, r)
		} else if strings.HasSuffix(path, "/link") {
			// Link state requires read scope
			s.authMiddleware.RequireAuth(s.authMiddleware.RequireScope(auth.ScopeRead)(s.handleModemLink))(w, r)
		} else if strings.HasSuffix(path, "/persistence") {
			// Persistence requires control scope
			s.authMiddleware.RequireAuth(s.authMiddleware.RequireScope(auth.ScopeControl)(s.handleModemPersistence))(w, r)
		} else {
			// Individual modem endpoint requires read scope
			s.authMiddleware.RequireAuth(s.authMiddleware.RequireScope(auth.ScopeRead)(s.handleModemByID))(w, r)
		}
	} else {
		// No auth middleware, route directly
		if strings.HasSuffix(path, "/join") {
			s.handleModemJoin(w, r)
		} else if strings.HasSuffix(path, "/link") {
			s.handleModemLink(w, r)
		} else if strings.HasSuffix(path, "/persistence") {
			s.handleModemPersistence(w, r)
		} else {
			// Default to individual modem endpoint
			s.handleModemByID(w, r)
		}
	}
}

// handleModemByID handles GET /modems/{id}
func (s *Server) handleModemByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only GET method is allowed", nil)
		return
	}

	modemID := s.extractModemID(r.URL.Path)
	if modemID == "" {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST",
			"Modem ID is required", nil)
		return
	}

	if s.modemManager == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE",
			"Modem manager not available", nil)
		return
	}

	m, err := s.modemManager.GetModem(modemID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "Modem not found", nil)
		return
	}

	WriteSuccess(w, m)
}

// handleModemJoin handles POST /modems/{id}/join
func (s *Server) handleModemJoin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only POST method is allowed", nil)
		return
	}

	modemID := s.extractModemID(r.URL.Path)
	if modemID == "" {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST",
			"Modem ID is required", nil)
		return
	}

	// Parse request body (strict JSON)
	var request struct {
		SSID string `json:"ssid"`
		Key  string `json:"key"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&request); err != nil {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST",
			"Malformed JSON or unknown fields", nil)
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Trailing data after JSON object", nil)
		return
	}

	if s.orchestrator == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Service not available", nil)
		return
	}

	link, err := s.orchestrator.Join(r.Context(), modemID, request.SSID, request.Key)
	if err != nil {
		status, body := ToAPIError(err)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write(body)
		return
	}
	WriteSuccess(w, map[string]interface{}{"ssid": request.SSID, "link": link})
}

// handleModemLink handles GET /modems/{id}/link
func (s *Server) handleModemLink(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only GET method is allowed", nil)
		return
	}

	modemID := s.extractModemID(r.URL.Path)
	if modemID == "" {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST",
			"Modem ID is required", nil)
		return
	}

	if s.orchestrator == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Service not available", nil)
		return
	}

	link, err := s.orchestrator.GetLinkState(r.Context(), modemID)
	if err != nil {
		status, body := ToAPIError(err)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write(body)
		return
	}
	WriteSuccess(w, link)
}

// handleModemPersistence handles POST /modems/{id}/persistence
func (s *Server) handleModemPersistence(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only POST method is allowed", nil)
		return
	}

	modemID := s.extractModemID(r.URL.Path)
	if modemID == "" {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST",
			"Modem ID is required", nil)
		return
	}

	// Parse request body (strict JSON)
	var request struct {
		Persist *bool `json:"persist"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&request); err != nil {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST",
			"Malformed JSON or unknown fields", nil)
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Trailing data after JSON object", nil)
		return
	}

	if request.Persist == nil {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST",
			"Field persist must be provided", nil)
		return
	}

	if s.orchestrator == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Service not available", nil)
		return
	}

	if err := s.orchestrator.SetPersistence(r.Context(), modemID, *request.Persist); err != nil {
		status, body := ToAPIError(err)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write(body)
		return
	}
	WriteSuccess(w, map[string]interface{}{"persist": *request.Persist})
}

// handleTelemetry handles GET /telemetry (SSE)
func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only GET method is allowed", nil)
		return
	}

	// Wire to Telemetry Hub Subscribe
	if s.telemetryHub == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE",
			"Telemetry service not available", nil)
		return
	}

	// Subscribe to telemetry stream
	ctx := r.Context()
	if err := s.telemetryHub.Subscribe(ctx, w, r); err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL",
			"Failed to subscribe to telemetry stream", nil)
		return
	}
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only GET method is allowed", nil)
		return
	}

	// Calculate uptime
	uptime := 0.0
	if !s.startTime.IsZero() {
		uptime = time.Since(s.startTime).Seconds()
	}

	// Check subsystem health
	subsystems := s.checkSubsystemHealth()

	// Determine overall health status
	overallStatus := "ok"
	if !subsystems["telemetry"] || !subsystems["orchestrator"] || !subsystems["modemManager"] {
		overallStatus = "degraded"
	}

	health := map[string]interface{}{
		"status":     overallStatus,
		"uptimeSec":  uptime,
		"version":    "1.0.0",
		"subsystems": subsystems,
	}

	// Return appropriate HTTP status based on health
	if overallStatus == "ok" {
		WriteSuccess(w, health)
	} else {
		// Return 503 Service Unavailable for degraded health
		// Pass health data as details so it's available in the error response
		WriteError(w, http.StatusServiceUnavailable, "SERVICE_DEGRADED",
			"One or more subsystems are unavailable", health)
	}
}

// checkSubsystemHealth checks the health of all subsystems.
func (s *Server) checkSubsystemHealth() map[string]bool {
	subsystems := make(map[string]bool)

	// Check telemetry hub
	subsystems["telemetry"] = s.telemetryHub != nil

	// Check orchestrator
	subsystems["orchestrator"] = s.orchestrator != nil

	// Check modem manager
	subsystems["modemManager"] = s.modemManager != nil

	// Check auth middleware (optional, so always true if not required)
	subsystems["auth"] = true

	return subsystems
}

// extractModemID extracts the modem ID from a URL path.
// Handles paths like /api/v1/modems/{id}/join, /api/v1/modems/{id}/link, etc.
func (s *Server) extractModemID(path string) string {
	// Remove /api/v1/modems/ prefix
	prefix := "/api/v1/modems/"
	if !strings.HasPrefix(path, prefix) {
		return ""
	}

	// Get the part after the prefix
	remaining := path[len(prefix):]

	// Split by '/' to get the modem ID (first part)
	parts := strings.Split(remaining, "/")
	if len(parts) == 0 {
		return ""
	}

	modemID := parts[0]
	if modemID == "" {
		return ""
	}

	return modemID
}
