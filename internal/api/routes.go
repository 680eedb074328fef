package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/modem-control/mnr/internal/audit"
	"github.com/modem-control/mnr/internal/auth"
	"github.com/modem-control/mnr/internal/modem"
	"github.com/modem-control/mnr/internal/netreg"
	"github.com/modem-control/mnr/internal/telemetry"
)

// RegisterRoutes registers all v1 endpoints.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	apiV1 := "/api/v1"

	// Health and metrics carry no auth.
	mux.HandleFunc(apiV1+"/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc(apiV1+"/modems", s.protected(auth.ScopeRead, s.handleModems))
	mux.HandleFunc(apiV1+"/modems/select", s.protected(auth.ScopeControl, s.handleSelectModem))
	mux.HandleFunc(apiV1+"/modems/", s.handleModemEndpoints)
	mux.HandleFunc(apiV1+"/telemetry", s.protected(auth.ScopeTelemetry, s.handleTelemetry))
}

// protected wraps a handler with authentication plus a scope requirement.
func (s *Server) protected(scope string, h http.HandlerFunc) http.HandlerFunc {
	if s.auth == nil {
		return h
	}
	return s.auth.RequireAuth(s.auth.RequireScope(scope)(h))
}

// handleModemEndpoints routes /modems/{id}/... by path suffix, each with the
// scope its operation needs.
func (s *Server) handleModemEndpoints(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case strings.HasSuffix(path, "/status"):
		s.protected(auth.ScopeRead, s.handleStatus)(w, r)
	case strings.HasSuffix(path, "/strength"):
		s.protected(auth.ScopeRead, s.handleStrength)(w, r)
	case strings.HasSuffix(path, "/operator"):
		s.protected(auth.ScopeRead, s.handleOperator)(w, r)
	case strings.HasSuffix(path, "/operators"):
		s.protected(auth.ScopeControl, s.handleOperators)(w, r)
	case strings.HasSuffix(path, "/register"):
		s.protected(auth.ScopeControl, s.handleRegister)(w, r)
	default:
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "Unknown modem endpoint", nil)
	}
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only GET method is allowed", nil)
		return
	}

	subsystems := map[string]bool{
		"telemetry": s.hub != nil,
		"modems":    s.modems != nil,
	}
	status := "ok"
	for _, up := range subsystems {
		if !up {
			status = "degraded"
		}
	}

	health := map[string]interface{}{
		"status":     status,
		"uptimeSec":  time.Since(s.startTime).Seconds(),
		"version":    "1.0.0",
		"subsystems": subsystems,
	}
	if status != "ok" {
		WriteError(w, http.StatusServiceUnavailable, "SERVICE_DEGRADED",
			"One or more subsystems are unavailable", health)
		return
	}
	WriteSuccess(w, health)
}

// handleModems handles GET /modems
func (s *Server) handleModems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only GET method is allowed", nil)
		return
	}
	WriteSuccess(w, s.modems.List())
}

// handleSelectModem handles POST /modems/select
func (s *Server) handleSelectModem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only POST method is allowed", nil)
		return
	}

	var req struct {
		ModemID string `json:"modemId"`
	}
	if !decodeStrict(w, r, &req) {
		return
	}

	err := s.modems.SetActive(req.ModemID)
	s.audit(r, audit.ActionSelectModem, req.ModemID, nil, err)
	if err != nil {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "Modem not found", nil)
		return
	}
	WriteSuccess(w, map[string]string{"activeModemId": req.ModemID})
}

// handleStatus handles GET /modems/{id}/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	svc, modemID, ok := s.modemFor(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only GET method is allowed", nil)
		return
	}

	snap, err := svc.SnapshotCtx(r.Context())
	if err != nil {
		WriteOperationError(w, err)
		return
	}
	WriteSuccess(w, map[string]interface{}{"modemId": modemID, "registration": snap})
}

// handleStrength handles GET /modems/{id}/strength
func (s *Server) handleStrength(w http.ResponseWriter, r *http.Request) {
	svc, modemID, ok := s.modemFor(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only GET method is allowed", nil)
		return
	}

	res, err := svc.StrengthCtx(r.Context())
	s.audit(r, audit.ActionStrength, modemID, nil, err)
	if err != nil {
		WriteOperationError(w, err)
		return
	}
	WriteSuccess(w, res)
}

// handleOperator handles GET /modems/{id}/operator
func (s *Server) handleOperator(w http.ResponseWriter, r *http.Request) {
	svc, modemID, ok := s.modemFor(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only GET method is allowed", nil)
		return
	}

	snap, err := svc.SnapshotCtx(r.Context())
	if err != nil {
		WriteOperationError(w, err)
		return
	}
	WriteSuccess(w, map[string]interface{}{"modemId": modemID, "operator": snap.Operator})
}

// handleOperators handles GET /modems/{id}/operators
func (s *Server) handleOperators(w http.ResponseWriter, r *http.Request) {
	svc, modemID, ok := s.modemFor(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only GET method is allowed", nil)
		return
	}

	ops, err := svc.ListOperatorsCtx(r.Context())
	s.audit(r, audit.ActionListOperators, modemID, nil, err)
	if err != nil {
		s.publishFault(modemID, audit.ActionListOperators, err)
		WriteOperationError(w, err)
		return
	}
	s.hub.PublishModem(modemID, telemetry.Event{
		Type: telemetry.EventScanComplete,
		Data: map[string]interface{}{"count": len(ops)},
	})
	WriteSuccess(w, map[string]interface{}{"operators": ops})
}

// handleRegister handles POST /modems/{id}/register
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	svc, modemID, ok := s.modemFor(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodPost {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only POST method is allowed", nil)
		return
	}

	var req struct {
		Mode          string `json:"mode"`
		MCC           string `json:"mcc,omitempty"`
		MNC           string `json:"mnc,omitempty"`
		PreferredTech string `json:"preferredTech,omitempty"`
	}
	if !decodeStrict(w, r, &req) {
		return
	}

	switch req.Mode {
	case "auto":
		err := svc.RegisterAutoCtx(r.Context())
		s.audit(r, audit.ActionRegisterAuto, modemID, nil, err)
		if err != nil {
			s.publishFault(modemID, audit.ActionRegisterAuto, err)
			WriteOperationError(w, err)
			return
		}
		WriteSuccess(w, map[string]string{"mode": "auto"})

	case "manual":
		if req.MCC == "" || req.MNC == "" {
			WriteError(w, http.StatusBadRequest, "BAD_REQUEST",
				"Manual registration requires mcc and mnc", nil)
			return
		}
		params := modem.RegisterManualParams{
			MCC:           req.MCC,
			MNC:           req.MNC,
			PreferredTech: techFromString(req.PreferredTech),
		}
		err := svc.RegisterManualCtx(r.Context(), params)
		s.audit(r, audit.ActionRegisterManual, modemID,
			map[string]interface{}{"mcc": req.MCC, "mnc": req.MNC}, err)
		if err != nil {
			s.publishFault(modemID, audit.ActionRegisterManual, err)
			WriteOperationError(w, err)
			return
		}
		WriteSuccess(w, map[string]string{"mode": "manual", "mcc": req.MCC, "mnc": req.MNC})

	default:
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST",
			`Mode must be "auto" or "manual"`, nil)
	}
}

// handleTelemetry handles GET /telemetry (SSE)
func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only GET method is allowed", nil)
		return
	}
	if err := s.hub.Subscribe(r.Context(), w, r); err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL",
			"Failed to subscribe to telemetry stream", nil)
	}
}

// modemFor resolves the modem service named in the path.
func (s *Server) modemFor(w http.ResponseWriter, r *http.Request) (*netreg.Service, string, bool) {
	modemID := extractModemID(r.URL.Path)
	if modemID == "" {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Modem ID is required", nil)
		return nil, "", false
	}
	svc, err := s.modems.Get(modemID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "Modem not found", nil)
		return nil, "", false
	}
	return svc, modemID, true
}

// decodeStrict parses the body as strict JSON: unknown fields and trailing
// data are rejected.
func decodeStrict(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST",
			"Malformed JSON or unknown fields", nil)
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST",
			"Trailing data after JSON object", nil)
		return false
	}
	return true
}

// publishFault surfaces a failed control action on the telemetry stream.
func (s *Server) publishFault(modemID, action string, err error) {
	s.hub.PublishModem(modemID, telemetry.Event{
		Type: telemetry.EventFault,
		Data: map[string]interface{}{"action": action, "error": err.Error()},
	})
}

func (s *Server) audit(r *http.Request, action, modemID string, params map[string]interface{}, err error) {
	if s.auditLog == nil {
		return
	}
	ctx := context.Background()
	if claims := auth.GetClaimsFromRequest(r); claims != nil {
		ctx = audit.WithUser(ctx, claims.Subject)
	}
	s.auditLog.LogAction(ctx, action, modemID, params, err)
}

// extractModemID pulls the modem ID out of /api/v1/modems/{id}/... paths.
func extractModemID(path string) string {
	const prefix = "/api/v1/modems/"
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	rest := path[len(prefix):]
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

func techFromString(s string) modem.AccessTech {
	switch strings.ToLower(s) {
	case "gsm":
		return modem.TechGSM
	case "umts":
		return modem.TechUMTS
	case "lte":
		return modem.TechLTE
	case "nr":
		return modem.TechNR
	default:
		return modem.TechUnknown
	}
}
