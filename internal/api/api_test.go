package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modem-control/mnr/internal/auth"
	"github.com/modem-control/mnr/internal/config"
	"github.com/modem-control/mnr/internal/eventloop"
	"github.com/modem-control/mnr/internal/modem"
	"github.com/modem-control/mnr/internal/modem/fake"
	"github.com/modem-control/mnr/internal/netreg"
	"github.com/modem-control/mnr/internal/telemetry"
)

type apiFixture struct {
	mux  *http.ServeMux
	ch   *fake.Channel
	loop *eventloop.Loop
}

func newAPIFixture(t *testing.T, authMW *auth.Middleware) *apiFixture {
	t.Helper()
	loop := eventloop.New()
	t.Cleanup(loop.Stop)

	cfg := config.Default()
	ch := fake.New(loop, modem.VersionBase)
	svc := netreg.NewService(loop, ch, cfg, nil, nil, nil)
	loop.Post(svc.Start)
	loop.Sync()

	mgr := netreg.NewManager()
	mgr.Add("modem0", "sim-modem", svc)

	hub := telemetry.NewHub(cfg.Telemetry)
	t.Cleanup(hub.Stop)

	srv := NewServer(hub, mgr, authMW, cfg.API)
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)

	return &apiFixture{mux: mux, ch: ch, loop: loop}
}

func (f *apiFixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.CorrelationID)
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	f := newAPIFixture(t, nil)

	rec := f.do(http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeEnvelope(t, rec)
	assert.Equal(t, "ok", resp.Result)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "ok", data["status"])
}

func TestListModems(t *testing.T) {
	f := newAPIFixture(t, nil)

	rec := f.do(http.MethodGet, "/api/v1/modems", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeEnvelope(t, rec)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "modem0", data["activeModemId"])
	assert.Len(t, data["items"], 1)
}

func TestSelectModem(t *testing.T) {
	f := newAPIFixture(t, nil)

	rec := f.do(http.MethodPost, "/api/v1/modems/select", `{"modemId":"modem0"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/modems/select", `{"modemId":"missing"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/modems/select", `{"modemId":"modem0","extra":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterAuto(t *testing.T) {
	f := newAPIFixture(t, nil)

	f.loop.Post(func() {
		f.ch.ScriptResult(modem.ReqRegisterAuto, modem.Result{Code: modem.CodeNone})
	})
	f.loop.Sync()

	rec := f.do(http.MethodPost, "/api/v1/modems/modem0/register", `{"mode":"auto"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, "ok", resp.Result)
}

func TestRegisterManualValidation(t *testing.T) {
	f := newAPIFixture(t, nil)

	rec := f.do(http.MethodPost, "/api/v1/modems/modem0/register", `{"mode":"manual"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/modems/modem0/register", `{"mode":"teleport"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterNotSupported(t *testing.T) {
	f := newAPIFixture(t, nil)

	f.loop.Post(func() {
		f.ch.ScriptResult(modem.ReqRegisterAuto, modem.Result{Code: modem.CodeRequestNotSupported})
	})
	f.loop.Sync()

	rec := f.do(http.MethodPost, "/api/v1/modems/modem0/register", `{"mode":"auto"}`)
	require.Equal(t, http.StatusNotImplemented, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, "NOT_SUPPORTED", resp.Code)
}

func TestListOperators(t *testing.T) {
	f := newAPIFixture(t, nil)

	f.loop.Post(func() {
		f.ch.ScriptResult(modem.ReqAvailableOperators, modem.Result{
			Code: modem.CodeNone,
			Payload: []modem.Operator{
				{Name: "Vodafone", MCC: "234", MNC: "15", Status: modem.OperatorCurrent},
			},
		})
	})
	f.loop.Sync()

	rec := f.do(http.MethodGet, "/api/v1/modems/modem0/operators", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeEnvelope(t, rec)
	data := resp.Data.(map[string]interface{})
	ops := data["operators"].([]interface{})
	require.Len(t, ops, 1)
	assert.Equal(t, "Vodafone", ops[0].(map[string]interface{})["name"])
}

func TestStrength(t *testing.T) {
	f := newAPIFixture(t, nil)

	f.loop.Post(func() {
		f.ch.ScriptResult(modem.ReqSignalStrength, modem.Result{
			Code:    modem.CodeNone,
			Payload: modem.SignalReport{GSM: &modem.GSMSignal{RSSI: 25}},
		})
	})
	f.loop.Sync()

	rec := f.do(http.MethodGet, "/api/v1/modems/modem0/strength", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeEnvelope(t, rec)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(-63), data["dbm"])
	assert.Equal(t, float64(92), data["percent"])
}

func TestCurrentOperator(t *testing.T) {
	f := newAPIFixture(t, nil)

	f.loop.Post(func() {
		f.ch.ScriptResult(modem.ReqCurrentOperator, modem.Result{
			Code:    modem.CodeNone,
			Payload: modem.Operator{Name: "SimNet", MCC: "001", MNC: "01", Status: modem.OperatorCurrent},
		})
		f.ch.Indicate(modem.Indication{
			Kind: modem.IndVoiceRegState,
			Payload: modem.RegState{
				Status: modem.RegRegistered,
				Tech:   modem.TechLTE,
			},
		})
	})
	// Registration triggers an operator refresh; let the completion land.
	f.loop.Sync()
	f.loop.Sync()

	rec := f.do(http.MethodGet, "/api/v1/modems/modem0/operator", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeEnvelope(t, rec)
	data := resp.Data.(map[string]interface{})
	op := data["operator"].(map[string]interface{})
	assert.Equal(t, "SimNet", op["name"])
}

func TestStatus(t *testing.T) {
	f := newAPIFixture(t, nil)

	rec := f.do(http.MethodGet, "/api/v1/modems/modem0/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeEnvelope(t, rec)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "modem0", data["modemId"])
}

func TestUnknownModemAndEndpoint(t *testing.T) {
	f := newAPIFixture(t, nil)

	rec := f.do(http.MethodGet, "/api/v1/modems/ghost/status", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/modems/modem0/frobnicate", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthEnforcement(t *testing.T) {
	const secret = "api-test-secret"
	v, err := auth.NewHS256Verifier(secret)
	require.NoError(t, err)
	f := newAPIFixture(t, auth.NewMiddleware(v))

	// Health needs no token.
	rec := f.do(http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// Reads need a token.
	rec = f.do(http.MethodGet, "/api/v1/modems", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	readToken := signToken(t, secret, []string{auth.ScopeRead})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/modems", nil)
	req.Header.Set("Authorization", "Bearer "+readToken)
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Control endpoints reject read-only tokens.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/modems/modem0/register",
		strings.NewReader(`{"mode":"auto"}`))
	req.Header.Set("Authorization", "Bearer "+readToken)
	w = httptest.NewRecorder()
	f.mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func signToken(t *testing.T, secret string, scopes []string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":    "tester",
		"scopes": scopes,
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}
