// Package api implements the HTTP control surface of the modem control
// service.
//
// All endpoints respond with a unified JSON envelope carrying a correlation
// ID. Registration and operator discovery are control-scoped; status and
// strength reads are read-scoped; the SSE stream is telemetry-scoped. The
// Prometheus endpoint bypasses the envelope.
package api
