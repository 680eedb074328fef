// Package audit implements the audit logger for the modem control service.
//
// The audit logger provides append-only action logging with user, modemId,
// parameters, outcome, and timestamp information for compliance and
// debugging. Entries are JSON lines; the underlying file rotates by size and
// age.
package audit
