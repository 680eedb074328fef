// Package scan implements the operator-discovery protocol.
//
// A scan session first issues the legacy operator query. When the modem
// reports the query unsupported and the negotiated protocol version allows
// it, the session falls back to the incremental network scan: partial results
// accumulate from indications until the modem signals completion or the hard
// timeout fires, and a stop request is sent once the scan was started. At
// most one session exists per subsystem instance; a newer request supersedes
// the old one by failing its callback first.
package scan
