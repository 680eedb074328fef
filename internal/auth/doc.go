// Package auth implements authentication and authorization for the modem
// control service.
//
// The auth package validates bearer tokens and enforces scopes for modem
// operations, supporting read, control and telemetry permissions. Tokens are
// JWTs signed with HS256 (shared secret) or RS256 (PEM public key).
package auth
