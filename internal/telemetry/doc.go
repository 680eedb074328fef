// Package telemetry distributes subsystem events to SSE clients.
//
// The hub keeps a circular buffer per modem so a reconnecting client can
// resume from its Last-Event-ID, and sends heartbeats while clients are
// connected. Publishing never blocks the event loop: slow clients drop
// events.
package telemetry
