// Package netreg tracks network registration state and drives the
// registration operations of a modem.
//
// The Service is event-loop confined: every operation and every indication
// handler runs on the subsystem loop. State changes from the voice and data
// domains are folded into one effective snapshot by the Tracker, which
// coalesces bursts of updates into a single deferred notification and applies
// the home-network roaming override. Blocking wrappers with context support
// bridge the HTTP layer onto the loop.
package netreg
