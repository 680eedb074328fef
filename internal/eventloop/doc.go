// Package eventloop provides the single-threaded cooperative run loop the
// registration subsystem executes on.
//
// All subsystem state is confined to one loop goroutine: radio channel
// completions, indications, timers and host-facing callbacks are delivered as
// posted work, so components never observe partial mutation and need no
// locking. Two scheduling primitives are offered: Post for deferred work
// (zero-delay, used to coalesce notification bursts) and After for timers.
package eventloop
