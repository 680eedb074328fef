// Package fake provides a scripted radio channel for testing.
//
// Responses are programmed per request kind; unscripted requests stay pending
// until completed or cancelled explicitly, which lets tests drive the
// multi-step scan protocol one completion at a time.
package fake

import (
	"fmt"

	"github.com/modem-control/mnr/internal/eventloop"
	"github.com/modem-control/mnr/internal/modem"
)

// Channel implements modem.Channel with scripted completions. All mutation
// happens on the owning event loop; tests interact through Post/Sync.
type Channel struct {
	loop    *eventloop.Loop
	version int

	scripts   map[modem.RequestKind]func(modem.Request) modem.Result
	rejects   map[modem.RequestKind]error
	pending   map[modem.Handle]pendingRequest
	listeners map[int]func(modem.Indication)
	nextLis   int

	// Submitted records every accepted request in order.
	Submitted []modem.Request
	// Cancelled records every cancelled handle.
	Cancelled []modem.Handle
}

type pendingRequest struct {
	req  modem.Request
	done modem.Completion
}

// New creates a fake channel at the given protocol version.
func New(loop *eventloop.Loop, version int) *Channel {
	return &Channel{
		loop:      loop,
		version:   version,
		scripts:   make(map[modem.RequestKind]func(modem.Request) modem.Result),
		rejects:   make(map[modem.RequestKind]error),
		pending:   make(map[modem.Handle]pendingRequest),
		listeners: make(map[int]func(modem.Indication)),
	}
}

// Script auto-completes requests of the given kind with the result fn returns.
func (c *Channel) Script(kind modem.RequestKind, fn func(modem.Request) modem.Result) {
	c.scripts[kind] = fn
}

// ScriptResult auto-completes requests of the given kind with a fixed result.
func (c *Channel) ScriptResult(kind modem.RequestKind, res modem.Result) {
	c.Script(kind, func(modem.Request) modem.Result { return res })
}

// Reject makes Submit fail synchronously for the given kind.
func (c *Channel) Reject(kind modem.RequestKind, err error) {
	c.rejects[kind] = err
}

// Version returns the negotiated protocol version.
func (c *Channel) Version() int {
	return c.version
}

// Submit accepts the request and, if scripted, posts its completion.
func (c *Channel) Submit(req modem.Request, done modem.Completion) (modem.Handle, error) {
	if err, ok := c.rejects[req.Kind]; ok {
		return modem.NoHandle, err
	}

	h := modem.NewHandle()
	c.Submitted = append(c.Submitted, req)
	c.pending[h] = pendingRequest{req: req, done: done}

	if fn, ok := c.scripts[req.Kind]; ok {
		res := fn(req)
		c.loop.Post(func() { c.complete(h, res) })
	}
	return h, nil
}

// Cancel abandons a pending request; its completion never fires.
func (c *Channel) Cancel(h modem.Handle) {
	if _, ok := c.pending[h]; ok {
		delete(c.pending, h)
		c.Cancelled = append(c.Cancelled, h)
	}
}

// Listen registers an indication listener.
func (c *Channel) Listen(fn func(modem.Indication)) func() {
	id := c.nextLis
	c.nextLis++
	c.listeners[id] = fn
	return func() { delete(c.listeners, id) }
}

// Complete finishes the oldest pending request of the given kind. Panics if
// none is pending, which in tests means the scenario script is wrong.
func (c *Channel) Complete(kind modem.RequestKind, res modem.Result) {
	h, ok := c.oldestPending(kind)
	if !ok {
		panic(fmt.Sprintf("fake: no pending %v request", kind))
	}
	c.complete(h, res)
}

// PendingCount returns how many requests of the given kind are in flight.
func (c *Channel) PendingCount(kind modem.RequestKind) int {
	n := 0
	for _, p := range c.pending {
		if p.req.Kind == kind {
			n++
		}
	}
	return n
}

// SubmittedCount returns how many requests of the given kind were accepted.
func (c *Channel) SubmittedCount(kind modem.RequestKind) int {
	n := 0
	for _, r := range c.Submitted {
		if r.Kind == kind {
			n++
		}
	}
	return n
}

// Indicate delivers an indication to all listeners.
func (c *Channel) Indicate(ind modem.Indication) {
	for _, fn := range c.listeners {
		fn(ind)
	}
}

func (c *Channel) complete(h modem.Handle, res modem.Result) {
	p, ok := c.pending[h]
	if !ok {
		// Cancelled while the completion was queued.
		return
	}
	delete(c.pending, h)
	p.done(res)
}

func (c *Channel) oldestPending(kind modem.RequestKind) (modem.Handle, bool) {
	// Map order is fine here: tests keep at most one request per kind
	// in flight, matching the slot discipline under test.
	for h, p := range c.pending {
		if p.req.Kind == kind {
			return h, true
		}
	}
	return modem.NoHandle, false
}
