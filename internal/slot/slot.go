// Package slot enforces the one-outstanding-request-per-slot discipline.
//
// A slot names a logical operation ("register", "strength"). Submitting to an
// occupied slot first drops the previous request: the channel is asked to
// abandon it and its completion is never invoked. Only the replacement's
// completion fires. The table is event-loop confined.
package slot

import (
	"github.com/modem-control/mnr/internal/modem"
)

// Well-known slot names.
const (
	Register = "register"
	Operator = "operator"
	Strength = "strength"
)

// Table holds at most one in-flight request handle per named slot.
type Table struct {
	ch    modem.Channel
	slots map[string]modem.Handle
}

// NewTable creates an empty slot table over the given channel.
func NewTable(ch modem.Channel) *Table {
	return &Table{
		ch:    ch,
		slots: make(map[string]modem.Handle),
	}
}

// Submit drops any request held by the slot, then submits req. On a submit
// rejection the slot is left empty and the error is returned synchronously;
// done is not invoked. On acceptance the handle is retained until done fires
// or the slot is dropped again.
func (t *Table) Submit(name string, req modem.Request, done modem.Completion) error {
	t.Drop(name)

	var h modem.Handle
	h, err := t.ch.Submit(req, func(res modem.Result) {
		// A stale completion can only arrive if the channel violated its
		// cancel contract; guard the slot against it anyway.
		if t.slots[name] == h {
			delete(t.slots, name)
		}
		done(res)
	})
	if err != nil {
		return err
	}

	t.slots[name] = h
	return nil
}

// Held reports whether the slot currently holds an in-flight request.
func (t *Table) Held(name string) bool {
	return t.slots[name].Valid()
}

// Drop releases the slot's request, if any, without invoking its completion.
// The underlying operation is best-effort cancelled.
func (t *Table) Drop(name string) {
	if h, ok := t.slots[name]; ok {
		delete(t.slots, name)
		t.ch.Cancel(h)
	}
}

// DropAll releases every slot. Used on teardown and modem reset.
func (t *Table) DropAll() {
	for name := range t.slots {
		t.Drop(name)
	}
}
