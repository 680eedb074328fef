// Package channeltest provides implementation-agnostic conformance testing
// for radio channel implementations.
//
// Every channel implementation must satisfy the same contract: completions
// fire exactly once and never synchronously from Submit, cancelled requests
// never complete, and removed listeners stop receiving indications. Run the
// suite from the implementation's own test package.
package channeltest

import (
	"testing"
	"time"

	"github.com/modem-control/mnr/internal/eventloop"
	"github.com/modem-control/mnr/internal/modem"
)

// Factory builds a fresh channel under test on the given loop. The channel
// must complete a ReqSignalStrength request on its own.
type Factory func(loop *eventloop.Loop) modem.Channel

// RunConformance runs the channel contract suite against the implementation.
func RunConformance(t *testing.T, newChannel Factory) {
	t.Run("CompletionIsAsynchronous", func(t *testing.T) {
		loop := eventloop.New()
		defer loop.Stop()
		ch := newChannel(loop)

		loop.Post(func() {
			completed := false
			_, err := ch.Submit(modem.Request{Kind: modem.ReqSignalStrength}, func(modem.Result) {
				completed = true
			})
			if err != nil {
				t.Errorf("submit failed: %v", err)
				return
			}
			if completed {
				t.Error("completion fired synchronously from Submit")
			}
		})
		loop.Sync()
	})

	t.Run("CompletionFiresExactlyOnce", func(t *testing.T) {
		loop := eventloop.New()
		defer loop.Stop()
		ch := newChannel(loop)

		count := 0
		done := make(chan struct{}, 1)
		loop.Post(func() {
			_, err := ch.Submit(modem.Request{Kind: modem.ReqSignalStrength}, func(modem.Result) {
				count++
				done <- struct{}{}
			})
			if err != nil {
				t.Errorf("submit failed: %v", err)
			}
		})

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("request never completed")
		}
		// Give a duplicate completion a chance to surface.
		time.Sleep(20 * time.Millisecond)
		loop.Sync()
		if count != 1 {
			t.Fatalf("completion fired %d times", count)
		}
	})

	t.Run("CancelSuppressesCompletion", func(t *testing.T) {
		loop := eventloop.New()
		defer loop.Stop()
		ch := newChannel(loop)

		fired := false
		loop.Post(func() {
			h, err := ch.Submit(modem.Request{Kind: modem.ReqSignalStrength}, func(modem.Result) {
				fired = true
			})
			if err != nil {
				t.Errorf("submit failed: %v", err)
				return
			}
			ch.Cancel(h)
		})
		time.Sleep(50 * time.Millisecond)
		loop.Sync()
		if fired {
			t.Fatal("completion fired after cancel")
		}
	})

	t.Run("RemovedListenerStopsReceiving", func(t *testing.T) {
		loop := eventloop.New()
		defer loop.Stop()
		ch := newChannel(loop)

		received := 0
		loop.Post(func() {
			remove := ch.Listen(func(modem.Indication) { received++ })
			remove()
		})
		loop.Sync()

		// Drive some activity that may produce indications.
		loop.Post(func() {
			_, _ = ch.Submit(modem.Request{Kind: modem.ReqRegisterAuto}, func(modem.Result) {})
		})
		time.Sleep(50 * time.Millisecond)
		loop.Sync()
		if received != 0 {
			t.Fatalf("removed listener received %d indications", received)
		}
	})

	t.Run("VersionIsStable", func(t *testing.T) {
		loop := eventloop.New()
		defer loop.Stop()
		ch := newChannel(loop)

		v := ch.Version()
		if v < modem.VersionBase {
			t.Fatalf("version %d below minimum", v)
		}
		if ch.Version() != v {
			t.Fatal("version changed between calls")
		}
	})
}
