package eventloop

import (
	"sync"
	"time"
)

// Loop runs posted callbacks sequentially on a single goroutine.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	done    chan struct{}
	stopped bool
	wg      sync.WaitGroup
}

// New creates a loop and starts its goroutine.
func New() *Loop {
	l := &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	l.wg.Add(1)
	go l.run()
	return l
}

func (l *Loop) run() {
	defer l.wg.Done()

	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()

		for _, fn := range batch {
			fn()
		}

		if len(batch) > 0 {
			// More work may have been queued while the batch ran.
			continue
		}

		select {
		case <-l.wake:
		case <-l.done:
			return
		}
	}
}

// Post schedules fn to run on the loop. Posts after Stop are dropped.
// Safe to call from any goroutine, including loop callbacks.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Timer is a cancellable deadline whose callback runs on the loop.
type Timer struct {
	loop  *Loop
	timer *time.Timer
	dead  bool
}

// After schedules fn to run on the loop after d. Cancel must be called from
// loop context; a timer that fires after Cancel is a no-op.
func (l *Loop) After(d time.Duration, fn func()) *Timer {
	t := &Timer{loop: l}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.dead {
				return
			}
			t.dead = true
			fn()
		})
	})
	return t
}

// Cancel stops the timer. The callback will not run once Cancel returns.
func (t *Timer) Cancel() {
	if t == nil || t.dead {
		return
	}
	t.dead = true
	t.timer.Stop()
}

// Sync blocks until all work posted before the call has run. Returns
// immediately if the loop is stopped.
func (l *Loop) Sync() {
	ran := make(chan struct{})
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, func() { close(ran) })
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}

	select {
	case <-ran:
	case <-l.done:
	}
}

// Stop halts the loop. Queued work that has not started is discarded.
// Must be called from outside loop context: Stop waits for the loop
// goroutine to exit, so a call from a loop callback deadlocks.
func (l *Loop) Stop() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.stopped = true
	l.mu.Unlock()

	close(l.done)
	l.wg.Wait()
}
