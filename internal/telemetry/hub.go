package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/modem-control/mnr/internal/config"
)

// Event types published by the registration subsystem.
const (
	EventReady        = "ready"
	EventHeartbeat    = "heartbeat"
	EventRegistration = "registrationChanged"
	EventSignal       = "signalStrength"
	EventNetworkTime  = "networkTime"
	EventScanComplete = "scanComplete"
	EventFault        = "fault"
)

// Event is one telemetry event. Modem scopes it to a modem instance.
type Event struct {
	ID    int64                  `json:"id,omitempty"`
	Type  string                 `json:"type"`
	Data  map[string]interface{} `json:"data"`
	Modem string                 `json:"modem,omitempty"`
}

// client is one connected SSE subscriber.
type client struct {
	id     string
	writer http.ResponseWriter
	ctx    context.Context
	cancel context.CancelFunc
	modem  string
	events chan Event
	once   sync.Once
	mu     sync.Mutex // serializes writer access
}

// Hub fans events out to SSE clients with per-modem buffering and resume.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	nextIDs map[string]*int64
	buffers map[string]*ringBuffer
	cfg     config.TelemetryConfig

	heartbeat *time.Ticker
	stopBeat  chan struct{}
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewHub creates a telemetry hub.
func NewHub(cfg config.TelemetryConfig) *Hub {
	return &Hub{
		clients: make(map[string]*client),
		nextIDs: make(map[string]*int64),
		buffers: make(map[string]*ringBuffer),
		cfg:     cfg,
		done:    make(chan struct{}),
	}
}

// Publish delivers an event to all connected clients and buffers it for
// resume when it is modem-scoped.
func (h *Hub) Publish(event Event) {
	if event.ID == 0 {
		event.ID = h.nextID(event.Modem)
	}
	if event.Modem != "" {
		h.buffer(event)
	}

	h.mu.RLock()
	subs := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		subs = append(subs, c)
	}
	h.mu.RUnlock()

	for _, c := range subs {
		select {
		case <-c.ctx.Done():
		case <-h.done:
			return
		case c.events <- event:
		default:
			// Slow client: drop rather than block.
		}
	}
}

// PublishModem publishes an event scoped to one modem.
func (h *Hub) PublishModem(modemID string, event Event) {
	event.Modem = modemID
	h.Publish(event)
}

// Subscribe serves an SSE stream until the client disconnects. A
// Last-Event-ID header replays buffered events for the modem named in the
// "modem" query parameter.
func (h *Hub) Subscribe(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	clientCtx, cancel := context.WithCancel(ctx)
	c := &client{
		id:     fmt.Sprintf("client_%d", time.Now().UnixNano()),
		writer: w,
		ctx:    clientCtx,
		cancel: cancel,
		modem:  r.URL.Query().Get("modem"),
		events: make(chan Event, 100),
	}

	lastID := int64(0)
	if s := r.Header.Get("Last-Event-ID"); s != "" {
		if id, err := strconv.ParseInt(s, 10, 64); err == nil {
			lastID = id
		}
	}

	h.mu.Lock()
	h.clients[c.id] = c
	first := len(h.clients) == 1
	h.mu.Unlock()

	if err := h.send(c, Event{
		ID:   h.nextID(c.modem),
		Type: EventReady,
		Data: map[string]interface{}{"modem": c.modem},
	}); err != nil {
		h.unregister(c.id)
		return fmt.Errorf("failed to send ready event: %w", err)
	}

	if lastID > 0 {
		if err := h.replay(c, lastID); err != nil {
			h.unregister(c.id)
			return fmt.Errorf("failed to replay events: %w", err)
		}
	}

	if first {
		h.startHeartbeat()
	}

	h.pump(c)
	return nil
}

// pump delivers queued events to one client until it disconnects.
func (h *Hub) pump(c *client) {
	defer func() {
		c.once.Do(func() { close(c.events) })
		h.unregister(c.id)
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-h.done:
			return
		case ev, ok := <-c.events:
			if !ok {
				return
			}
			if err := h.send(c, ev); err != nil {
				return
			}
		}
	}
}

func (h *Hub) send(c *client, ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ev.ID > 0 {
		if _, err := fmt.Fprintf(c.writer, "id: %d\n", ev.ID); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(c.writer, "event: %s\n", ev.Type); err != nil {
		return err
	}
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}
	if _, err := fmt.Fprintf(c.writer, "data: %s\n\n", data); err != nil {
		return err
	}
	if f, ok := c.writer.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

func (h *Hub) replay(c *client, lastID int64) error {
	h.mu.RLock()
	buf := h.buffers[c.modem]
	h.mu.RUnlock()
	if buf == nil {
		return nil
	}
	for _, ev := range buf.after(lastID) {
		if err := h.send(c, ev); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hub) unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[id]
	if !ok {
		return
	}
	c.cancel()
	delete(h.clients, id)

	if len(h.clients) == 0 && h.heartbeat != nil {
		h.heartbeat.Stop()
		h.heartbeat = nil
		close(h.stopBeat)
		h.stopBeat = nil
	}
}

func (h *Hub) nextID(modemID string) int64 {
	if modemID == "" {
		modemID = "global"
	}

	h.mu.RLock()
	counter := h.nextIDs[modemID]
	h.mu.RUnlock()
	if counter != nil {
		return atomic.AddInt64(counter, 1)
	}

	h.mu.Lock()
	counter = h.nextIDs[modemID]
	if counter == nil {
		counter = new(int64)
		h.nextIDs[modemID] = counter
	}
	h.mu.Unlock()
	return atomic.AddInt64(counter, 1)
}

// buffer records a modem-scoped event for Last-Event-ID resume. Buffers are
// never removed from the map, so the reference stays valid after unlock.
func (h *Hub) buffer(ev Event) {
	h.mu.Lock()
	buf := h.buffers[ev.Modem]
	if buf == nil {
		buf = newRingBuffer(h.cfg.EventBufferSize)
		h.buffers[ev.Modem] = buf
	}
	h.mu.Unlock()

	buf.add(ev)
}

func (h *Hub) startHeartbeat() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.heartbeat != nil {
		return
	}

	interval := h.cfg.HeartbeatInterval + h.cfg.HeartbeatJitter/2
	h.heartbeat = time.NewTicker(interval)
	h.stopBeat = make(chan struct{})

	ticker := h.heartbeat
	stop := h.stopBeat

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-ticker.C:
				h.Publish(Event{
					Type: EventHeartbeat,
					Data: map[string]interface{}{"ts": time.Now().UTC().Format(time.RFC3339)},
				})
			case <-stop:
				return
			case <-h.done:
				return
			}
		}
	}()
}

// Stop shuts the hub down and disconnects all clients.
func (h *Hub) Stop() {
	close(h.done)

	h.mu.Lock()
	for _, c := range h.clients {
		c.cancel()
	}
	if h.heartbeat != nil {
		h.heartbeat.Stop()
		h.heartbeat = nil
	}
	if h.stopBeat != nil {
		close(h.stopBeat)
		h.stopBeat = nil
	}
	h.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(5 * time.Second):
	}

	h.mu.Lock()
	for _, c := range h.clients {
		c.once.Do(func() { close(c.events) })
	}
	h.clients = make(map[string]*client)
	h.mu.Unlock()
}

// ringBuffer is a bounded event history for one modem.
type ringBuffer struct {
	mu       sync.RWMutex
	events   []Event
	capacity int
}

func newRingBuffer(capacity int) *ringBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &ringBuffer{capacity: capacity}
}

func (b *ringBuffer) add(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
	if len(b.events) > b.capacity {
		b.events = b.events[1:]
	}
}

func (b *ringBuffer) after(lastID int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []Event
	for _, ev := range b.events {
		if ev.ID > lastID {
			out = append(out, ev)
		}
	}
	return out
}
