// Package realtime fans backend change events out to live subscribers.
package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Action is the kind of row change.
type Action string

const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Event is one change notification. Type is "<table>.<action>" for row
// changes, or a free-form type such as "automation.run".
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Table     string    `json:"table,omitempty"`
	Action    Action    `json:"action,omitempty"`
	Key       string    `json:"key,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// Stats describes the hub for status endpoints.
type Stats struct {
	Events      int   `json:"event_count"`
	Subscribers int   `json:"subscriber_count"`
	LastEventID int64 `json:"last_event_id"`
}

// Hub keeps a bounded ring of recent events and delivers new ones to
// subscribers. Delivery never blocks: a subscriber whose buffer is full
// misses the event.
type Hub struct {
	buffer int

	mu          sync.RWMutex
	nextEventID int64
	events      []Event
	nextSubID   int
	subs        map[int]chan Event
	now         func() time.Time
}

// NewHub returns a hub retaining up to buffer events.
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 200
	}
	return &Hub{
		buffer: buffer,
		subs:   make(map[int]chan Event),
		now:    time.Now,
	}
}

// Publish stamps ev with the next ID and a timestamp, stores it and
// delivers it. The stamped event is returned.
func (h *Hub) Publish(ev Event) Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextEventID++
	ev.ID = h.nextEventID
	if ev.Timestamp.IsZero() {
		ev.Timestamp = h.now()
	}
	if ev.Type == "" && ev.Table != "" {
		ev.Type = ev.Table + "." + string(ev.Action)
	}

	h.events = append(h.events, ev)
	if len(h.events) > h.buffer {
		h.events = h.events[len(h.events)-h.buffer:]
	}

	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return ev
}

// Recent returns retained events with an ID greater than after.
func (h *Hub) Recent(after int64) []Event {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Event, 0, len(h.events))
	for _, ev := range h.events {
		if ev.ID > after {
			out = append(out, ev)
		}
	}
	return out
}

// Stats returns counts for status reporting.
func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Stats{
		Events:      len(h.events),
		Subscribers: len(h.subs),
		LastEventID: h.nextEventID,
	}
}

// Subscription is a live event feed. Close it when done.
type Subscription struct {
	C <-chan Event

	hub  *Hub
	id   int
	once sync.Once
}

// Subscribe registers a subscriber with a channel of the given capacity.
func (h *Hub) Subscribe(size int) *Subscription {
	if size < 1 {
		size = 16
	}
	ch := make(chan Event, size)

	h.mu.Lock()
	h.nextSubID++
	id := h.nextSubID
	h.subs[id] = ch
	h.mu.Unlock()

	return &Subscription{C: ch, hub: h, id: id}
}

// Close unregisters the subscription and closes its channel.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		ch := s.hub.subs[s.id]
		delete(s.hub.subs, s.id)
		s.hub.mu.Unlock()
		if ch != nil {
			close(ch)
		}
	})
}

// ServeHTTP streams events as server-sent events. A Last-Event-ID header
// replays retained events newer than that ID before live delivery.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sub := h.Subscribe(16)
	defer sub.Close()

	var lastSent int64
	if last, err := strconv.ParseInt(r.Header.Get("Last-Event-ID"), 10, 64); err == nil {
		for _, ev := range h.Recent(last) {
			writeSSE(w, ev)
			lastSent = ev.ID
		}
	}
	_, _ = fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			if ev.ID <= lastSent {
				continue
			}
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "id: %d\n", ev.ID)
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}
