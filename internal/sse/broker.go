// Package sse streams circulation changes to clients as Server-Sent Events.
package sse

import (
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

// AvailabilityUpdated is broadcast, throttled, after loan events.
const AvailabilityUpdated = "availability.updated"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type publishReq struct {
	event   Event
	touches bool // event changes item availability
}

// Broker manages SSE client connections and broadcasts events.
//
// Concurrency model: a single internal event loop (goroutine) owns mutable state
// (clients + availability throttle timestamp). Public methods communicate with
// this loop through channels, so no mutexes are required.
type Broker struct {
	availabilityMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan publishReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker with the given availability throttle
// interval.
func NewBroker(availabilityThrottle time.Duration) *Broker {
	if availabilityThrottle <= 0 {
		availabilityThrottle = 2 * time.Second
	}

	b := &Broker{
		availabilityMin: availabilityThrottle,
		subscribeCh:     make(chan chan []byte),
		unsubscribeCh:   make(chan chan []byte),
		publishCh:       make(chan publishReq, 256),
		countReqCh:      make(chan chan int),
		stopCh:          make(chan struct{}),
		stopped:         make(chan struct{}),
	}

	go b.run()
	return b
}

// Format renders an event in the text/event-stream wire format.
func Format(id string, event Event) ([]byte, error) {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return nil, err
	}
	return fmt.Appendf(nil, "id: %s\nevent: %s\ndata: %s\n\n", id, event.Type, payload), nil
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastAvailability time.Time

	broadcast := func(event Event) {
		raw, err := Format(uuid.NewString(), event)
		if err != nil {
			return
		}
		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case req := <-b.publishCh:
			broadcast(req.event)
			if !req.touches {
				continue
			}
			now := time.Now()
			if now.Sub(lastAvailability) >= b.availabilityMin {
				lastAvailability = now
				broadcast(Event{Type: AvailabilityUpdated, Data: map[string]string{}})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	b.send(publishReq{event: event})
}

// PublishChange broadcasts a committed circulation change. Loan events are
// followed by a throttled availability.updated event.
func (b *Broker) PublishChange(kind string, data any) {
	b.send(publishReq{
		event:   Event{Type: kind, Data: data},
		touches: strings.HasPrefix(kind, "loan."),
	})
}

func (b *Broker) send(req publishReq) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- req:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
