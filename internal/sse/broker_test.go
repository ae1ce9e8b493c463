package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

var idLine = regexp.MustCompile(`(?m)^id: [0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "item.added", Data: map[string]int{"id": 7}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: item.added") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `data: {"id":7}`) {
			t.Errorf("missing data in %q", s)
		}
		if !idLine.MatchString(s) {
			t.Errorf("missing uuid id line in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishChange_AvailabilityThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// First loan event triggers availability.updated, the second does not.
	b.PublishChange("loan.opened", map[string]int{"id": 1})
	b.PublishChange("loan.closed", map[string]int{"id": 1})
	// Non-loan changes never trigger it.
	b.PublishChange("borrower.added", map[string]int{"id": 2})

	time.Sleep(50 * time.Millisecond)
	availability := 0
	other := 0
loop:
	for {
		select {
		case msg := <-ch:
			if strings.Contains(string(msg), "event: "+AvailabilityUpdated) {
				availability++
			} else {
				other++
			}
		default:
			break loop
		}
	}

	if other != 3 {
		t.Errorf("change events = %d, want 3", other)
	}
	if availability != 1 {
		t.Errorf("availability events = %d, want 1 (throttled)", availability)
	}
}

func TestFormat(t *testing.T) {
	raw, err := Format("abc", Event{Type: "loan.closed", Data: []int{1, 2}})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	want := "id: abc\nevent: loan.closed\ndata: [1,2]\n\n"
	if string(raw) != want {
		t.Errorf("Format = %q, want %q", raw, want)
	}
}

// syncRecorder guards the recorder body so the test can read it while the
// handler goroutine is still writing.
type syncRecorder struct {
	*httptest.ResponseRecorder
	mu sync.Mutex
}

func (s *syncRecorder) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ResponseRecorder.Write(p)
}

func (s *syncRecorder) body() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ResponseRecorder.Body.String()
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := &syncRecorder{ResponseRecorder: httptest.NewRecorder()}

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishChange("loan.opened", map[string]int{"id": 1})
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.body()
	if !strings.Contains(body, "event: loan.opened") {
		t.Errorf("handler output missing event: %q", body)
	}
	if !strings.Contains(body, "event: "+AvailabilityUpdated) {
		t.Errorf("handler output missing availability event: %q", body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Buffer holds 64; the rest must be dropped without blocking.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.Publish(Event{Type: "item.added", Data: nil})
	b.PublishChange("loan.closed", nil)
}
