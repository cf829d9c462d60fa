package realtime

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPublishRingBuffer(t *testing.T) {
	h := NewHub(2)

	h.Publish(Event{Type: "a"})
	h.Publish(Event{Type: "b"})
	h.Publish(Event{Type: "c"})

	events := h.Recent(0)
	require.Len(t, events, 2)
	assert.Equal(t, int64(2), events[0].ID)
	assert.Equal(t, int64(3), events[1].ID)
	assert.Equal(t, Stats{Events: 2, LastEventID: 3}, h.Stats())
}

func TestPublishDerivesType(t *testing.T) {
	h := NewHub(10)
	ev := h.Publish(Event{Table: "bookings", Action: ActionUpdate, Key: "b-1"})
	assert.Equal(t, "bookings.update", ev.Type)
	assert.False(t, ev.Timestamp.IsZero())
}

func TestRecentAfter(t *testing.T) {
	h := NewHub(10)
	for i := 0; i < 5; i++ {
		h.Publish(Event{Type: "x"})
	}
	events := h.Recent(3)
	require.Len(t, events, 2)
	assert.Equal(t, int64(4), events[0].ID)
}

func TestSubscriberDropsWhenFull(t *testing.T) {
	h := NewHub(10)
	sub := h.Subscribe(1)
	defer sub.Close()

	h.Publish(Event{Type: "first"})
	h.Publish(Event{Type: "second"}) // buffer full, dropped

	ev := <-sub.C
	assert.Equal(t, "first", ev.Type)
	select {
	case ev := <-sub.C:
		t.Fatalf("unexpected event %q", ev.Type)
	default:
	}
}

func TestSubscriptionClose(t *testing.T) {
	h := NewHub(10)
	sub := h.Subscribe(4)
	assert.Equal(t, 1, h.Stats().Subscribers)

	sub.Close()
	sub.Close()
	assert.Equal(t, 0, h.Stats().Subscribers)

	_, ok := <-sub.C
	assert.False(t, ok)

	// Publishing after close must not panic.
	h.Publish(Event{Type: "after"})
}

func TestServeHTTPStreamsEvents(t *testing.T) {
	h := NewHub(10)
	h.Publish(Event{Type: "old"})

	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set("Last-Event-ID", "0")

	tr := &http.Transport{}
	defer tr.CloseIdleConnections()
	client := &http.Client{Transport: tr}

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readUntil := func(prefix string) string {
		t.Helper()
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if strings.HasPrefix(line, prefix) {
				return strings.TrimSpace(line)
			}
		}
	}

	assert.Equal(t, "event: old", readUntil("event:"))
	readUntil(": connected")

	require.Eventually(t, func() bool { return h.Stats().Subscribers == 1 }, time.Second, 10*time.Millisecond)
	h.Publish(Event{Table: "customers", Action: ActionInsert, Key: "c-1"})
	assert.Equal(t, "event: customers.insert", readUntil("event:"))

	cancel()
	require.Eventually(t, func() bool { return h.Stats().Subscribers == 0 }, time.Second, 10*time.Millisecond)
	srv.CloseClientConnections()
}

func TestDiff(t *testing.T) {
	t0 := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	prev := Snapshot{"a": t0, "b": t0, "c": t0}
	curr := Snapshot{"a": t0, "b": t0.Add(time.Minute), "d": t0}

	got := Diff("bookings", prev, curr)
	want := []Event{
		{Table: "bookings", Action: ActionUpdate, Key: "b"},
		{Table: "bookings", Action: ActionDelete, Key: "c"},
		{Table: "bookings", Action: ActionInsert, Key: "d"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Diff mismatch (-want +got):\n%s", diff)
	}
}

func TestDiffFirstObservation(t *testing.T) {
	assert.Empty(t, Diff("bookings", nil, Snapshot{"a": time.Now()}))
}
