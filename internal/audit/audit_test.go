package audit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/chainsense/internal/logging"
)

func testRecorder() *Recorder {
	return NewRecorder(logging.New(nil, "silent"))
}

func TestRecorder_On_And_Record(t *testing.T) {
	r := testRecorder()

	var got Event
	r.On(EventTurnResolved, "test", func(_ context.Context, ev Event) error {
		got = ev
		return nil
	})

	r.Record(context.Background(), Event{
		Name:          EventTurnResolved,
		SessionID:     "sess-1",
		CorrelationID: "corr-1",
		Data:          map[string]any{"intent": "analytics"},
	})

	assert.Equal(t, EventTurnResolved, got.Name)
	assert.Equal(t, "sess-1", got.SessionID)
	assert.Equal(t, "analytics", got.Data["intent"])
	assert.False(t, got.Timestamp.IsZero())
}

func TestRecorder_Record_MultipleSinksInOrder(t *testing.T) {
	r := testRecorder()

	var order []string
	r.On(EventTurnReceived, "first", func(_ context.Context, _ Event) error {
		order = append(order, "first")
		return nil
	})
	r.On(EventTurnReceived, "second", func(_ context.Context, _ Event) error {
		order = append(order, "second")
		return nil
	})

	r.Record(context.Background(), Event{Name: EventTurnReceived})
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestRecorder_Record_SinkError(t *testing.T) {
	r := testRecorder()

	var secondCalled bool
	r.On(EventDispatchFailed, "failing", func(_ context.Context, _ Event) error {
		return errors.New("sink broke")
	})
	r.On(EventDispatchFailed, "second", func(_ context.Context, _ Event) error {
		secondCalled = true
		return nil
	})

	// Should not panic; second sink should still run
	r.Record(context.Background(), Event{Name: EventDispatchFailed})
	assert.True(t, secondCalled)
}

func TestRecorder_Record_NoSinks(t *testing.T) {
	r := testRecorder()
	// Should not panic
	r.Record(context.Background(), Event{Name: EventGatewayStop})
}

func TestRecorder_Off(t *testing.T) {
	r := testRecorder()

	var callCount int
	r.On(EventSessionCreated, "removable", func(_ context.Context, _ Event) error {
		callCount++
		return nil
	})

	r.Record(context.Background(), Event{Name: EventSessionCreated})
	assert.Equal(t, 1, callCount)

	r.Off(EventSessionCreated, "removable")
	r.Record(context.Background(), Event{Name: EventSessionCreated})
	assert.Equal(t, 1, callCount)
}

func TestRecorder_OnAll(t *testing.T) {
	r := testRecorder()

	var count atomic.Int32
	r.OnAll("counter", func(_ context.Context, _ Event) error {
		count.Add(1)
		return nil
	})

	for _, event := range AllEvents {
		assert.Equal(t, 1, r.Count(event), event)
	}

	r.Record(context.Background(), Event{Name: EventTurnResolved})
	r.Record(context.Background(), Event{Name: EventSessionExpired})
	assert.Equal(t, int32(2), count.Load())
}

func TestRecorder_RecordAsync(t *testing.T) {
	r := testRecorder()

	var count atomic.Int32
	var wg sync.WaitGroup
	wg.Add(2)

	r.On(EventTurnResolved, "async1", func(_ context.Context, _ Event) error {
		count.Add(1)
		wg.Done()
		return nil
	})
	r.On(EventTurnResolved, "async2", func(_ context.Context, _ Event) error {
		count.Add(1)
		wg.Done()
		return nil
	})

	r.RecordAsync(context.Background(), Event{Name: EventTurnResolved})

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("async sinks did not complete in time")
	}

	assert.Equal(t, int32(2), count.Load())
}

func TestRecorder_Events(t *testing.T) {
	r := testRecorder()

	r.On(EventTurnReceived, "s1", func(_ context.Context, _ Event) error { return nil })
	r.On(EventContextCleared, "s2", func(_ context.Context, _ Event) error { return nil })

	events := r.Events()
	assert.Len(t, events, 2)
	assert.Contains(t, events, EventTurnReceived)
	assert.Contains(t, events, EventContextCleared)
}

func TestAllEvents_NotEmpty(t *testing.T) {
	require.NotEmpty(t, AllEvents)
	assert.Contains(t, AllEvents, EventTurnResolved)
	assert.Contains(t, AllEvents, EventSessionExpired)
}

func TestWebhookSink_Delivers(t *testing.T) {
	var received Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sink := WebhookSink(srv.URL, time.Second)
	err := sink(context.Background(), Event{
		Name:      EventTurnResolved,
		SessionID: "sess-9",
		Timestamp: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, EventTurnResolved, received.Name)
	assert.Equal(t, "sess-9", received.SessionID)
}

func TestWebhookSink_RejectsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	sink := WebhookSink(srv.URL, time.Second)
	err := sink(context.Background(), Event{Name: EventTurnResolved})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestLogSink_NeverFails(t *testing.T) {
	sink := LogSink(logging.New(io.Discard, "debug"))
	err := sink(context.Background(), Event{
		Name:      EventClarification,
		SessionID: "sess-2",
		Data:      map[string]any{"prompt": "which strategy?"},
	})
	assert.NoError(t, err)
}
