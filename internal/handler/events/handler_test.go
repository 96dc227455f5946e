package events

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eventservice "github.com/manuelcastro95/chime-backend/internal/service/events"
)

// syncRecorder is a flushable response writer safe to inspect while the
// handler goroutine is still streaming into it.
type syncRecorder struct {
	mu     sync.Mutex
	header http.Header
	buf    bytes.Buffer
	status int
}

func newSyncRecorder() *syncRecorder {
	return &syncRecorder{header: http.Header{}}
}

func (w *syncRecorder) Header() http.Header {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.header
}

func (w *syncRecorder) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *syncRecorder) WriteHeader(status int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = status
}

func (w *syncRecorder) Flush() {}

func (w *syncRecorder) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

func TestSSEStreamDeliversEvents(t *testing.T) {
	broker := eventservice.NewBroker()
	handler := New(broker, nil)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events/stream", nil).WithContext(ctx)
	resp := newSyncRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.handleSSE(resp, req)
	}()

	// The subscription is registered asynchronously; keep publishing until
	// the handler has seen at least one event.
	require.Eventually(t, func() bool {
		broker.Publish(eventservice.Event{Type: eventservice.TypeSessionCreated, MeetingID: "m1"})
		return strings.Contains(resp.String(), eventservice.TypeSessionCreated)
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not stop after context cancellation")
	}

	body := resp.String()
	assert.Contains(t, body, "event stream established")
	assert.Contains(t, body, `"meetingId":"m1"`)
	assert.Equal(t, "text/event-stream", resp.Header().Get("Content-Type"))
}

func TestSSEStreamRequiresFlusher(t *testing.T) {
	broker := eventservice.NewBroker()
	handler := New(broker, nil)

	req := httptest.NewRequest(http.MethodGet, "/events/stream", nil)
	resp := &nonFlushingWriter{header: http.Header{}}

	handler.handleSSE(resp, req)
	assert.Equal(t, http.StatusInternalServerError, resp.status)
}

type nonFlushingWriter struct {
	header http.Header
	status int
	body   []byte
}

func (w *nonFlushingWriter) Header() http.Header { return w.header }

func (w *nonFlushingWriter) Write(p []byte) (int, error) {
	w.body = append(w.body, p...)
	return len(p), nil
}

func (w *nonFlushingWriter) WriteHeader(status int) { w.status = status }
