package notify

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rohitmondal03/amplication/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTransition() Transition {
	return Transition{
		ResourceID:     "res-1",
		CommitID:       "commit123",
		BuildID:        "build-1",
		Status:         models.BuildStatusCompleted,
		PreviousStatus: models.BuildStatusRunning,
		At:             time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestNewWebhookNotifier_NilConfig(t *testing.T) {
	wn := NewWebhookNotifier(nil, slog.Default())
	assert.Nil(t, wn)
}

func TestNewWebhookNotifier_EmptyURLs(t *testing.T) {
	wn := NewWebhookNotifier(&WebhookConfig{URLs: nil}, slog.Default())
	assert.Nil(t, wn)
}

func TestWebhookNotifier_Notify_NilReceiver(t *testing.T) {
	// Should not panic
	var wn *WebhookNotifier
	wn.Notify(testTransition())
	wn.Wait()
}

func TestWebhookNotifier_Notify(t *testing.T) {
	var mu sync.Mutex
	var received []WebhookEvent

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var event WebhookEvent
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		mu.Lock()
		received = append(received, event)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	wn := NewWebhookNotifier(&WebhookConfig{URLs: []string{ts.URL}}, slog.Default())
	require.NotNil(t, wn)

	wn.Notify(testTransition())
	wn.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Equal(t, EventBuildStatus, received[0].Event)
	assert.Equal(t, "res-1", received[0].ResourceID)
	assert.Equal(t, "commit123", received[0].CommitID)
	assert.Equal(t, "build-1", received[0].BuildID)
	assert.Equal(t, "Completed", received[0].Status)
	assert.Equal(t, "Running", received[0].PreviousStatus)
	assert.Equal(t, "2024-05-01T10:00:00Z", received[0].Timestamp)
}

func TestWebhookNotifier_Notify_MultipleURLs(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	})

	ts1 := httptest.NewServer(handler)
	defer ts1.Close()
	ts2 := httptest.NewServer(handler)
	defer ts2.Close()

	wn := NewWebhookNotifier(&WebhookConfig{URLs: []string{ts1.URL, ts2.URL}}, slog.Default())
	require.NotNil(t, wn)

	tr := testTransition()
	other := testTransition()
	other.BuildID = "build-2"
	wn.Notify(tr, other)
	wn.Wait()

	assert.Equal(t, int32(4), calls.Load())
}

func TestWebhookNotifier_Post_4xxNoRetry(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	wn := NewWebhookNotifier(&WebhookConfig{URLs: []string{ts.URL}, Backoff: time.Millisecond}, slog.Default())
	require.NotNil(t, wn)

	err := wn.post(ts.URL, []byte(`{}`))
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load()) // no retry for 4xx
}

func TestWebhookNotifier_Post_5xxRetried(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	wn := NewWebhookNotifier(&WebhookConfig{URLs: []string{ts.URL}, Backoff: time.Millisecond}, slog.Default())
	require.NotNil(t, wn)

	require.NoError(t, wn.post(ts.URL, []byte(`{}`)))
	assert.Equal(t, int32(3), calls.Load())
}

func TestWebhookNotifier_Post_GivesUp(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	wn := NewWebhookNotifier(&WebhookConfig{URLs: []string{ts.URL}, MaxRetries: 1, Backoff: time.Millisecond}, slog.Default())
	require.NotNil(t, wn)

	err := wn.post(ts.URL, []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Equal(t, int32(2), calls.Load())
}
