package callback_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"wopiproxy/config"
	"wopiproxy/internal/callback"
	"wopiproxy/internal/ports"
)

func testDispatcher() *callback.Dispatcher {
	return callback.NewDispatcher(config.CallbackConfig{
		RequestTimeout: "1s",
		QueueSize:      4,
		Workers:        1,
		BaseBackoff:    "10ms",
		MaxBackoff:     "20ms",
		MaxAttempts:    3,
	})
}

func TestDispatcher_DeliversOnFirstSuccess(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := testDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)
	defer d.Stop()

	err := d.Enqueue(ctx, ports.CallbackEvent{TenantID: "t1", CallbackURL: srv.URL, Payload: map[string]any{"event": "document_saved"}})
	assert.NoError(t, err)

	assert.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 10*time.Millisecond)
}

func TestDispatcher_GivesUpOnPermanentError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	d := testDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)
	defer d.Stop()

	err := d.Enqueue(ctx, ports.CallbackEvent{TenantID: "t1", CallbackURL: srv.URL, Payload: map[string]any{}})
	assert.NoError(t, err)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), hits.Load())
}

func TestDispatcher_EnqueueFailsWhenQueueFull(t *testing.T) {
	d := callback.NewDispatcher(config.CallbackConfig{QueueSize: 1, Workers: 0})

	err := d.Enqueue(context.Background(), ports.CallbackEvent{TenantID: "t1", CallbackURL: "http://example.invalid"})
	assert.NoError(t, err)

	err = d.Enqueue(context.Background(), ports.CallbackEvent{TenantID: "t1", CallbackURL: "http://example.invalid"})
	assert.Error(t, err)
}
