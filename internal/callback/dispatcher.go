package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"wopiproxy/config"
	"wopiproxy/internal/ports"
)

// Dispatcher implements ports.CallbackDispatcher with a bounded queue drained
// by a fixed worker pool, each delivery retried with exponential backoff.
// The queue/worker-pool shape mirrors the buffered-channel-plus-WaitGroup
// pattern used elsewhere in this codebase for fire-and-forget background work.
type Dispatcher struct {
	queue   chan ports.CallbackEvent
	client  *http.Client
	wg      sync.WaitGroup
	workers int

	baseBackoff time.Duration
	maxBackoff  time.Duration
	maxAttempts int

	cancel context.CancelFunc
}

func NewDispatcher(cfg config.CallbackConfig) *Dispatcher {
	timeout := 10 * time.Second
	if d, err := time.ParseDuration(cfg.RequestTimeout); err == nil && d > 0 {
		timeout = d
	}
	base := time.Second
	if d, err := time.ParseDuration(cfg.BaseBackoff); err == nil && d > 0 {
		base = d
	}
	max := 60 * time.Second
	if d, err := time.ParseDuration(cfg.MaxBackoff); err == nil && d > 0 {
		max = d
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 5
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}

	return &Dispatcher{
		queue:       make(chan ports.CallbackEvent, queueSize),
		client:      &http.Client{Timeout: timeout},
		workers:     workers,
		baseBackoff: base,
		maxBackoff:  max,
		maxAttempts: attempts,
	}
}

func (d *Dispatcher) Enqueue(ctx context.Context, event ports.CallbackEvent) error {
	select {
	case d.queue <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("[CallbackDispatcher] queue full, dropping callback for tenant %s", event.TenantID)
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
}

func (d *Dispatcher) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-d.queue:
			d.deliver(ctx, event)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, event ports.CallbackEvent) {
	operation := func() (struct{}, error) {
		body, err := json.Marshal(event.Payload)
		if err != nil {
			return struct{}{}, fmt.Errorf("[CallbackDispatcher] encoding payload: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, event.CallbackURL, bytes.NewReader(body))
		if err != nil {
			return struct{}{}, fmt.Errorf("[CallbackDispatcher] building request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if event.Auth != "" {
			req.Header.Set("Authorization", event.Auth)
		}

		resp, err := d.client.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return struct{}{}, fmt.Errorf("[CallbackDispatcher] callback server error: %d", resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return struct{}{}, backoff.Permanent(fmt.Errorf("[CallbackDispatcher] callback rejected: %d", resp.StatusCode))
		}
		return struct{}{}, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = d.baseBackoff
	bo.MaxInterval = d.maxBackoff

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(d.maxAttempts)),
	)
	if err != nil {
		log.Printf("[CallbackDispatcher] giving up on callback for tenant %s: %v", event.TenantID, err)
	}
}
