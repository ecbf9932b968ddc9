package reporter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"trafficsignal/internal/config"
	"trafficsignal/internal/logger"
	"trafficsignal/internal/models"
)

// Stats summarises delivery outcomes.
type Stats struct {
	Attempted   uint64    `json:"attempted"`
	Delivered   uint64    `json:"delivered"`
	Failed      uint64    `json:"failed"`
	LastAttempt time.Time `json:"last_attempt,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
}

// Reporter pushes axis counts to the signal controller at most once per interval.
// Failed deliveries are logged and dropped; nothing is queued or retried.
type Reporter struct {
	url            string
	interval       time.Duration
	includeTimings bool
	client         *http.Client
	logger         *logger.Logger

	mu      sync.Mutex
	started bool
	last    time.Time
	stats   Stats
}

// New creates a reporter. An empty url disables delivery.
func New(url string, interval, timeout time.Duration, includeTimings bool, logger *logger.Logger) *Reporter {
	return &Reporter{
		url:            url,
		interval:       interval,
		includeTimings: includeTimings,
		client:         &http.Client{Timeout: timeout},
		logger:         logger,
	}
}

func NewFromConfig(cfg *config.Config, logger *logger.Logger) *Reporter {
	if cfg.BackendURL == "" {
		logger.Warning("BACKEND_URL is empty, count reporting disabled")
	}
	return New(cfg.BackendURL, cfg.ReportInterval, cfg.DeliveryTimeout, cfg.ReportTimings, logger)
}

// Start begins the first interval at now.
func (r *Reporter) Start(now time.Time) {
	r.mu.Lock()
	r.started = true
	r.last = now
	r.mu.Unlock()
}

// Tick delivers the current counts if a full interval has elapsed since the
// previous attempt. It reports whether a delivery was attempted.
func (r *Reporter) Tick(ctx context.Context, now time.Time, ns, ew int, timings models.AxisTimings) bool {
	if r.url == "" {
		return false
	}

	r.mu.Lock()
	if !r.started {
		r.started = true
		r.last = now
		r.mu.Unlock()
		return false
	}
	if now.Sub(r.last) < r.interval {
		r.mu.Unlock()
		return false
	}
	r.last = now
	r.stats.Attempted++
	r.stats.LastAttempt = now
	r.mu.Unlock()

	payload := models.TimingPayload{NSVehicles: ns, EWVehicles: ew}
	if r.includeTimings {
		nsTime, ewTime := timings.NS, timings.EW
		payload.NSTime = &nsTime
		payload.EWTime = &ewTime
	}

	err := r.deliver(ctx, payload)

	r.mu.Lock()
	if err != nil {
		r.stats.Failed++
		r.stats.LastError = err.Error()
	} else {
		r.stats.Delivered++
		r.stats.LastError = ""
	}
	r.mu.Unlock()

	if err != nil {
		r.logger.Warning("Dropped count report (ns=%d ew=%d): %v", ns, ew, err)
	}
	return true
}

func (r *Reporter) deliver(ctx context.Context, payload models.TimingPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post counts: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("signal controller returned %s", resp.Status)
	}
	return nil
}

// Stats returns a copy of the delivery counters.
func (r *Reporter) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Interval returns the minimum spacing between deliveries.
func (r *Reporter) Interval() time.Duration {
	return r.interval
}
