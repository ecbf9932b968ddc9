package timing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNoPredictor is returned by the placeholder predictor used when no model
// is deployed.
var ErrNoPredictor = errors.New("no congestion model deployed")

type remoteRequest struct {
	Features []float32 `json:"features"`
}

type remoteResponse struct {
	Score *float64 `json:"score"`
}

// RemotePredictor asks an external model service for the score.
type RemotePredictor struct {
	url    string
	client *http.Client
}

// NewRemotePredictor posts feature vectors to url. timeout bounds each request.
func NewRemotePredictor(url string, timeout time.Duration) *RemotePredictor {
	return &RemotePredictor{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (p *RemotePredictor) Predict(ctx context.Context, features []float32) (float64, error) {
	body, err := json.Marshal(remoteRequest{Features: features})
	if err != nil {
		return 0, fmt.Errorf("failed to encode features: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("predictor unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("predictor returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("failed to decode prediction: %w", err)
	}
	if out.Score == nil {
		return 0, fmt.Errorf("prediction response has no score")
	}
	return *out.Score, nil
}

func (p *RemotePredictor) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

// unavailablePredictor fails every call so the engine always falls back.
type unavailablePredictor struct {
	cause error
}

func (p unavailablePredictor) Predict(context.Context, []float32) (float64, error) {
	return 0, p.cause
}

func (p unavailablePredictor) Close() error { return nil }
