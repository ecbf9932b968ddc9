package timing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"trafficsignal/internal/config"
	"trafficsignal/internal/logger"
	"trafficsignal/internal/models"
)

// Congestion scores are defined on [0, 10].
const (
	MinScore = 0.0
	MaxScore = 10.0
)

// ErrInvalidScore is reported when a predictor returns NaN or an infinity.
var ErrInvalidScore = errors.New("predictor returned invalid score")

// Predictor maps a feature vector to a congestion score. The model behind it is
// opaque; only the feature contract is shared.
type Predictor interface {
	Predict(ctx context.Context, features []float32) (float64, error)
	Close() error
}

// Bounds are the green-time limits in seconds.
type Bounds struct {
	Min      int
	Max      int
	Fallback int
}

// Engine converts vehicle counts into green times. It never fails: any
// predictor fault yields the fallback green time.
type Engine struct {
	predictor Predictor
	contract  FeatureContract
	bounds    Bounds
	timeout   time.Duration
	logger    *logger.Logger
	fallbacks atomic.Uint64
}

// NewEngine wires a predictor with its feature contract. timeout bounds each
// prediction; zero means no extra deadline.
func NewEngine(predictor Predictor, contract FeatureContract, bounds Bounds, timeout time.Duration, logger *logger.Logger) *Engine {
	return &Engine{
		predictor: predictor,
		contract:  contract,
		bounds:    bounds,
		timeout:   timeout,
		logger:    logger,
	}
}

// BoundsFrom extracts the green-time limits from cfg.
func BoundsFrom(cfg *config.Config) Bounds {
	return Bounds{Min: cfg.MinGreen, Max: cfg.MaxGreen, Fallback: cfg.FallbackGreen}
}

// Compute returns the green time in seconds for count vehicles observed at now.
func (e *Engine) Compute(ctx context.Context, count int, now time.Time) int {
	score, err := e.predict(ctx, count, now)
	if err != nil {
		e.fallbacks.Add(1)
		e.logger.Warning("Prediction failed for count %d, using fallback %ds: %v", count, e.bounds.Fallback, err)
		return e.bounds.Fallback
	}
	return GreenTime(score, e.bounds.Min, e.bounds.Max)
}

// ComputeAxes returns green times for both axes.
func (e *Engine) ComputeAxes(ctx context.Context, ns, ew int, now time.Time) models.AxisTimings {
	return models.AxisTimings{
		NS: e.Compute(ctx, ns, now),
		EW: e.Compute(ctx, ew, now),
	}
}

// Fallbacks returns how many computations used the fallback green time.
func (e *Engine) Fallbacks() uint64 {
	return e.fallbacks.Load()
}

// Contract returns the feature contract in use.
func (e *Engine) Contract() FeatureContract {
	return e.contract
}

func (e *Engine) predict(ctx context.Context, count int, now time.Time) (score float64, err error) {
	if e.predictor == nil {
		return 0, fmt.Errorf("no predictor configured")
	}
	if count < 0 {
		return 0, fmt.Errorf("negative vehicle count %d", count)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("predictor panicked: %v", r)
		}
	}()

	score, err = e.predictor.Predict(ctx, e.contract.Build(count, now))
	if err != nil {
		return 0, err
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, ErrInvalidScore
	}
	return score, nil
}

// ClampScore limits score to [0, 10].
func ClampScore(score float64) float64 {
	return math.Max(MinScore, math.Min(MaxScore, score))
}

// GreenTime maps a congestion score linearly onto [min, max] seconds,
// truncating to whole seconds. Out-of-range scores are clamped first, and the
// result is clamped again so rounding can never leave the bounds.
func GreenTime(score float64, min, max int) int {
	if math.IsNaN(score) {
		return min
	}
	s := ClampScore(score)
	green := int(float64(min) + s/MaxScore*float64(max-min))
	if green < min {
		return min
	}
	if green > max {
		return max
	}
	return green
}
