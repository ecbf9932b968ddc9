package timing

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"
	"time"

	"trafficsignal/internal/logger"
)

var referenceBounds = Bounds{Min: 10, Max: 60, Fallback: 10}

type funcPredictor func(ctx context.Context, features []float32) (float64, error)

func (f funcPredictor) Predict(ctx context.Context, features []float32) (float64, error) {
	return f(ctx, features)
}

func (f funcPredictor) Close() error { return nil }

func constant(score float64) Predictor {
	return funcPredictor(func(context.Context, []float32) (float64, error) { return score, nil })
}

func failing(err error) Predictor {
	return funcPredictor(func(context.Context, []float32) (float64, error) { return 0, err })
}

func newTestEngine(p Predictor, contract FeatureContract) *Engine {
	return NewEngine(p, contract, referenceBounds, 0, logger.NewWriterLogger(io.Discard))
}

func TestGreenTime_Reference(t *testing.T) {
	tests := []struct {
		score    float64
		expected int
	}{
		{0, 10},
		{2.5, 22},
		{5, 35},
		{7.9, 49},
		{10, 60},
	}
	for _, tt := range tests {
		if got := GreenTime(tt.score, 10, 60); got != tt.expected {
			t.Errorf("GreenTime(%v) = %d, expected %d", tt.score, got, tt.expected)
		}
	}
}

func TestGreenTime_AlwaysWithinBounds(t *testing.T) {
	bounds := [][2]int{{10, 60}, {5, 60}, {0, 0}, {20, 20}}
	for _, b := range bounds {
		for score := -50.0; score <= 50; score += 0.25 {
			g := GreenTime(score, b[0], b[1])
			if g < b[0] || g > b[1] {
				t.Fatalf("GreenTime(%v, %d, %d) = %d out of bounds", score, b[0], b[1], g)
			}
		}
	}

	for _, score := range []float64{math.Inf(1), math.Inf(-1), math.NaN(), math.MaxFloat64, -math.MaxFloat64} {
		g := GreenTime(score, 10, 60)
		if g < 10 || g > 60 {
			t.Errorf("GreenTime(%v) = %d out of bounds", score, g)
		}
	}
}

func TestClampScore_Idempotent(t *testing.T) {
	for _, s := range []float64{-3, 0, 4.2, 10, 17, math.Inf(1), math.Inf(-1)} {
		once := ClampScore(s)
		if ClampScore(once) != once {
			t.Errorf("clamp not idempotent for %v", s)
		}
		if once < MinScore || once > MaxScore {
			t.Errorf("ClampScore(%v) = %v out of range", s, once)
		}
	}
}

func TestEngine_ScoreFiveGivesThirtyFive(t *testing.T) {
	var seen []float32
	p := funcPredictor(func(_ context.Context, features []float32) (float64, error) {
		seen = features
		if features[0] == 1 {
			return 5.0, nil
		}
		return 0, nil
	})

	e := newTestEngine(p, FeaturesCount)
	if got := e.Compute(context.Background(), 1, time.Now()); got != 35 {
		t.Errorf("Compute = %d, expected 35", got)
	}
	if len(seen) != 1 || seen[0] != 1 {
		t.Errorf("predictor received %v, expected [1]", seen)
	}
}

func TestEngine_PredictorErrorUsesFallback(t *testing.T) {
	e := newTestEngine(failing(errors.New("model exploded")), FeaturesCountHourWeekday)

	timings := e.ComputeAxes(context.Background(), 4, 7, time.Now())
	if timings.NS != 10 || timings.EW != 10 {
		t.Errorf("expected fallback 10/10, got %d/%d", timings.NS, timings.EW)
	}
	if e.Fallbacks() != 2 {
		t.Errorf("Fallbacks = %d, expected 2", e.Fallbacks())
	}
}

func TestEngine_InvalidScoresUseFallback(t *testing.T) {
	for _, score := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		e := NewEngine(constant(score), FeaturesCount, Bounds{Min: 5, Max: 60, Fallback: 12}, 0, logger.NewWriterLogger(io.Discard))
		if got := e.Compute(context.Background(), 3, time.Now()); got != 12 {
			t.Errorf("score %v: Compute = %d, expected fallback 12", score, got)
		}
	}
}

func TestEngine_PanicUsesFallback(t *testing.T) {
	p := funcPredictor(func(context.Context, []float32) (float64, error) { panic("bad model") })
	e := newTestEngine(p, FeaturesCount)

	if got := e.Compute(context.Background(), 2, time.Now()); got != 10 {
		t.Errorf("Compute = %d, expected fallback 10", got)
	}
}

func TestEngine_NilPredictorUsesFallback(t *testing.T) {
	e := newTestEngine(nil, FeaturesCount)
	if got := e.Compute(context.Background(), 2, time.Now()); got != 10 {
		t.Errorf("Compute = %d, expected fallback 10", got)
	}
}

func TestEngine_OutOfRangeScoreClamped(t *testing.T) {
	high := newTestEngine(constant(42), FeaturesCount)
	if got := high.Compute(context.Background(), 50, time.Now()); got != 60 {
		t.Errorf("high score: Compute = %d, expected 60", got)
	}
	low := newTestEngine(constant(-7), FeaturesCount)
	if got := low.Compute(context.Background(), 0, time.Now()); got != 10 {
		t.Errorf("low score: Compute = %d, expected 10", got)
	}
}

func TestEngine_TimeoutUsesFallback(t *testing.T) {
	p := funcPredictor(func(ctx context.Context, _ []float32) (float64, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	e := NewEngine(p, FeaturesCount, referenceBounds, 20*time.Millisecond, logger.NewWriterLogger(io.Discard))

	start := time.Now()
	if got := e.Compute(context.Background(), 3, time.Now()); got != 10 {
		t.Errorf("Compute = %d, expected fallback 10", got)
	}
	if time.Since(start) > time.Second {
		t.Error("predictor timeout was not applied")
	}
}

func TestFeatureContract_Build(t *testing.T) {
	// Wednesday 2025-06-18 14:30 -> weekday 2 (Monday = 0)
	now := time.Date(2025, 6, 18, 14, 30, 0, 0, time.UTC)

	count := FeaturesCount.Build(7, now)
	if len(count) != 1 || count[0] != 7 {
		t.Errorf("count contract = %v", count)
	}

	full := FeaturesCountHourWeekday.Build(7, now)
	expected := []float32{7, 14, 2}
	if len(full) != 3 {
		t.Fatalf("expected 3 features, got %v", full)
	}
	for i := range expected {
		if full[i] != expected[i] {
			t.Errorf("feature %d = %v, expected %v", i, full[i], expected[i])
		}
	}

	sunday := FeaturesCountHourWeekday.Build(0, time.Date(2025, 6, 22, 0, 0, 0, 0, time.UTC))
	if sunday[2] != 6 {
		t.Errorf("Sunday weekday = %v, expected 6", sunday[2])
	}
}

func TestParseFeatureContract(t *testing.T) {
	if _, err := ParseFeatureContract("count"); err != nil {
		t.Errorf("count should be valid: %v", err)
	}
	if _, err := ParseFeatureContract("count_hour_weekday"); err != nil {
		t.Errorf("count_hour_weekday should be valid: %v", err)
	}
	if _, err := ParseFeatureContract("two_axis"); err == nil {
		t.Error("expected error for unknown contract")
	}
}
