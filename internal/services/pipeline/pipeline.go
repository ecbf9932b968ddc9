package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"trafficsignal/internal/config"
	"trafficsignal/internal/logger"
	"trafficsignal/internal/models"
	"trafficsignal/internal/services/counts"
	"trafficsignal/internal/services/reporter"
	"trafficsignal/internal/services/source"
	"trafficsignal/internal/services/timing"
	"trafficsignal/internal/services/vision"
	"trafficsignal/internal/services/zones"
)

// Options control frame handling in the loop.
type Options struct {
	Width             int
	Height            int
	FrameSkip         int // Process every Nth frame
	CalibrationPeriod time.Duration
	ReadRetryDelay    time.Duration
}

// OptionsFrom extracts loop settings from cfg.
func OptionsFrom(cfg *config.Config) Options {
	return Options{
		Width:             cfg.FrameWidth,
		Height:            cfg.FrameHeight,
		FrameSkip:         cfg.FrameSkip,
		CalibrationPeriod: cfg.CalibrationPeriod,
		ReadRetryDelay:    cfg.ReadRetryDelay,
	}
}

// Components are the collaborators a pipeline drives. The pipeline takes
// ownership of Source, Extractor and Detector and releases them when Run returns.
type Components struct {
	Source     source.FrameSource
	Extractor  *vision.ForegroundExtractor
	Detector   vision.ObjectDetector
	Zones      *zones.Table
	Engine     *timing.Engine
	Reporter   *reporter.Reporter
	Publishers []SnapshotPublisher
}

// Pipeline is the single loop that turns frames into zone counts, green times
// and periodic reports. All mutable state is owned by the goroutine calling Run;
// other goroutines observe it only through published snapshots.
type Pipeline struct {
	id         string
	source     source.FrameSource
	extractor  *vision.ForegroundExtractor
	detector   vision.ObjectDetector
	zones      *zones.Table
	counts     *counts.Aggregator
	engine     *timing.Engine
	reporter   *reporter.Reporter
	publishers []SnapshotPublisher
	opts       Options
	logger     *logger.Logger
	now        func() time.Time

	recalibrate chan struct{}

	frameCounter int
	frameSeq     uint64
	timings      models.AxisTimings
	calibrated   bool
	released     bool
}

func New(c Components, opts Options, logger *logger.Logger) *Pipeline {
	if opts.FrameSkip < 1 {
		opts.FrameSkip = 1
	}
	return &Pipeline{
		id:         uuid.NewString(),
		source:     c.Source,
		extractor:  c.Extractor,
		detector:   c.Detector,
		zones:      c.Zones,
		counts:     counts.NewAggregator(),
		engine:     c.Engine,
		reporter:   c.Reporter,
		publishers: c.Publishers,
		opts:       opts,
		logger:     logger,
		now:        time.Now,

		recalibrate: make(chan struct{}, 1),
	}
}

// RequestRecalibration asks the loop to discard the learned background and
// calibrate again before the next frame. Safe to call from any goroutine.
func (p *Pipeline) RequestRecalibration() {
	select {
	case p.recalibrate <- struct{}{}:
	default:
	}
}

// ID identifies this pipeline instance in snapshots and logs.
func (p *Pipeline) ID() string {
	return p.id
}

// Run calibrates the background model and then processes frames until ctx is
// done or a finite source is exhausted. Source, detector and extractor are
// released on every return path.
func (p *Pipeline) Run(ctx context.Context) error {
	defer p.release()

	frame := gocv.NewMat()
	defer frame.Close()
	scaled := gocv.NewMat()
	defer scaled.Close()

	p.logger.Info("Pipeline %s started on %s (detector %s, every %d frame(s))",
		p.id, p.source.Name(), p.detector.Name(), p.opts.FrameSkip)

	if err := p.calibrate(ctx, &frame, &scaled); err != nil {
		if errors.Is(err, source.ErrEndOfStream) || ctx.Err() != nil {
			p.logger.Info("Pipeline %s stopped during calibration: %v", p.id, err)
			return nil
		}
		return err
	}

	p.timings = p.engine.ComputeAxes(ctx, 0, 0, p.now())
	p.reporter.Start(p.now())
	p.publish()

	for {
		if ctx.Err() != nil {
			p.logger.Info("Pipeline %s stopping: %v", p.id, ctx.Err())
			return nil
		}

		select {
		case <-p.recalibrate:
			p.extractor.Reset()
			p.calibrated = false
			p.publish()
			if err := p.calibrate(ctx, &frame, &scaled); err != nil {
				p.logger.Info("Pipeline %s stopped during recalibration: %v", p.id, err)
				return nil
			}
			p.publish()
		default:
		}

		if err := p.source.Read(ctx, &frame); err != nil {
			if errors.Is(err, source.ErrEndOfStream) {
				p.logger.Info("Pipeline %s: source %s exhausted", p.id, p.source.Name())
				return nil
			}
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warning("Frame read failed, retrying in %v: %v", p.opts.ReadRetryDelay, err)
			p.sleep(ctx, p.opts.ReadRetryDelay)
			continue
		}

		p.frameCounter++
		if p.frameCounter%p.opts.FrameSkip == 0 {
			p.frameCounter = 0
			if err := p.process(ctx, frame, &scaled); err != nil {
				p.logger.Error("Frame %d discarded: %v", p.frameSeq, err)
			}
		}

		ns, ew := p.counts.Totals()
		p.reporter.Tick(ctx, p.now(), ns, ew, p.timings)
	}
}

// Calibrate feeds frames to the background model for the calibration period
// without producing counts.
func (p *Pipeline) Calibrate(ctx context.Context) error {
	frame := gocv.NewMat()
	defer frame.Close()
	scaled := gocv.NewMat()
	defer scaled.Close()
	return p.calibrate(ctx, &frame, &scaled)
}

func (p *Pipeline) calibrate(ctx context.Context, frame, scaled *gocv.Mat) error {
	if p.opts.CalibrationPeriod <= 0 {
		p.calibrated = true
		return nil
	}

	p.logger.Info("Calibrating background model for %v", p.opts.CalibrationPeriod)
	deadline := p.now().Add(p.opts.CalibrationPeriod)
	fed := 0
	for p.now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.source.Read(ctx, frame); err != nil {
			if errors.Is(err, source.ErrEndOfStream) || ctx.Err() != nil {
				return err
			}
			p.logger.Warning("Frame read failed during calibration: %v", err)
			p.sleep(ctx, p.opts.ReadRetryDelay)
			continue
		}
		src, err := p.fit(*frame, scaled)
		if err != nil {
			p.logger.Warning("Calibration frame skipped: %v", err)
			continue
		}
		if _, err := p.extractor.Apply(src); err != nil {
			p.logger.Warning("Calibration frame skipped: %v", err)
			continue
		}
		fed++
	}

	p.calibrated = true
	p.logger.Info("Calibration complete after %d frames", fed)
	return nil
}

// process runs one frame through detection and publishes the new state.
func (p *Pipeline) process(ctx context.Context, frame gocv.Mat, scaled *gocv.Mat) error {
	src, err := p.fit(frame, scaled)
	if err != nil {
		return err
	}

	mask, err := p.extractor.Apply(src)
	if err != nil {
		return fmt.Errorf("failed to extract foreground: %w", err)
	}
	objects, err := p.detector.Detect(src, mask)
	if err != nil {
		return fmt.Errorf("failed to detect objects: %w", err)
	}

	p.counts.Replace(p.zones.Assign(objects))
	p.frameSeq++

	ns, ew := p.counts.Totals()
	p.timings = p.engine.ComputeAxes(ctx, ns, ew, p.now())
	p.publish()
	return nil
}

// fit scales frame to the configured resolution, reusing scaled as the buffer.
func (p *Pipeline) fit(frame gocv.Mat, scaled *gocv.Mat) (gocv.Mat, error) {
	if p.opts.Width <= 0 || p.opts.Height <= 0 ||
		(frame.Cols() == p.opts.Width && frame.Rows() == p.opts.Height) {
		return frame, nil
	}
	if frame.Empty() {
		return frame, fmt.Errorf("failed to resize frame: empty frame")
	}
	if err := gocv.Resize(frame, scaled, image.Pt(p.opts.Width, p.opts.Height), 0, 0, gocv.InterpolationLinear); err != nil {
		return frame, fmt.Errorf("failed to resize frame: %w", err)
	}
	return *scaled, nil
}

func (p *Pipeline) publish() {
	ns, ew := p.counts.Totals()
	snap := models.Snapshot{
		PipelineID:  p.id,
		FrameSeq:    p.frameSeq,
		ProcessedAt: p.now(),
		Counts:      p.counts.Counts(),
		NSVehicles:  ns,
		EWVehicles:  ew,
		Timings:     p.timings,
		Calibrated:  p.calibrated,
	}
	for _, pub := range p.publishers {
		pub.PublishSnapshot(snap)
	}
}

func (p *Pipeline) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (p *Pipeline) release() {
	if p.released {
		return
	}
	p.released = true

	if err := p.source.Close(); err != nil {
		p.logger.Warning("Failed to close source: %v", err)
	}
	if err := p.detector.Close(); err != nil {
		p.logger.Warning("Failed to close detector: %v", err)
	}
	if err := p.extractor.Close(); err != nil {
		p.logger.Warning("Failed to close extractor: %v", err)
	}
	p.logger.Info("Pipeline %s released after %d processed frames", p.id, p.frameSeq)
}
