package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// shadowCutoff separates MOG2 foreground (255) from shadow pixels (127).
const shadowCutoff = 200

// ForegroundParams tunes the background model and mask cleanup.
type ForegroundParams struct {
	History         int     // Frames of memory for the background model
	VarThreshold    float64 // Squared Mahalanobis distance for a pixel to be foreground
	BlurKernel      int     // Gaussian pre-blur size, 0 disables
	MedianKernel    int     // Median filter size, 0 disables
	MorphKernel     int     // Elliptical opening kernel size, 0 disables
	MorphIterations int
}

// DefaultForegroundParams matches the calibrated 640x360 deployment.
func DefaultForegroundParams() ForegroundParams {
	return ForegroundParams{
		History:         1000,
		VarThreshold:    25,
		BlurKernel:      5,
		MedianKernel:    5,
		MorphKernel:     5,
		MorphIterations: 1,
	}
}

// ForegroundExtractor owns one adaptive background model. Each instance is
// independent, so several cameras can run side by side.
//
// Close must be called to release native resources.
type ForegroundExtractor struct {
	params     ForegroundParams
	subtractor gocv.BackgroundSubtractorMOG2
	kernel     gocv.Mat
	blurred    gocv.Mat
	raw        gocv.Mat
	binary     gocv.Mat
	mask       gocv.Mat
	frames     uint64
}

// NewForegroundExtractor creates an extractor with a fresh background model.
func NewForegroundExtractor(params ForegroundParams) *ForegroundExtractor {
	e := &ForegroundExtractor{
		params:     params,
		subtractor: gocv.NewBackgroundSubtractorMOG2WithParams(params.History, params.VarThreshold, true),
		blurred:    gocv.NewMat(),
		raw:        gocv.NewMat(),
		binary:     gocv.NewMat(),
		mask:       gocv.NewMat(),
		kernel:     gocv.NewMat(),
	}
	if k := params.MorphKernel; k > 0 {
		e.kernel.Close()
		e.kernel = gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(k, k))
	}
	return e
}

// Apply updates the background model with frame and returns the cleaned
// binary mask (0 or 255). The returned Mat is owned by the extractor and is
// overwritten by the next call.
func (e *ForegroundExtractor) Apply(frame gocv.Mat) (gocv.Mat, error) {
	if frame.Empty() {
		return e.mask, fmt.Errorf("empty frame")
	}

	src := frame
	if k := oddKernel(e.params.BlurKernel); k > 1 {
		if err := gocv.GaussianBlur(frame, &e.blurred, image.Pt(k, k), 0, 0, gocv.BorderDefault); err != nil {
			return e.mask, fmt.Errorf("failed to blur frame: %w", err)
		}
		src = e.blurred
	}

	if err := e.subtractor.Apply(src, &e.raw); err != nil {
		return e.mask, fmt.Errorf("failed to apply background model: %w", err)
	}
	e.frames++

	gocv.Threshold(e.raw, &e.binary, shadowCutoff, 255, gocv.ThresholdBinary)

	if k := oddKernel(e.params.MedianKernel); k > 1 {
		if err := gocv.MedianBlur(e.binary, &e.mask, k); err != nil {
			return e.mask, fmt.Errorf("failed to median filter mask: %w", err)
		}
	} else {
		e.binary.CopyTo(&e.mask)
	}

	if !e.kernel.Empty() {
		for i := 0; i < max(e.params.MorphIterations, 1); i++ {
			if err := gocv.MorphologyEx(e.mask, &e.mask, gocv.MorphOpen, e.kernel); err != nil {
				return e.mask, fmt.Errorf("failed to open mask: %w", err)
			}
		}
	}

	return e.mask, nil
}

// Frames returns how many frames the current background model has seen.
func (e *ForegroundExtractor) Frames() uint64 {
	return e.frames
}

// Reset discards the learned background. The next frames must be treated as
// a new calibration period.
func (e *ForegroundExtractor) Reset() {
	e.subtractor.Close()
	e.subtractor = gocv.NewBackgroundSubtractorMOG2WithParams(e.params.History, e.params.VarThreshold, true)
	e.frames = 0
}

// Close releases the background model and scratch buffers.
func (e *ForegroundExtractor) Close() error {
	e.subtractor.Close()
	e.kernel.Close()
	e.blurred.Close()
	e.raw.Close()
	e.binary.Close()
	e.mask.Close()
	return nil
}

// oddKernel rounds k up to the next odd size, as required by the blur filters.
func oddKernel(k int) int {
	if k <= 1 {
		return 0
	}
	if k%2 == 0 {
		return k + 1
	}
	return k
}
