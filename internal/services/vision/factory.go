package vision

import (
	"fmt"

	"trafficsignal/internal/config"
)

// NewObjectDetector creates the detection strategy named by cfg.Detector.
func NewObjectDetector(cfg *config.Config) (ObjectDetector, error) {
	switch cfg.Detector {
	case "contour", "":
		return NewContourDetector(ContourParams{
			MinArea:   cfg.ScaledMinArea(),
			AspectMin: cfg.AspectMin,
			AspectMax: cfg.AspectMax,
			MinHeight: cfg.MinObjectHeight,
		}), nil
	case "dnn":
		return NewDNNDetector(cfg.DNNModelPath, cfg.DNNConfigPath, cfg.DNNConfidence)
	default:
		return nil, fmt.Errorf("unknown detector %q", cfg.Detector)
	}
}

// ForegroundParamsFrom extracts background model settings from cfg.
func ForegroundParamsFrom(cfg *config.Config) ForegroundParams {
	return ForegroundParams{
		History:         cfg.BackgroundHistory,
		VarThreshold:    cfg.BackgroundVarThreshold,
		BlurKernel:      cfg.BlurKernel,
		MedianKernel:    cfg.MedianKernel,
		MorphKernel:     cfg.MorphKernel,
		MorphIterations: cfg.MorphIterations,
	}
}
