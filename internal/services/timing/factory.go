package timing

import (
	"fmt"

	"trafficsignal/internal/config"
	"trafficsignal/internal/logger"
)

// NewPredictor builds the predictor named by cfg.Predictor. A model that
// cannot be loaded is not fatal: the returned predictor fails every call and
// the engine serves the fallback green time.
func NewPredictor(cfg *config.Config, contract FeatureContract, logger *logger.Logger) Predictor {
	switch cfg.Predictor {
	case "onnx":
		p, err := NewONNXPredictor(cfg.ModelPath, cfg.ONNXLibraryPath, contract.Size())
		if err != nil {
			logger.Warning("Congestion model unavailable, green times will use fallback %ds: %v", cfg.FallbackGreen, err)
			return unavailablePredictor{cause: err}
		}
		logger.Info("Loaded congestion model %s (%s features)", cfg.ModelPath, contract)
		return p
	case "http":
		logger.Info("Using remote congestion model at %s (%s features)", cfg.PredictorURL, contract)
		return NewRemotePredictor(cfg.PredictorURL, cfg.PredictorTimeout)
	case "none":
		logger.Info("No congestion model configured, green times fixed at %ds", cfg.FallbackGreen)
		return unavailablePredictor{cause: ErrNoPredictor}
	default:
		err := fmt.Errorf("unknown predictor %q", cfg.Predictor)
		logger.Warning("%v, green times will use fallback", err)
		return unavailablePredictor{cause: err}
	}
}

// NewEngineFromConfig builds the predictor and the engine in one step.
func NewEngineFromConfig(cfg *config.Config, logger *logger.Logger) (*Engine, error) {
	contract, err := ParseFeatureContract(cfg.PredictorFeatures)
	if err != nil {
		return nil, err
	}
	predictor := NewPredictor(cfg, contract, logger)
	return NewEngine(predictor, contract, BoundsFrom(cfg), cfg.PredictorTimeout, logger), nil
}

// Close releases the predictor.
func (e *Engine) Close() error {
	if e.predictor == nil {
		return nil
	}
	return e.predictor.Close()
}
