package timing

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Tensor names produced by skl2onnx for a single-output regressor.
const (
	onnxInputName  = "float_input"
	onnxOutputName = "variable"
)

// ONNXPredictor runs a regression model exported to ONNX in-process.
type ONNXPredictor struct {
	session  *ort.AdvancedSession
	input    *ort.Tensor[float32]
	output   *ort.Tensor[float32]
	features int
	mu       sync.Mutex
}

// NewONNXPredictor loads modelPath expecting a [1, features] float input and a
// [1, 1] float output. libraryPath points at the onnxruntime shared library;
// empty uses the platform default.
func NewONNXPredictor(modelPath, libraryPath string, features int) (*ONNXPredictor, error) {
	if !ort.IsInitialized() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(features)))
	if err != nil {
		return nil, fmt.Errorf("error creating input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("error creating output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{onnxInputName},
		[]string{onnxOutputName},
		[]ort.ArbitraryTensor{input},
		[]ort.ArbitraryTensor{output},
		nil,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("error creating session for %s: %w", modelPath, err)
	}

	return &ONNXPredictor{
		session:  session,
		input:    input,
		output:   output,
		features: features,
	}, nil
}

func (p *ONNXPredictor) Predict(ctx context.Context, features []float32) (float64, error) {
	if len(features) != p.features {
		return 0, fmt.Errorf("model expects %d features, got %d", p.features, len(features))
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	copy(p.input.GetData(), features)
	if err := p.session.Run(); err != nil {
		return 0, fmt.Errorf("model inference: %w", err)
	}
	out := p.output.GetData()
	if len(out) == 0 {
		return 0, fmt.Errorf("model produced no output")
	}
	return float64(out[0]), nil
}

func (p *ONNXPredictor) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session != nil {
		p.session.Destroy()
		p.session = nil
	}
	if p.input != nil {
		p.input.Destroy()
		p.input = nil
	}
	if p.output != nil {
		p.output.Destroy()
		p.output = nil
	}
	return ort.DestroyEnvironment()
}
