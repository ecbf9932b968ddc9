package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"trafficsignal/internal/models"
)

// Reference calibration: zone coordinates and the minimum vehicle area were
// measured on 1920x1080 footage.
const (
	ReferenceWidth   = 1920
	ReferenceHeight  = 1080
	ReferenceMinArea = 2300
)

type Config struct {
	Port         int
	LogDirectory string

	// Frame source
	FrameSource    string // "capture" or "udp"
	CameraURL      string
	UDPPort        int
	FrameWidth     int
	FrameHeight    int
	FrameSkip      int // Process every Nth frame (1 = every frame)
	ReadRetryDelay time.Duration

	// Zones
	Zones      map[models.ZoneName]models.Rect // Explicit overrides from env
	ZoneWidenX int
	ZoneWidenY int
	ZonesDB    string

	// Foreground extraction
	BackgroundHistory      int
	BackgroundVarThreshold float64
	BlurKernel             int
	MedianKernel           int
	MorphKernel            int
	MorphIterations        int
	CalibrationPeriod      time.Duration

	// Object detection
	Detector         string // "contour" or "dnn"
	MinObjectArea    float64
	ReferenceMinArea float64
	AspectMin        float64
	AspectMax        float64
	MinObjectHeight  int
	DNNModelPath     string
	DNNConfigPath    string
	DNNConfidence    float64

	// Timing
	MinGreen          int
	MaxGreen          int
	FallbackGreen     int
	Predictor         string // "onnx", "http" or "none"
	PredictorFeatures string // "count" or "count_hour_weekday"
	ModelPath         string
	ONNXLibraryPath   string
	PredictorURL      string
	PredictorTimeout  time.Duration

	// Reporting
	BackendURL      string
	ReportInterval  time.Duration
	ReportTimings   bool
	DeliveryTimeout time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Port:         getEnvAsInt("PORT", 8080),
		LogDirectory: getEnv("LOG_DIR", filepath.Join(".", "logs")),

		FrameSource:    getEnv("FRAME_SOURCE", "capture"),
		CameraURL:      getEnv("CAMERA_URL", "0"),
		UDPPort:        getEnvAsInt("UDP_PORT", 5005),
		FrameWidth:     getEnvAsInt("FRAME_WIDTH", 640),
		FrameHeight:    getEnvAsInt("FRAME_HEIGHT", 360),
		FrameSkip:      getEnvAsInt("FRAME_SKIP", 1),
		ReadRetryDelay: getEnvAsDuration("READ_RETRY_DELAY", time.Second),

		Zones:      make(map[models.ZoneName]models.Rect),
		ZoneWidenX: getEnvAsInt("ZONE_WIDEN_X", 0),
		ZoneWidenY: getEnvAsInt("ZONE_WIDEN_Y", 0),
		ZonesDB:    getEnv("ZONES_DB", ""),

		BackgroundHistory:      getEnvAsInt("BG_HISTORY", 1000),
		BackgroundVarThreshold: getEnvAsFloat("BG_VAR_THRESHOLD", 25),
		BlurKernel:             getEnvAsInt("BLUR_KERNEL", 5),
		MedianKernel:           getEnvAsInt("MEDIAN_KERNEL", 5),
		MorphKernel:            getEnvAsInt("MORPH_KERNEL", 5),
		MorphIterations:        getEnvAsInt("MORPH_ITERATIONS", 1),
		CalibrationPeriod:      time.Duration(getEnvAsInt("CALIBRATION_SECONDS", 5)) * time.Second,

		Detector:         getEnv("DETECTOR", "contour"),
		MinObjectArea:    getEnvAsFloat("MIN_OBJECT_AREA", 0),
		ReferenceMinArea: getEnvAsFloat("REFERENCE_MIN_AREA", ReferenceMinArea),
		AspectMin:        getEnvAsFloat("ASPECT_MIN", 0.8),
		AspectMax:        getEnvAsFloat("ASPECT_MAX", 3.5),
		MinObjectHeight:  getEnvAsInt("MIN_OBJECT_HEIGHT", 15),
		DNNModelPath:     getEnv("DNN_MODEL_PATH", filepath.Join(".", "models", "frozen_inference_graph.pb")),
		DNNConfigPath:    getEnv("DNN_CONFIG_PATH", filepath.Join(".", "models", "ssd_mobilenet_v1_coco_2017_11_17.pbtxt")),
		DNNConfidence:    getEnvAsFloat("DNN_CONFIDENCE", 0.5),

		MinGreen:          getEnvAsInt("MIN_GREEN", 10),
		MaxGreen:          getEnvAsInt("MAX_GREEN", 60),
		FallbackGreen:     getEnvAsInt("FALLBACK_GREEN", 10),
		Predictor:         getEnv("PREDICTOR", "onnx"),
		PredictorFeatures: getEnv("PREDICTOR_FEATURES", "count_hour_weekday"),
		ModelPath:         getEnv("MODEL_PATH", filepath.Join(".", "models", "traffic_model.onnx")),
		ONNXLibraryPath:   getEnv("ONNX_LIBRARY_PATH", ""),
		PredictorURL:      getEnv("PREDICTOR_URL", "http://localhost:5002/predict"),
		PredictorTimeout:  getEnvAsDuration("PREDICTOR_TIMEOUT", 500*time.Millisecond),

		BackendURL:      getEnv("BACKEND_URL", "http://localhost:5001/api/signal-timings"),
		ReportInterval:  getEnvAsDuration("REPORT_INTERVAL", 3*time.Second),
		ReportTimings:   getEnvAsBool("REPORT_TIMINGS", false),
		DeliveryTimeout: getEnvAsDuration("DELIVERY_TIMEOUT", 2*time.Second),
	}

	for _, name := range models.ZoneNames {
		key := "ZONE_" + strings.ToUpper(string(name))
		value := os.Getenv(key)
		if value == "" {
			continue
		}
		rect, err := ParseRect(value)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		cfg.Zones[name] = rect
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks option combinations that would make the pipeline meaningless.
func (c *Config) Validate() error {
	if c.FrameWidth <= 0 || c.FrameHeight <= 0 {
		return fmt.Errorf("frame size must be positive, got %dx%d", c.FrameWidth, c.FrameHeight)
	}
	if c.FrameSkip < 1 {
		return fmt.Errorf("FRAME_SKIP must be at least 1, got %d", c.FrameSkip)
	}
	if c.MinGreen < 0 || c.MaxGreen < c.MinGreen {
		return fmt.Errorf("green bounds [%d, %d] are invalid", c.MinGreen, c.MaxGreen)
	}
	if c.FallbackGreen < c.MinGreen || c.FallbackGreen > c.MaxGreen {
		return fmt.Errorf("FALLBACK_GREEN %d outside [%d, %d]", c.FallbackGreen, c.MinGreen, c.MaxGreen)
	}
	if c.AspectMin >= c.AspectMax {
		return fmt.Errorf("aspect band (%.2f, %.2f) is empty", c.AspectMin, c.AspectMax)
	}
	if c.ReportInterval <= 0 {
		return fmt.Errorf("REPORT_INTERVAL must be positive")
	}
	switch c.FrameSource {
	case "capture", "udp":
	default:
		return fmt.Errorf("unknown FRAME_SOURCE %q", c.FrameSource)
	}
	switch c.Detector {
	case "contour", "dnn":
	default:
		return fmt.Errorf("unknown DETECTOR %q", c.Detector)
	}
	return nil
}

// ScaledMinArea is the minimum contour area at the configured resolution.
// Area scales with the pixel count, so the reference threshold is divided by
// the ratio of reference pixels to configured pixels.
func (c *Config) ScaledMinArea() float64 {
	if c.MinObjectArea > 0 {
		return c.MinObjectArea
	}
	ratio := float64(ReferenceWidth*ReferenceHeight) / float64(c.FrameWidth*c.FrameHeight)
	return c.ReferenceMinArea / ratio
}

// ParseRect parses "x1,y1,x2,y2".
func ParseRect(s string) (models.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return models.Rect{}, fmt.Errorf("expected x1,y1,x2,y2, got %q", s)
	}
	vals := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return models.Rect{}, fmt.Errorf("bad coordinate %q: %w", p, err)
		}
		vals[i] = v
	}
	rect := models.Rect{MinX: vals[0], MinY: vals[1], MaxX: vals[2], MaxY: vals[3]}
	if !rect.Valid() {
		return models.Rect{}, fmt.Errorf("rectangle %q has no interior", s)
	}
	return rect, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("2s", "500ms") or plain seconds ("3").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return defaultValue
}
