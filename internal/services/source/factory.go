package source

import (
	"fmt"

	"trafficsignal/internal/config"
	"trafficsignal/internal/logger"
)

// Open creates the frame source selected by cfg.FrameSource.
func Open(cfg *config.Config, logger *logger.Logger) (FrameSource, error) {
	switch cfg.FrameSource {
	case "capture", "":
		src, err := OpenCapture(cfg.CameraURL)
		if err != nil {
			return nil, err
		}
		logger.Info("Opened capture source %s", cfg.CameraURL)
		return src, nil
	case "udp":
		return ListenUDP(cfg.UDPPort, logger)
	default:
		return nil, fmt.Errorf("unknown frame source %q", cfg.FrameSource)
	}
}
