package source

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"gocv.io/x/gocv"
)

// CaptureSource reads from a camera device, a video file or a network stream
// through OpenCV's VideoCapture.
type CaptureSource struct {
	capture *gocv.VideoCapture
	name    string
	finite  bool
}

// OpenCapture opens url. A numeric url selects a local camera by index; an
// existing path is treated as a finite file that ends with ErrEndOfStream.
func OpenCapture(url string) (*CaptureSource, error) {
	var device interface{} = url
	finite := false
	if idx, err := strconv.Atoi(url); err == nil {
		device = idx
	} else if info, err := os.Stat(url); err == nil && !info.IsDir() {
		finite = true
	}

	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("failed to open video capture %q: %w", url, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("failed to open video capture %q", url)
	}

	return &CaptureSource{capture: vc, name: url, finite: finite}, nil
}

func (c *CaptureSource) Name() string {
	return "capture:" + c.name
}

func (c *CaptureSource) Read(ctx context.Context, dst *gocv.Mat) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ok := c.capture.Read(dst); !ok || dst.Empty() {
		if c.finite {
			return ErrEndOfStream
		}
		return fmt.Errorf("failed to grab frame from %s: %w", c.name, ErrFrameUnavailable)
	}
	return nil
}

func (c *CaptureSource) Close() error {
	return c.capture.Close()
}
