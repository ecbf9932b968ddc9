package source

import (
	"context"
	"errors"

	"gocv.io/x/gocv"
)

var (
	// ErrEndOfStream is returned by finite sources (video files) once exhausted.
	ErrEndOfStream = errors.New("end of stream")
	// ErrFrameUnavailable marks a transient read failure; the caller may retry.
	ErrFrameUnavailable = errors.New("frame unavailable")
)

// FrameSource yields frames one at a time. Read blocks until a frame is written
// into dst, the source fails, or ctx is done.
type FrameSource interface {
	Name() string
	Read(ctx context.Context, dst *gocv.Mat) error
	Close() error
}
