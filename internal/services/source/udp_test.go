package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"trafficsignal/internal/logger"
)

func jpegLike(body ...byte) []byte {
	out := append([]byte{}, jpegHeader...)
	out = append(out, body...)
	return append(out, jpegFooter...)
}

func TestFrameAssembler(t *testing.T) {
	frame := jpegLike(1, 2, 3, 4, 5, 6)

	tests := []struct {
		name     string
		packets  [][]byte
		expected [][]byte
	}{
		{"single datagram", [][]byte{frame}, [][]byte{frame}},
		{"split across datagrams", [][]byte{frame[:3], frame[3:6], frame[6:]}, [][]byte{frame}},
		{"lost start is ignored", [][]byte{frame[4:], frame}, [][]byte{frame}},
		{"new header restarts frame", [][]byte{frame[:4], frame[:3], frame[3:]}, [][]byte{frame}},
		{"two frames back to back", [][]byte{frame, frame}, [][]byte{frame, frame}},
		{"incomplete frame", [][]byte{frame[:5]}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a frameAssembler
			var got [][]byte
			for _, p := range tt.packets {
				if f, ok := a.Push(p); ok {
					got = append(got, f)
				}
			}
			if len(got) != len(tt.expected) {
				t.Fatalf("got %d frames, expected %d", len(got), len(tt.expected))
			}
			for i := range got {
				if !bytes.Equal(got[i], tt.expected[i]) {
					t.Errorf("frame %d = %v, expected %v", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestFrameAssembler_ReturnsCopy(t *testing.T) {
	var a frameAssembler
	frame, ok := a.Push(jpegLike(9, 9))
	if !ok {
		t.Fatal("expected complete frame")
	}
	a.Push(jpegLike(1, 1))
	if frame[2] != 9 {
		t.Error("completed frame was overwritten by the next one")
	}
}

func TestUDPSource_ReceivesFrame(t *testing.T) {
	src, err := ListenUDP(0, logger.NewWriterLogger(io.Discard))
	if err != nil {
		t.Fatalf("ListenUDP failed: %v", err)
	}
	defer src.Close()

	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 255, 0), 48, 64, gocv.MatTypeCV8UC3)
	defer img.Close()
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		t.Fatalf("IMEncode failed: %v", err)
	}
	data := append([]byte{}, buf.GetBytes()...)
	buf.Close()

	port := src.Addr().(*net.UDPAddr).Port
	conn, err := net.Dial("udp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	for start := 0; start < len(data); start += 256 {
		end := start + 256
		if end > len(data) {
			end = len(data)
		}
		if _, err := conn.Write(data[start:end]); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	frame := gocv.NewMat()
	defer frame.Close()
	if err := src.Read(ctx, &frame); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if frame.Cols() != 64 || frame.Rows() != 48 {
		t.Errorf("decoded %dx%d, expected 64x48", frame.Cols(), frame.Rows())
	}
}

func TestUDPSource_ReadHonoursContextAndClose(t *testing.T) {
	src, err := ListenUDP(0, logger.NewWriterLogger(io.Discard))
	if err != nil {
		t.Fatalf("ListenUDP failed: %v", err)
	}

	frame := gocv.NewMat()
	defer frame.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := src.Read(ctx, &frame); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	src.Close()
	if err := src.Read(context.Background(), &frame); !errors.Is(err, ErrEndOfStream) {
		t.Errorf("expected ErrEndOfStream after Close, got %v", err)
	}
}

func TestOpenCapture_MissingFile(t *testing.T) {
	if _, err := OpenCapture("/nonexistent/intersection.mp4"); err == nil {
		t.Error("expected error opening missing file")
	}
}
