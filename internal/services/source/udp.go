package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"gocv.io/x/gocv"

	"trafficsignal/internal/logger"
)

var (
	jpegHeader = []byte{0xFF, 0xD8}
	jpegFooter = []byte{0xFF, 0xD9}
)

// maxFrameSize bounds a reassembled frame so a lost footer cannot grow the buffer forever.
const maxFrameSize = 8 << 20

// frameAssembler rebuilds JPEG frames split across UDP datagrams. A datagram
// starting with SOI begins a new frame; one ending with EOI completes it.
type frameAssembler struct {
	buf bytes.Buffer
}

// Push appends a datagram and returns the completed frame, if any.
func (a *frameAssembler) Push(data []byte) ([]byte, bool) {
	if bytes.HasPrefix(data, jpegHeader) {
		a.buf.Reset()
	} else if a.buf.Len() == 0 {
		// Tail of a frame whose start was lost.
		return nil, false
	}
	if a.buf.Len()+len(data) > maxFrameSize {
		a.buf.Reset()
		return nil, false
	}
	a.buf.Write(data)

	if !bytes.HasSuffix(data, jpegFooter) {
		return nil, false
	}
	frame := make([]byte, a.buf.Len())
	copy(frame, a.buf.Bytes())
	a.buf.Reset()
	return frame, true
}

// UDPSource receives JPEG frames pushed by a camera over UDP. Only the newest
// complete frame is kept; older undelivered frames are dropped.
type UDPSource struct {
	conn   *net.UDPConn
	frames chan []byte
	done   chan struct{}
	logger *logger.Logger

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// ListenUDP binds the given port and starts reassembling frames.
func ListenUDP(port int, logger *logger.Logger) (*UDPSource, error) {
	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP address: %w", err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on UDP port %d: %w", port, err)
	}

	s := &UDPSource{
		conn:   conn,
		frames: make(chan []byte, 1),
		done:   make(chan struct{}),
		logger: logger,
	}
	s.wg.Add(1)
	go s.listen()

	logger.Info("UDP frame source listening on %s", conn.LocalAddr())
	return s, nil
}

// Addr returns the bound local address.
func (s *UDPSource) Addr() net.Addr {
	return s.conn.LocalAddr()
}

func (s *UDPSource) Name() string {
	return "udp:" + s.conn.LocalAddr().String()
}

func (s *UDPSource) listen() {
	defer s.wg.Done()

	buffer := make([]byte, 65535)
	assemblers := make(map[string]*frameAssembler)

	for {
		n, remoteAddr, err := s.conn.ReadFromUDP(buffer)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Error("Error reading UDP packet: %v", err)
			continue
		}

		sender := remoteAddr.IP.String()
		a, ok := assemblers[sender]
		if !ok {
			a = &frameAssembler{}
			assemblers[sender] = a
		}
		if frame, complete := a.Push(buffer[:n]); complete {
			s.offer(frame)
		}
	}
}

// offer delivers frame, replacing any frame the reader has not taken yet.
func (s *UDPSource) offer(frame []byte) {
	select {
	case s.frames <- frame:
		return
	default:
	}
	select {
	case <-s.frames:
	default:
	}
	select {
	case s.frames <- frame:
	default:
	}
}

func (s *UDPSource) Read(ctx context.Context, dst *gocv.Mat) error {
	var data []byte
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrEndOfStream
	case data = <-s.frames:
	}

	decoded, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return fmt.Errorf("failed to decode frame: %w", ErrFrameUnavailable)
	}
	defer decoded.Close()
	if decoded.Empty() {
		return fmt.Errorf("failed to decode frame: %w", ErrFrameUnavailable)
	}
	decoded.CopyTo(dst)
	return nil
}

func (s *UDPSource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.conn.Close()
		s.wg.Wait()
	})
	return err
}
