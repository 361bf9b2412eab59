package capture

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/OrFisher/real-time-speech-processor/internal/shared"
)

// Chunk is one opaque unit of audio produced while recording is active.
type Chunk []byte

// Source is the capture-device abstraction. Open is where device access is
// granted or refused; a refused open must happen before any transport
// traffic, so the session can fail the start attempt fatally.
type Source interface {
	// Open acquires the device and starts emitting chunks at a fixed
	// cadence until ctx is cancelled or the underlying stream ends. The
	// returned channel is closed when capture stops.
	Open(ctx context.Context) (<-chan Chunk, error)
}

const (
	// 100ms of 16-bit mono 16kHz PCM.
	DefaultChunkSize = 3200
	DefaultInterval  = 100 * time.Millisecond
)

// StreamSource captures from a byte stream — a capture-device node, a FIFO
// fed by an OS recorder, or a file during development — and chops it into
// fixed-size chunks on a ticker to mimic live capture cadence.
type StreamSource struct {
	Path      string
	ChunkSize int
	Interval  time.Duration
	Logger    *slog.Logger
}

func NewStreamSource(path string, logger *slog.Logger) *StreamSource {
	return &StreamSource{
		Path:      path,
		ChunkSize: DefaultChunkSize,
		Interval:  DefaultInterval,
		Logger:    logger.With("component", "capture"),
	}
}

func (s *StreamSource) Open(ctx context.Context) (<-chan Chunk, error) {
	if s.Path == "" {
		return nil, fmt.Errorf("%w: no capture device configured", shared.ErrDeviceUnavailable)
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrDeviceUnavailable, err)
	}

	chunkSize := s.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	out := make(chan Chunk)
	go s.pump(ctx, f, chunkSize, interval, out)
	return out, nil
}

func (s *StreamSource) pump(ctx context.Context, f *os.File, chunkSize int, interval time.Duration, out chan<- Chunk) {
	defer close(out)
	defer f.Close()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	buf := make([]byte, chunkSize)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := io.ReadFull(f, buf)
			if n > 0 {
				chunk := make(Chunk, n)
				copy(chunk, buf[:n])
				select {
				case out <- chunk:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if err != io.EOF && err != io.ErrUnexpectedEOF {
					s.Logger.Error("capture read failed", "error", err)
				}
				return
			}
		}
	}
}
