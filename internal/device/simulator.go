package device

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/TheB2D/Glass/internal/domain"
)

// Simulator is a Camera for local development. It synthesizes a small JPEG
// frame after a configurable latency so the capture path can be exercised
// without hardware.
type Simulator struct {
	latency time.Duration
	seq     atomic.Uint64
}

func NewSimulator(latency time.Duration) *Simulator {
	return &Simulator{latency: latency}
}

func (s *Simulator) RequestPhoto(ctx context.Context, userID string) (*domain.Photo, error) {
	if s.latency > 0 {
		select {
		case <-time.After(s.latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	n := s.seq.Add(1)

	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	shade := uint8(n * 37)
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: shade, G: uint8(x * 4), B: uint8(y * 5), A: 255})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 60}); err != nil {
		return nil, fmt.Errorf("encode simulated frame: %w", err)
	}

	return &domain.Photo{
		RequestID: uuid.New().String(),
		Bytes:     buf.Bytes(),
		MimeType:  "image/jpeg",
		Filename:  fmt.Sprintf("sim-%d.jpg", n),
		Timestamp: time.Now(),
		Size:      buf.Len(),
	}, nil
}
