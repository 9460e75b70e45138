package events

import (
	"context"

	"github.com/TheB2D/Glass/internal/domain"
)

// Producer publishes capture metadata for downstream consumers (analytics,
// gallery indexing). Publishing is best effort and never blocks the capture
// path.
type Producer interface {
	PublishCapture(ctx context.Context, ev *domain.CaptureEvent) error
	Close() error
}

// NopProducer is used when events are disabled.
type NopProducer struct{}

func (NopProducer) PublishCapture(context.Context, *domain.CaptureEvent) error { return nil }
func (NopProducer) Close() error                                               { return nil }
