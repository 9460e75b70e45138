// Package stream owns the per-user capture state machine: when to ask the
// device for a photo, and how to keep a slow device from being asked twice.
package stream

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/TheB2D/Glass/internal/audit"
	"github.com/TheB2D/Glass/internal/device"
	"github.com/TheB2D/Glass/internal/domain"
	"github.com/TheB2D/Glass/internal/log"
)

// ErrNoSession reports an operation on a user with no active session.
var ErrNoSession = errors.New("no active session")

// Sink receives each successfully captured photo exactly once.
type Sink interface {
	OnPhoto(ctx context.Context, userID string, photo *domain.Photo)
}

// session is the streaming state for one active user. All fields are
// guarded by the coordinator mutex; the capture call itself always runs
// outside it.
type session struct {
	streaming     bool
	nextCaptureAt time.Time
	inFlight      bool
}

// Coordinator decides when to issue capture requests. Invariants: at most
// one capture in flight per user; a request stays in flight until its
// outcome has been handled, sink delivery included; the next eligible time
// advances before dispatch so a slow capture cannot trigger back-to-back
// requests.
type Coordinator struct {
	mu       sync.Mutex
	sessions map[string]*session

	camera   device.Camera
	sink     Sink
	interval time.Duration

	now    func() time.Time
	logger zerolog.Logger
}

func NewCoordinator(camera device.Camera, sink Sink, interval time.Duration) *Coordinator {
	return &Coordinator{
		sessions: make(map[string]*session),
		camera:   camera,
		sink:     sink,
		interval: interval,
		now:      time.Now,
		logger:   log.L().With().Str(log.FieldComponent, "stream").Logger(),
	}
}

// StartSession creates state for a user: streaming off, eligible now.
// Starting an already-started session is a no-op.
func (c *Coordinator) StartSession(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.sessions[userID]; ok {
		return
	}
	c.sessions[userID] = &session{nextCaptureAt: c.now()}
	audit.Log(context.Background(), audit.ActionSessionStart, userID, "session started")
}

// StopSession discards the user's state. Captures already in flight are not
// cancelled; their completion becomes a no-op.
func (c *Coordinator) StopSession(userID string) {
	c.mu.Lock()
	_, ok := c.sessions[userID]
	delete(c.sessions, userID)
	c.mu.Unlock()

	if ok {
		audit.Log(context.Background(), audit.ActionSessionStop, userID, "session stopped")
	}
}

// HandleButton processes a device button press. A long press toggles
// streaming; a short press requests one photo unless a capture is already in
// flight, in which case the press is dropped.
func (c *Coordinator) HandleButton(userID string, press device.PressKind) {
	c.mu.Lock()
	s, ok := c.sessions[userID]
	if !ok {
		c.mu.Unlock()
		c.logger.Warn().Str(log.FieldUserID, userID).Msg("button event for unknown session")
		return
	}

	if press == device.PressLong {
		s.streaming = !s.streaming
		streaming := s.streaming
		c.mu.Unlock()
		c.logger.Info().Str(log.FieldUserID, userID).Bool("streaming", streaming).Msg("streaming toggled by button")
		return
	}

	if s.inFlight {
		c.mu.Unlock()
		c.logger.Info().Str(log.FieldUserID, userID).Msg("button press dropped, capture in flight")
		return
	}
	s.inFlight = true
	c.mu.Unlock()

	go c.capture(userID)
}

// Tick evaluates one user's streaming schedule. Called for every active
// session once per tick period.
func (c *Coordinator) Tick(userID string) {
	c.mu.Lock()
	s, ok := c.sessions[userID]
	if !ok || !s.streaming || s.inFlight || c.now().Before(s.nextCaptureAt) {
		c.mu.Unlock()
		return
	}

	// Advance before dispatch: the request rate is bounded by the interval,
	// not by how long the device takes to answer.
	s.nextCaptureAt = c.now().Add(c.interval)
	s.inFlight = true
	c.mu.Unlock()

	go c.capture(userID)
}

// Run drives the periodic tick for all sessions until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context, tickPeriod time.Duration) {
	ticker := time.NewTicker(tickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, userID := range c.activeUsers() {
				c.Tick(userID)
			}
		}
	}
}

// Toggle flips streaming for a user and returns the new state.
func (c *Coordinator) Toggle(userID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[userID]
	if !ok {
		return false, ErrNoSession
	}
	s.streaming = !s.streaming
	return s.streaming, nil
}

// Streaming reports whether auto-capture is enabled for the user.
func (c *Coordinator) Streaming(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[userID]
	return ok && s.streaming
}

func (c *Coordinator) activeUsers() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	users := make([]string, 0, len(c.sessions))
	for userID := range c.sessions {
		users = append(users, userID)
	}
	return users
}

// capture runs one request against the device and completes it. The caller
// has already set inFlight.
func (c *Coordinator) capture(userID string) {
	photo, err := c.camera.RequestPhoto(context.Background(), userID)
	c.complete(userID, photo, err)
}

// complete routes a capture outcome and clears inFlight. When the session
// is gone the completion is a no-op: the state is never resurrected.
func (c *Coordinator) complete(userID string, photo *domain.Photo, err error) {
	c.mu.Lock()
	s, ok := c.sessions[userID]
	if !ok {
		c.mu.Unlock()
		c.logger.Debug().Str(log.FieldUserID, userID).Msg("capture completed after session stop")
		return
	}

	if err != nil {
		s.inFlight = false
		disconnected := device.IsDisconnected(err)
		if disconnected {
			s.streaming = false
		}
		c.mu.Unlock()

		if disconnected {
			c.logger.Warn().Err(err).Str(log.FieldUserID, userID).Msg("device disconnected, streaming stopped")
		} else {
			c.logger.Error().Err(err).Str(log.FieldUserID, userID).Msg("capture failed")
		}
		audit.LogWithDetail(context.Background(), audit.ActionCaptureFailed, userID, err.Error(), "capture failed")
		return
	}
	c.mu.Unlock()

	// Deliver while still marked in flight: a button press or tick landing
	// mid-delivery cannot start an overlapping capture for the same user.
	c.sink.OnPhoto(context.Background(), userID, photo)

	c.mu.Lock()
	if s, ok := c.sessions[userID]; ok {
		s.inFlight = false
	}
	c.mu.Unlock()
}

// inFlight reports whether a capture is outstanding for the user.
func (c *Coordinator) inFlight(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[userID]
	return ok && s.inFlight
}
