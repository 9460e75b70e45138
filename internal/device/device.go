// Package device defines the boundary to the wearable camera. The real SDK
// lives outside this repo; the core only depends on the Camera interface,
// the button press kinds, and the disconnect classification below.
package device

import (
	"context"
	"errors"
	"strings"

	"github.com/TheB2D/Glass/internal/domain"
)

// PressKind distinguishes the two hardware button gestures.
type PressKind string

const (
	PressShort PressKind = "short"
	PressLong  PressKind = "long"
)

// ButtonEvent is a single button press reported by the device.
type ButtonEvent struct {
	UserID string    `json:"userId"`
	Press  PressKind `json:"press"`
}

// Camera requests a single photo from the device. The call may take seconds
// and carries its own SDK-side timeout; callers must not hold locks across
// it.
type Camera interface {
	RequestPhoto(ctx context.Context, userID string) (*domain.Photo, error)
}

// ErrDisconnected reports that the device transport is gone. Auto-streaming
// stops for the affected user.
var ErrDisconnected = errors.New("device transport not connected")

// IsDisconnected classifies capture errors. SDK errors surface as plain
// strings, so the message is matched as well (e.g. "WebSocket not
// connected").
func IsDisconnected(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDisconnected) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "not connected")
}
