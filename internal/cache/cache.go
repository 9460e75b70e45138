package cache

import (
	"context"
	"errors"

	"github.com/TheB2D/Glass/internal/domain"
)

// ErrNotFound reports that no photo is cached for the user, or that the
// requested id no longer matches the cached photo.
var ErrNotFound = errors.New("photo not found")

// PhotoCache retains the single most recent photo per user. Put replaces any
// previous entry; there is no history.
type PhotoCache interface {
	Put(ctx context.Context, userID string, photo *domain.Photo) error
	Latest(ctx context.Context, userID string) (*domain.Photo, error)
	ByRequestID(ctx context.Context, userID, requestID string) (*domain.Photo, error)
}
