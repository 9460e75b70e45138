package service

import (
	"bytes"
	"context"
	"time"

	"github.com/TheB2D/Glass/internal/audit"
	"github.com/TheB2D/Glass/internal/cache"
	"github.com/TheB2D/Glass/internal/domain"
	"github.com/TheB2D/Glass/internal/events"
	"github.com/TheB2D/Glass/internal/log"
	"github.com/TheB2D/Glass/internal/storage"
)

const persistTimeout = 30 * time.Second

// PhotoService receives completed captures and answers photo queries.
type PhotoService interface {
	// OnPhoto caches the photo, broadcasts it to the user's feed, and kicks
	// off best-effort persistence and event publishing. Implements the
	// coordinator's sink.
	OnPhoto(ctx context.Context, userID string, photo *domain.Photo)

	// LatestMeta returns metadata for the user's cached photo, or
	// cache.ErrNotFound.
	LatestMeta(ctx context.Context, userID string) (*domain.PhotoMeta, error)

	// PhotoByRequestID returns the cached photo iff requestID matches it.
	PhotoByRequestID(ctx context.Context, userID, requestID string) (*domain.Photo, error)
}

// Broadcaster is the slice of the hub the service needs.
type Broadcaster interface {
	BroadcastToFeed(feed string, msg interface{}) error
}

type photoService struct {
	cache    cache.PhotoCache
	hub      Broadcaster
	store    storage.Storage
	producer events.Producer
}

func NewPhotoService(c cache.PhotoCache, hub Broadcaster, store storage.Storage, producer events.Producer) PhotoService {
	return &photoService{
		cache:    c,
		hub:      hub,
		store:    store,
		producer: producer,
	}
}

func (s *photoService) OnPhoto(ctx context.Context, userID string, photo *domain.Photo) {
	l := log.Ctx(ctx)

	if err := s.cache.Put(ctx, userID, photo); err != nil {
		l.Error().Err(err).Str(log.FieldUserID, userID).Msg("failed to cache photo")
	}

	if err := s.hub.BroadcastToFeed(userID, domain.NewPhotoEnvelope(photo)); err != nil {
		l.Error().Err(err).Str(log.FieldUserID, userID).Msg("failed to broadcast photo")
	}

	audit.LogWithDetail(ctx, audit.ActionCapture, userID, photo.RequestID, "photo captured")

	// Persistence and event publishing stay off the capture path.
	go s.persist(userID, photo)
	go s.publish(userID, photo)
}

func (s *photoService) LatestMeta(ctx context.Context, userID string) (*domain.PhotoMeta, error) {
	photo, err := s.cache.Latest(ctx, userID)
	if err != nil {
		return nil, err
	}
	return photo.Meta(), nil
}

func (s *photoService) PhotoByRequestID(ctx context.Context, userID, requestID string) (*domain.Photo, error) {
	return s.cache.ByRequestID(ctx, userID, requestID)
}

func (s *photoService) persist(userID string, photo *domain.Photo) {
	if s.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	key := photoKey(userID, photo)
	err := s.store.Write(ctx, key, bytes.NewReader(photo.Bytes), int64(photo.Size), photo.MimeType)
	if err != nil {
		log.L().Warn().Err(err).Str(log.FieldUserID, userID).Str("key", key).Msg("failed to persist photo")
	}
}

func (s *photoService) publish(userID string, photo *domain.Photo) {
	if s.producer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	err := s.producer.PublishCapture(ctx, &domain.CaptureEvent{
		UserID:    userID,
		RequestID: photo.RequestID,
		MimeType:  photo.MimeType,
		Size:      photo.Size,
		Timestamp: photo.Timestamp.UnixMilli(),
	})
	if err != nil {
		log.L().Warn().Err(err).Str(log.FieldUserID, userID).Msg("failed to publish capture event")
	}
}

func photoKey(userID string, photo *domain.Photo) string {
	return "photos/" + userID + "/" + photo.RequestID + extForMime(photo.MimeType)
}

func extForMime(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}
