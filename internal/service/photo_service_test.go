package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheB2D/Glass/internal/cache"
	"github.com/TheB2D/Glass/internal/domain"
)

type recordedBroadcast struct {
	feed string
	msg  interface{}
}

type fakeBroadcaster struct {
	mu    sync.Mutex
	sends []recordedBroadcast
}

func (b *fakeBroadcaster) BroadcastToFeed(feed string, msg interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sends = append(b.sends, recordedBroadcast{feed: feed, msg: msg})
	return nil
}

func (b *fakeBroadcaster) all() []recordedBroadcast {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]recordedBroadcast(nil), b.sends...)
}

type fakeStorage struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (s *fakeStorage) Write(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	io.Copy(io.Discard, r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.keys = append(s.keys, key)
	return nil
}

func (s *fakeStorage) Read(context.Context, string) (io.ReadCloser, error) { return nil, nil }
func (s *fakeStorage) Exists(context.Context, string) (bool, error)       { return false, nil }
func (s *fakeStorage) Delete(context.Context, string) error               { return nil }

func (s *fakeStorage) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}

type fakeProducer struct {
	mu     sync.Mutex
	events []*domain.CaptureEvent
}

func (p *fakeProducer) PublishCapture(_ context.Context, ev *domain.CaptureEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *fakeProducer) Close() error { return nil }

func (p *fakeProducer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func testPhoto() *domain.Photo {
	return &domain.Photo{
		RequestID: "req-1",
		Bytes:     []byte{0xff, 0xd8, 0xff},
		MimeType:  "image/jpeg",
		Filename:  "photo.jpg",
		Timestamp: time.UnixMilli(1700000000000),
		Size:      3,
	}
}

func TestLatestMetaNotFoundThenFound(t *testing.T) {
	broadcaster := &fakeBroadcaster{}
	svc := NewPhotoService(cache.NewMemoryCache(), broadcaster, nil, nil)
	ctx := context.Background()

	_, err := svc.LatestMeta(ctx, "u1")
	assert.ErrorIs(t, err, cache.ErrNotFound)

	svc.OnPhoto(ctx, "u1", testPhoto())

	meta, err := svc.LatestMeta(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "req-1", meta.RequestID)
	assert.Equal(t, int64(1700000000000), meta.Timestamp)
}

func TestOnPhotoCachesBroadcastsPersistsPublishes(t *testing.T) {
	broadcaster := &fakeBroadcaster{}
	store := &fakeStorage{}
	producer := &fakeProducer{}
	svc := NewPhotoService(cache.NewMemoryCache(), broadcaster, store, producer)
	ctx := context.Background()

	svc.OnPhoto(ctx, "u1", testPhoto())

	sends := broadcaster.all()
	require.Len(t, sends, 1)
	assert.Equal(t, "u1", sends[0].feed)

	env, ok := sends[0].msg.(*domain.PhotoEnvelope)
	require.True(t, ok)
	assert.Equal(t, domain.MsgTypePhoto, env.Type)
	assert.Equal(t, "image/jpeg", env.MimeType)
	assert.Equal(t, 3, env.Size)

	photo, err := svc.PhotoByRequestID(ctx, "u1", "req-1")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, photo.Bytes)

	// Persistence and event publishing run off the capture path.
	require.Eventually(t, func() bool {
		return store.writeCount() == 1 && producer.count() == 1
	}, time.Second, time.Millisecond)
	assert.Equal(t, []string{"photos/u1/req-1.jpg"}, store.keys)
}

func TestPersistFailureDoesNotAffectCacheOrBroadcast(t *testing.T) {
	broadcaster := &fakeBroadcaster{}
	store := &fakeStorage{err: errors.New("disk full")}
	svc := NewPhotoService(cache.NewMemoryCache(), broadcaster, store, nil)
	ctx := context.Background()

	svc.OnPhoto(ctx, "u1", testPhoto())

	assert.Len(t, broadcaster.all(), 1)

	meta, err := svc.LatestMeta(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "req-1", meta.RequestID)
}

func TestPhotoByRequestIDMismatch(t *testing.T) {
	svc := NewPhotoService(cache.NewMemoryCache(), &fakeBroadcaster{}, nil, nil)
	ctx := context.Background()

	svc.OnPhoto(ctx, "u1", testPhoto())

	_, err := svc.PhotoByRequestID(ctx, "u1", "req-stale")
	assert.ErrorIs(t, err, cache.ErrNotFound)
}

func TestExtForMime(t *testing.T) {
	assert.Equal(t, ".jpg", extForMime("image/jpeg"))
	assert.Equal(t, ".png", extForMime("image/png"))
	assert.Equal(t, ".webp", extForMime("image/webp"))
	assert.Equal(t, ".bin", extForMime("application/octet-stream"))
}
