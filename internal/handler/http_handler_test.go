package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheB2D/Glass/internal/auth"
	"github.com/TheB2D/Glass/internal/cache"
	"github.com/TheB2D/Glass/internal/config"
	"github.com/TheB2D/Glass/internal/domain"
	"github.com/TheB2D/Glass/internal/service"
	"github.com/TheB2D/Glass/internal/stream"
)

type countingCamera struct {
	mu    sync.Mutex
	calls int
}

func (c *countingCamera) RequestPhoto(_ context.Context, _ string) (*domain.Photo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return &domain.Photo{
		RequestID: fmt.Sprintf("req-%d", c.calls),
		Bytes:     []byte{1, 2, 3},
		MimeType:  "image/jpeg",
		Timestamp: time.Now(),
		Size:      3,
	}, nil
}

func (c *countingCamera) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type nopBroadcaster struct{}

func (nopBroadcaster) BroadcastToFeed(string, interface{}) error { return nil }

type fixture struct {
	router  *gin.Engine
	tokens  *auth.Manager
	svc     service.PhotoService
	streams *stream.Coordinator
	camera  *countingCamera
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := auth.NewManager(config.AuthConfig{
		JWTSecret: "test-secret",
		TokenTTL:  time.Hour,
		Issuer:    "glass-test",
	})
	require.NoError(t, err)

	camera := &countingCamera{}
	svc := service.NewPhotoService(cache.NewMemoryCache(), nopBroadcaster{}, nil, nil)
	streams := stream.NewCoordinator(camera, svc, time.Second)

	r := gin.New()
	NewHTTPHandler(svc, streams, tokens, true).RegisterRoutes(r)

	return &fixture{router: r, tokens: tokens, svc: svc, streams: streams, camera: camera}
}

func (f *fixture) request(t *testing.T, method, path, token string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) token(t *testing.T, userID string) string {
	t.Helper()
	token, _, err := f.tokens.Generate(userID, userID)
	require.NoError(t, err)
	return token
}

func TestLatestPhotoRequiresAuth(t *testing.T) {
	f := newFixture(t)

	w := f.request(t, http.MethodGet, "/api/v1/photos/latest", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLatestPhotoNotFound(t *testing.T) {
	f := newFixture(t)

	w := f.request(t, http.MethodGet, "/api/v1/photos/latest", f.token(t, "u1"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND")
}

func TestLatestPhotoAfterCapture(t *testing.T) {
	f := newFixture(t)
	f.streams.StartSession("u1")
	f.svc.OnPhoto(context.Background(), "u1", &domain.Photo{
		RequestID: "req-7",
		Bytes:     []byte{9, 9},
		MimeType:  "image/jpeg",
		Timestamp: time.UnixMilli(1700000000000),
		Size:      2,
	})

	w := f.request(t, http.MethodGet, "/api/v1/photos/latest", f.token(t, "u1"), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data domain.PhotoMeta `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "req-7", resp.Data.RequestID)
	assert.Equal(t, int64(1700000000000), resp.Data.Timestamp)
	assert.False(t, resp.Data.Streaming)
}

func TestPhotoBytesByRequestID(t *testing.T) {
	f := newFixture(t)
	f.svc.OnPhoto(context.Background(), "u1", &domain.Photo{
		RequestID: "req-7",
		Bytes:     []byte{0xff, 0xd8},
		MimeType:  "image/jpeg",
		Timestamp: time.Now(),
		Size:      2,
	})

	w := f.request(t, http.MethodGet, "/api/v1/photos/req-7", f.token(t, "u1"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, []byte{0xff, 0xd8}, w.Body.Bytes())

	w = f.request(t, http.MethodGet, "/api/v1/photos/req-stale", f.token(t, "u1"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPhotoIsolatedPerUser(t *testing.T) {
	f := newFixture(t)
	f.svc.OnPhoto(context.Background(), "u1", &domain.Photo{
		RequestID: "req-7",
		Bytes:     []byte{1},
		MimeType:  "image/jpeg",
		Timestamp: time.Now(),
		Size:      1,
	})

	// Another user cannot read u1's photo by guessing the request id.
	w := f.request(t, http.MethodGet, "/api/v1/photos/req-7", f.token(t, "u2"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestToggleStream(t *testing.T) {
	f := newFixture(t)

	// No session yet: the toggle has nothing to act on.
	w := f.request(t, http.MethodPost, "/api/v1/stream/toggle", f.token(t, "u1"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	f.streams.StartSession("u1")

	w = f.request(t, http.MethodPost, "/api/v1/stream/toggle", f.token(t, "u1"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"streaming":true`)

	w = f.request(t, http.MethodPost, "/api/v1/stream/toggle", f.token(t, "u1"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"streaming":false`)
}

func TestTriggerCapture(t *testing.T) {
	f := newFixture(t)
	f.streams.StartSession("u1")

	w := f.request(t, http.MethodPost, "/api/v1/capture", f.token(t, "u1"), nil)
	assert.Equal(t, http.StatusAccepted, w.Code)

	require.Eventually(t, func() bool {
		return f.camera.callCount() == 1
	}, time.Second, time.Millisecond)
}

func TestIssueDevToken(t *testing.T) {
	f := newFixture(t)

	body := []byte(`{"userId":"u1","username":"alice"}`)
	w := f.request(t, http.MethodPost, "/api/v1/auth/token", "", body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	claims, err := f.tokens.Validate(resp.Data.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
}

func TestIssueDevTokenValidatesBody(t *testing.T) {
	f := newFixture(t)

	w := f.request(t, http.MethodPost, "/api/v1/auth/token", "", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
