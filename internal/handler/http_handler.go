package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TheB2D/Glass/internal/audit"
	"github.com/TheB2D/Glass/internal/auth"
	"github.com/TheB2D/Glass/internal/cache"
	"github.com/TheB2D/Glass/internal/device"
	"github.com/TheB2D/Glass/internal/response"
	"github.com/TheB2D/Glass/internal/service"
	"github.com/TheB2D/Glass/internal/stream"
)

// HTTPHandler exposes the photo query surface and the streaming controls.
type HTTPHandler struct {
	photos    service.PhotoService
	streams   *stream.Coordinator
	tokens    *auth.Manager
	devTokens bool
}

func NewHTTPHandler(photos service.PhotoService, streams *stream.Coordinator, tokens *auth.Manager, devTokens bool) *HTTPHandler {
	return &HTTPHandler{
		photos:    photos,
		streams:   streams,
		tokens:    tokens,
		devTokens: devTokens,
	}
}

// RegisterRoutes registers all HTTP routes.
func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		if h.devTokens {
			api.POST("/auth/token", h.IssueDevToken)
		}

		authed := api.Group("")
		authed.Use(h.tokens.RequireAuth())
		{
			authed.GET("/photos/latest", h.GetLatestPhoto)
			authed.GET("/photos/:requestId", h.GetPhotoByID)
			authed.POST("/stream/toggle", h.ToggleStream)
			authed.POST("/capture", h.TriggerCapture)
		}
	}
}

// GetLatestPhoto returns metadata for the caller's cached photo plus the
// current streaming flag.
func (h *HTTPHandler) GetLatestPhoto(c *gin.Context) {
	userID := c.GetString(auth.UserIDKey)

	meta, err := h.photos.LatestMeta(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			response.NotFound(c, "no photo cached")
			return
		}
		response.InternalError(c, "failed to load photo metadata")
		return
	}

	meta.Streaming = h.streams.Streaming(userID)
	response.Success(c, meta)
}

// GetPhotoByID serves the cached photo bytes when requestId still matches.
func (h *HTTPHandler) GetPhotoByID(c *gin.Context) {
	userID := c.GetString(auth.UserIDKey)
	requestID := c.Param("requestId")

	photo, err := h.photos.PhotoByRequestID(c.Request.Context(), userID, requestID)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			response.NotFound(c, "photo not found")
			return
		}
		response.InternalError(c, "failed to load photo")
		return
	}

	c.Data(http.StatusOK, photo.MimeType, photo.Bytes)
}

// ToggleStream flips auto-capture for the caller's session.
func (h *HTTPHandler) ToggleStream(c *gin.Context) {
	userID := c.GetString(auth.UserIDKey)

	streaming, err := h.streams.Toggle(userID)
	if err != nil {
		if errors.Is(err, stream.ErrNoSession) {
			response.NotFound(c, "no active session")
			return
		}
		response.InternalError(c, "failed to toggle streaming")
		return
	}

	audit.Log(c.Request.Context(), audit.ActionStreamToggle, userID, "streaming toggled")
	response.Success(c, gin.H{"streaming": streaming})
}

// TriggerCapture acts like a short button press: fire-and-forget, and
// intentionally dropped when a capture is already in flight.
func (h *HTTPHandler) TriggerCapture(c *gin.Context) {
	userID := c.GetString(auth.UserIDKey)

	h.streams.HandleButton(userID, device.PressShort)
	response.Accepted(c, gin.H{"requested": true})
}

type devTokenRequest struct {
	UserID   string `json:"userId" binding:"required"`
	Username string `json:"username"`
}

// IssueDevToken mints a viewer token. Only mounted when auth.dev_tokens is
// enabled; never expose it in production.
func (h *HTTPHandler) IssueDevToken(c *gin.Context) {
	var req devTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	token, exp, err := h.tokens.Generate(req.UserID, req.Username)
	if err != nil {
		response.InternalError(c, "failed to issue token")
		return
	}

	audit.Log(c.Request.Context(), audit.ActionDevToken, req.UserID, "dev token issued")
	response.Success(c, gin.H{"token": token, "expiresAt": exp})
}
