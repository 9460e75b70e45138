package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/TheB2D/Glass/internal/auth"
	"github.com/TheB2D/Glass/internal/domain"
	"github.com/TheB2D/Glass/internal/hub"
	"github.com/TheB2D/Glass/internal/log"
	"github.com/TheB2D/Glass/internal/response"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades viewer connections and subscribes them to their photo
// feed.
type WSHandler struct {
	hub    *hub.Hub
	tokens *auth.Manager
}

func NewWSHandler(h *hub.Hub, tokens *auth.Manager) *WSHandler {
	return &WSHandler{hub: h, tokens: tokens}
}

func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws", h.HandleWebSocket)
}

func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	token := auth.TokenFromRequest(c.Request)
	if token == "" {
		response.Unauthorized(c, "missing token")
		return
	}

	claims, err := h.tokens.Validate(token)
	if err != nil {
		response.Unauthorized(c, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Ctx(c.Request.Context()).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), claims.UserID, conn, h.hub, h.hub.Config())
	h.hub.Register(client)
	h.hub.JoinFeed(client, claims.UserID)

	go client.WritePump()
	go client.ReadPump(h.handleMessage)
}

// handleMessage processes the thin inbound protocol: viewers only ever send
// pings; photos flow the other way.
func (h *WSHandler) handleMessage(client *hub.Client, message []byte) {
	var base domain.BaseMessage
	if err := json.Unmarshal(message, &base); err != nil {
		client.SendMessage(domain.NewErrorMessage("BAD_REQUEST", "invalid message format"))
		return
	}

	switch base.Type {
	case domain.MsgTypePing:
		client.SendMessage(domain.PongMessage{Type: domain.MsgTypePong})
	default:
		client.SendMessage(domain.NewErrorMessage("BAD_REQUEST", "unknown message type"))
	}
}
