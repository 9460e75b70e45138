package domain

import "encoding/base64"

// WebSocket message types.
const (
	MsgTypePhoto = "photo"
	MsgTypePing  = "ping"
	MsgTypePong  = "pong"
	MsgTypeError = "error"
)

// BaseMessage is the minimal structure of any inbound WebSocket message.
type BaseMessage struct {
	Type string `json:"type"`
}

// PhotoEnvelope is the broadcast wire format. Field order and names are part
// of the protocol; timestamp is epoch milliseconds.
type PhotoEnvelope struct {
	Type      string `json:"type"`
	Data      string `json:"data"`
	MimeType  string `json:"mimeType"`
	Timestamp int64  `json:"timestamp"`
	Size      int    `json:"size"`
}

// NewPhotoEnvelope wraps a photo for broadcast, base64-encoding the bytes.
func NewPhotoEnvelope(p *Photo) *PhotoEnvelope {
	return &PhotoEnvelope{
		Type:      MsgTypePhoto,
		Data:      base64.StdEncoding.EncodeToString(p.Bytes),
		MimeType:  p.MimeType,
		Timestamp: p.Timestamp.UnixMilli(),
		Size:      p.Size,
	}
}

// PongMessage answers an inbound ping.
type PongMessage struct {
	Type string `json:"type"`
}

// ErrorMessage reports a problem to a single subscriber.
type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewErrorMessage(code, message string) *ErrorMessage {
	return &ErrorMessage{Type: MsgTypeError, Code: code, Message: message}
}
