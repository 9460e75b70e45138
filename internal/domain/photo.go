package domain

import "time"

// Photo is the most recent capture for a user. Exactly one is retained per
// user; a newer capture replaces it.
type Photo struct {
	RequestID string    `json:"requestId"`
	Bytes     []byte    `json:"bytes"`
	MimeType  string    `json:"mimeType"`
	Filename  string    `json:"filename"`
	Timestamp time.Time `json:"timestamp"`
	Size      int       `json:"size"`
}

// PhotoMeta is the query view of a cached photo, without the bytes.
type PhotoMeta struct {
	RequestID string `json:"requestId"`
	Timestamp int64  `json:"timestamp"`
	MimeType  string `json:"mimeType"`
	Size      int    `json:"size"`
	Streaming bool   `json:"streaming"`
}

// Meta builds the query view. The streaming flag is owned by the capture
// coordinator and filled in by the caller.
func (p *Photo) Meta() *PhotoMeta {
	return &PhotoMeta{
		RequestID: p.RequestID,
		Timestamp: p.Timestamp.UnixMilli(),
		MimeType:  p.MimeType,
		Size:      p.Size,
	}
}

// CaptureEvent is the metadata record published for each successful capture.
type CaptureEvent struct {
	UserID    string `json:"userId"`
	RequestID string `json:"requestId"`
	MimeType  string `json:"mimeType"`
	Size      int    `json:"size"`
	Timestamp int64  `json:"timestamp"`
}
