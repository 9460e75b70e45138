package audit

import (
	"context"

	"github.com/TheB2D/Glass/internal/log"
)

// Audit actions.
const (
	ActionCapture       = "glass.capture"
	ActionCaptureFailed = "glass.capture_failed"
	ActionStreamToggle  = "glass.stream_toggle"
	ActionSessionStart  = "glass.session_start"
	ActionSessionStop   = "glass.session_stop"
	ActionDevToken      = "glass.dev_token"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Log emits a structured audit entry via the context logger.
func Log(ctx context.Context, action, userID, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Msg(msg)
}

// LogWithDetail emits an audit entry with an extra detail field.
func LogWithDetail(ctx context.Context, action, userID, detail, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(FieldDetail, detail).
		Msg(msg)
}
