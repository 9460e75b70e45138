package audit

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/TheB2D/Glass/internal/log"
)

func auditCtx(buf *bytes.Buffer) context.Context {
	return log.WithLogger(context.Background(), zerolog.New(buf))
}

func TestLogEmitsAuditEntry(t *testing.T) {
	var buf bytes.Buffer
	Log(auditCtx(&buf), ActionSessionStart, "u1", "session started")

	out := buf.String()
	assert.Contains(t, out, `"log_type":"audit"`)
	assert.Contains(t, out, `"action":"glass.session_start"`)
	assert.Contains(t, out, `"user_id":"u1"`)
	assert.Contains(t, out, `"message":"session started"`)
}

func TestLogWithDetailEmitsDetail(t *testing.T) {
	var buf bytes.Buffer
	LogWithDetail(auditCtx(&buf), ActionCaptureFailed, "u1", "device timeout", "capture failed")

	out := buf.String()
	assert.Contains(t, out, `"action":"glass.capture_failed"`)
	assert.Contains(t, out, `"detail":"device timeout"`)
}

func TestSessionLifecycleActions(t *testing.T) {
	var buf bytes.Buffer
	ctx := auditCtx(&buf)

	Log(ctx, ActionSessionStart, "u1", "session started")
	Log(ctx, ActionSessionStop, "u1", "session stopped")

	out := buf.String()
	assert.Contains(t, out, `"action":"glass.session_start"`)
	assert.Contains(t, out, `"action":"glass.session_stop"`)
}
