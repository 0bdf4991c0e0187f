package instrument

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	return m
}

func TestHandler_MasksSecrets(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf, &Config{
		ServiceName: "otpgate",
		MaskFields:  []string{"otp", "sender_secret", "X-Api-Key"},
	}, nil))

	// Act
	logger.Info("request received",
		"x-api-key", "0123456789abcdef0123456789abcdef",
		"body", `{"recipient":"a@b.com","otp":"AB12CD"}`,
		"headers", map[string]string{"X-API-KEY": "k", "Accept": "json"},
	)

	// Assert
	line := decodeLine(t, &buf)
	assert.Equal(t, "***", line["x-api-key"])
	assert.JSONEq(t, `{"recipient":"a@b.com","otp":"***"}`, line["body"].(string))
	assert.Equal(t, map[string]any{"X-API-KEY": "***", "Accept": "json"}, line["headers"])
	assert.Equal(t, "INFO", line["severity"])
	assert.Equal(t, "otpgate", line["service"])
}

func TestHandler_CorrelationID(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf, &Config{LogLevel: "debug"}, nil))
	ctx := SetCorrelationID(context.Background(), "cid-1")

	// Act
	logger.DebugContext(ctx, "verify attempt", "recipient", "a@b.com")

	// Assert
	line := decodeLine(t, &buf)
	assert.Equal(t, "cid-1", line["_cID"])
	assert.Equal(t, "cid-1", GetCorrelationID(ctx))
	assert.Empty(t, GetCorrelationID(context.Background()))
}

func TestHandler_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf, &Config{LogLevel: "warn"}, nil))

	logger.Info("dropped")

	assert.Zero(t, buf.Len())
}

func TestNew_Disabled(t *testing.T) {
	ins, err := New(context.Background(), &Config{ServiceName: "otpgate"})

	require.NoError(t, err)
	assert.NotNil(t, ins.Tracer("x"))
	assert.NoError(t, ins.Shutdown(context.Background()))
}
