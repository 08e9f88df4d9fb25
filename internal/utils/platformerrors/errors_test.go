package platformerrors

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsError(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")

	base := NewError(ctx, LayerDomain, ErrorTypeValidation, "Invalid models", nil, "")
	wrapped := AsError(ctx, LayerHandler, fmt.Errorf("decode: %w", base), "bad request")
	require.NotNil(t, wrapped)
	assert.Equal(t, ErrorTypeValidation, wrapped.Type)
	assert.Equal(t, base.UUID, wrapped.UUID)
	assert.Equal(t, "req-1", wrapped.RequestID)
	assert.True(t, IsErrorType(wrapped, ErrorTypeValidation))

	assert.Equal(t, ErrorTypeCancelled, AsError(ctx, LayerDomain, context.Canceled, "x").Type)
	assert.Equal(t, ErrorTypeTimeout, AsError(ctx, LayerDomain, context.DeadlineExceeded, "x").Type)
	assert.Equal(t, ErrorTypeInternal, AsError(ctx, LayerDomain, errors.New("boom"), "x").Type)
	assert.Nil(t, AsError(ctx, LayerDomain, nil, "x"))
}

func TestNewError_GeneratesUUID(t *testing.T) {
	a := NewError(context.Background(), LayerDomain, ErrorTypeInternal, "a", nil, "")
	b := NewError(context.Background(), LayerDomain, ErrorTypeInternal, "b", nil, "")
	assert.NotEmpty(t, a.UUID)
	assert.NotEqual(t, a.UUID, b.UUID)
	assert.Equal(t, "fixed", NewError(context.Background(), LayerDomain, ErrorTypeInternal, "c", nil, "fixed").UUID)
}

func TestNewErrorWithContext_LogsFields(t *testing.T) {
	fields := map[string]any{"model_id": "groq-a"}
	err := NewErrorWithContext(context.Background(), LayerDomain, ErrorTypeValidation, "Duplicate model id: groq-a", nil, "", fields)
	fields["model_id"] = "changed"
	assert.Equal(t, "groq-a", err.Context["model_id"])

	var buf bytes.Buffer
	LogError(zerolog.New(&buf), err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "groq-a", entry["model_id"])
	assert.Equal(t, "domain", entry["layer"])
	assert.Equal(t, "Duplicate model id: groq-a", entry["message"])
}

func TestWriteError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
		wantType    string
	}{
		{
			name:        "validation",
			err:         NewError(context.Background(), LayerDomain, ErrorTypeValidation, "Invalid query", nil, ""),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid query",
			wantType:    "validation_error",
		},
		{
			name:        "internal platform error hides message",
			err:         NewError(context.Background(), LayerDomain, ErrorTypeInternal, "db exploded", nil, ""),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Internal server error",
			wantType:    "internal_error",
		},
		{
			name:        "plain error",
			err:         errors.New("secret detail"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Internal server error",
			wantType:    "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/v1/chat/stream", nil)

			WriteError(c, tt.err, zerolog.Nop())

			assert.Equal(t, tt.wantStatus, w.Code)
			var body HTTPErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.wantMessage, body.Error.Message)
			assert.Equal(t, tt.wantType, body.Error.Type)
		})
	}
}
