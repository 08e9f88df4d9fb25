// Package chat contains HTTP request DTOs for the streaming chat endpoint.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/janhq/multichat/internal/domain/fanout"
	"github.com/janhq/multichat/internal/utils/platformerrors"
	"github.com/janhq/multichat/pkg/protocol"
)

// Validation messages returned to clients.
const (
	MsgInvalidBody   = "Invalid request body"
	MsgInvalidQuery  = "Invalid query"
	MsgInvalidModels = "Invalid models"
)

// StreamRequest is the body of POST /v1/chat/stream.
type StreamRequest = protocol.StreamRequest

// Bind decodes and validates the JSON body of c. Every failure is an
// ErrorTypeValidation PlatformError carrying the client-facing message.
func Bind(c *gin.Context) (*StreamRequest, error) {
	var req StreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, BindError(c.Request.Context(), &req, err)
	}
	return &req, nil
}

// BindError maps a ShouldBindJSON failure to the client-facing message.
// Query problems win over model problems. req holds whatever was decoded
// before the failure.
func BindError(ctx context.Context, req *StreamRequest, err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		message := MsgInvalidModels
		for _, fe := range fieldErrs {
			if fe.StructNamespace() == "StreamRequest.Query" {
				message = MsgInvalidQuery
				break
			}
		}
		return invalid(ctx, message, err)
	}

	// Wrong JSON types never reach the validator, so they are mapped by the
	// field path the decoder reports.
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		switch {
		case typeErr.Field == "query":
			return invalid(ctx, MsgInvalidQuery, err)
		case strings.HasPrefix(typeErr.Field, "models"):
			if req.Query == "" {
				return invalid(ctx, MsgInvalidQuery, err)
			}
			return invalid(ctx, MsgInvalidModels, err)
		}
	}
	return invalid(ctx, MsgInvalidBody, err)
}

// ToDomain converts the request into a fan-out session request.
func ToDomain(sessionID string, req *StreamRequest) fanout.Request {
	models := make([]fanout.ModelDescriptor, len(req.Models))
	for i, m := range req.Models {
		models[i] = fanout.ModelDescriptor{
			ID:            m.ID,
			Provider:      m.Provider,
			UpstreamModel: m.ModelID,
		}
	}
	return fanout.Request{
		SessionID: sessionID,
		Query:     req.Query,
		Models:    models,
	}
}

func invalid(ctx context.Context, message string, cause error) error {
	return platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, message, cause, "")
}
