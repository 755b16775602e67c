package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sirreidlos/e-form/internal/eform/broadcast"
	"github.com/sirreidlos/e-form/internal/eform/repository"
	"github.com/sirreidlos/e-form/internal/eform/service"
)

const keepaliveInterval = 30 * time.Second

// StreamHandler serves the live response stream over SSE.
type StreamHandler struct {
	hub    *broadcast.Hub
	forms  *service.FormService
	logger *zap.Logger
}

func NewStreamHandler(hub *broadcast.Hub, forms *service.FormService, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{hub: hub, forms: forms, logger: logger}
}

// Stream delivers every response submitted to the form while the
// session is open. Responses submitted before the session started are
// not replayed. Owner only.
// GET /stream/:id?token=xxx
func (h *StreamHandler) Stream(c *gin.Context) {
	formID := c.Param("id")
	userID := GetUserID(c)

	form, err := h.forms.Get(c.Request.Context(), formID, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			NotFound(c, "Form not found")
		case errors.Is(err, service.ErrForbidden):
			Forbidden(c, "You do not have access to this form")
		default:
			InternalError(c, "Failed to fetch form: "+err.Error())
		}
		return
	}
	if form.Owner != userID {
		Forbidden(c, "Only the form owner can stream its responses")
		return
	}

	sub := h.hub.Subscribe()
	defer sub.Unsubscribe()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	c.Writer.WriteString("event: connected\ndata: {\"form\":\"" + formID + "\"}\n\n")
	c.Writer.Flush()

	clientCtx := c.Request.Context()
	for {
		recvCtx, cancel := context.WithTimeout(clientCtx, keepaliveInterval)
		resp, err := sub.Recv(recvCtx)
		cancel()

		if err != nil {
			var lag *broadcast.LagError
			switch {
			case errors.As(err, &lag):
				// The session fell behind and missed messages.
				// Tell the client and keep going.
				c.Writer.WriteString(fmt.Sprintf("event: lagged\ndata: {\"missed\":%d}\n\n", lag.Missed))
				c.Writer.Flush()
				continue
			case errors.Is(err, broadcast.ErrClosed):
				return
			case clientCtx.Err() != nil:
				return
			case errors.Is(err, context.DeadlineExceeded):
				c.Writer.WriteString(": keepalive\n\n")
				c.Writer.Flush()
				continue
			default:
				h.logger.Warn("stream receive failed", zap.String("form_id", formID), zap.Error(err))
				return
			}
		}

		if resp.FormID != formID {
			continue
		}

		data, err := json.Marshal(resp)
		if err != nil {
			h.logger.Error("failed to encode response event", zap.String("response_id", resp.ID), zap.Error(err))
			continue
		}
		c.Writer.WriteString(fmt.Sprintf("event: response\ndata: %s\n\n", data))
		c.Writer.Flush()
	}
}
