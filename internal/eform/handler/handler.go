// Package handler exposes the HTTP surface over gin.
package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sirreidlos/e-form/internal/eform/broadcast"
	"github.com/sirreidlos/e-form/internal/eform/service"
)

// Handlers is the handler bundle registered on the router.
type Handlers struct {
	Auth     *AuthHandler
	Form     *FormHandler
	Response *ResponseHandler
	Stream   *StreamHandler
	Upload   *UploadHandler
}

// NewHandlers creates the handler bundle.
func NewHandlers(svc *service.Services, hub *broadcast.Hub, logger *zap.Logger) *Handlers {
	return &Handlers{
		Auth:     NewAuthHandler(svc.Auth),
		Form:     NewFormHandler(svc.Form),
		Response: NewResponseHandler(svc.Response, svc.Export),
		Stream:   NewStreamHandler(hub, svc.Form, logger),
		Upload:   NewUploadHandler(svc.Media),
	}
}

// Response is the common envelope for every JSON reply.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success writes a 200 envelope.
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created writes a 201 envelope.
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error writes an error envelope. The HTTP status is code/100.
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, 40100, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

func UnprocessableEntity(c *gin.Context, message string) {
	Error(c, 42200, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// GetUserID returns the authenticated user id, or "" when the request
// carried no identity.
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}
