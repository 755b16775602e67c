package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sirreidlos/e-form/internal/eform/entity"
	"github.com/sirreidlos/e-form/internal/eform/repository"
	"github.com/sirreidlos/e-form/internal/eform/service"
	"github.com/sirreidlos/e-form/internal/eform/validate"
)

// ResponseHandler serves submission, listing, deletion, aggregation and
// export of form responses.
type ResponseHandler struct {
	svc    *service.ResponseService
	export *service.ExportService
}

func NewResponseHandler(svc *service.ResponseService, export *service.ExportService) *ResponseHandler {
	return &ResponseHandler{svc: svc, export: export}
}

// Submit validates a set of answers against the form and stores them.
// The stored response is broadcast to live stream sessions on the form.
// POST /response/:id
func (h *ResponseHandler) Submit(c *gin.Context) {
	var req struct {
		Answers []entity.Answer `json:"answers"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.svc.Submit(c.Request.Context(), c.Param("id"), GetUserID(c), req.Answers)
	if err != nil {
		var answerErr *validate.AnswerError
		switch {
		case errors.Is(err, repository.ErrNotFound):
			NotFound(c, "Form not found")
		case errors.Is(err, service.ErrForbidden):
			Forbidden(c, "You do not have access to this form")
		case errors.Is(err, validate.ErrTooFewAnswers):
			UnprocessableEntity(c, err.Error())
		case errors.As(err, &answerErr):
			UnprocessableEntity(c, err.Error())
		default:
			InternalError(c, "Failed to submit response: "+err.Error())
		}
		return
	}

	Created(c, resp)
}

// List returns every response to a form. Owner only.
// GET /response/:id
func (h *ResponseHandler) List(c *gin.Context) {
	responses, err := h.svc.List(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			NotFound(c, "Form not found")
		case errors.Is(err, service.ErrForbidden):
			Forbidden(c, err.Error())
		default:
			InternalError(c, "Failed to list responses: "+err.Error())
		}
		return
	}

	Success(c, gin.H{"items": responses})
}

// Delete removes a single response. Only the owner of the form the
// response belongs to may delete it.
// DELETE /response/:id
func (h *ResponseHandler) Delete(c *gin.Context) {
	err := h.svc.Delete(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			NotFound(c, "Response not found")
		case errors.Is(err, service.ErrForbidden):
			Forbidden(c, err.Error())
		default:
			InternalError(c, "Failed to delete response: "+err.Error())
		}
		return
	}

	Success(c, gin.H{"message": "Response deleted"})
}

// Chart returns per-question answer counts for a form. Owner only.
// GET /chart/:id
func (h *ResponseHandler) Chart(c *gin.Context) {
	buckets, err := h.svc.Chart(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			NotFound(c, "Form not found")
		case errors.Is(err, service.ErrForbidden):
			Forbidden(c, err.Error())
		default:
			InternalError(c, "Failed to build chart: "+err.Error())
		}
		return
	}

	Success(c, buckets)
}

// Export streams all responses to a form as an xlsx workbook. Owner
// only.
// GET /response/:id/export
func (h *ResponseHandler) Export(c *gin.Context) {
	file, filename, err := h.export.Export(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			NotFound(c, "Form not found")
		case errors.Is(err, service.ErrForbidden):
			Forbidden(c, err.Error())
		default:
			InternalError(c, "Failed to export responses: "+err.Error())
		}
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	if err := file.Write(c.Writer); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}
