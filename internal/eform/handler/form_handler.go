package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/sirreidlos/e-form/internal/eform/repository"
	"github.com/sirreidlos/e-form/internal/eform/service"
)

// FormHandler serves form definition CRUD.
type FormHandler struct {
	svc *service.FormService
}

func NewFormHandler(svc *service.FormService) *FormHandler {
	return &FormHandler{svc: svc}
}

// Create stores a new form owned by the caller.
// POST /form
func (h *FormHandler) Create(c *gin.Context) {
	var input service.FormInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	form, err := h.svc.Create(c.Request.Context(), GetUserID(c), input)
	if err != nil {
		if errors.Is(err, service.ErrBadForm) {
			BadRequest(c, err.Error())
			return
		}
		InternalError(c, "Failed to create form: "+err.Error())
		return
	}

	Created(c, form)
}

// Get returns one form, subject to its visibility state. Requests
// without a token can only see Anonymous forms.
// GET /form/:id
func (h *FormHandler) Get(c *gin.Context) {
	form, err := h.svc.Get(c.Request.Context(), c.Param("id"), GetUserID(c))
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

	Success(c, form)
}

// List returns the forms owned by the caller, newest first.
// GET /forms
func (h *FormHandler) List(c *gin.Context) {
	forms, err := h.svc.List(c.Request.Context(), GetUserID(c))
	if err != nil {
		InternalError(c, "Failed to list forms: "+err.Error())
		return
	}

	Success(c, gin.H{"items": forms})
}

// Update replaces a form definition. Owner only.
// PUT /form/:id
func (h *FormHandler) Update(c *gin.Context) {
	var input service.FormInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	form, err := h.svc.Update(c.Request.Context(), c.Param("id"), GetUserID(c), input)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			NotFound(c, "Form not found")
		case errors.Is(err, service.ErrForbidden):
			Forbidden(c, err.Error())
		case errors.Is(err, service.ErrBadForm):
			BadRequest(c, err.Error())
		default:
			InternalError(c, "Failed to update form: "+err.Error())
		}
		return
	}

	Success(c, form)
}

// Delete removes a form and all of its responses. Owner only.
// DELETE /form/:id
func (h *FormHandler) Delete(c *gin.Context) {
	err := h.svc.Delete(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			NotFound(c, "Form not found")
		case errors.Is(err, service.ErrForbidden):
			Forbidden(c, err.Error())
		default:
			InternalError(c, "Failed to delete form: "+err.Error())
		}
		return
	}

	Success(c, gin.H{"message": "Form deleted"})
}
