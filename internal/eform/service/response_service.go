package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sirreidlos/e-form/internal/eform/broadcast"
	"github.com/sirreidlos/e-form/internal/eform/entity"
	"github.com/sirreidlos/e-form/internal/eform/repository"
	"github.com/sirreidlos/e-form/internal/eform/validate"
)

// ResponseService runs the submission pipeline and the owner-side read
// operations over responses.
type ResponseService struct {
	forms     repository.FormStore
	responses repository.ResponseStore
	hub       *broadcast.Hub
	logger    *zap.Logger
}

// NewResponseService creates the response service.
func NewResponseService(forms repository.FormStore, responses repository.ResponseStore, hub *broadcast.Hub, logger *zap.Logger) *ResponseService {
	return &ResponseService{forms: forms, responses: responses, hub: hub, logger: logger}
}

// Submit validates, persists and broadcasts one response. The published
// record is the canonical row re-fetched after the insert, so stream
// listeners see exactly what was stored. Validation failures come back
// as validate errors for the handler to map to 422.
func (s *ResponseService) Submit(ctx context.Context, formID, responder string, answers []entity.Answer) (*entity.Response, error) {
	form, err := s.forms.FindByID(ctx, formID)
	if err != nil {
		return nil, err
	}
	if !form.ReadableBy(responder) {
		return nil, ErrForbidden
	}

	if err := validate.Answers(form.Questions, answers); err != nil {
		return nil, err
	}

	response := &entity.Response{
		ID:        newID(),
		Responder: responder,
		FormID:    formID,
		Answers:   answers,
	}
	if err := s.responses.Create(ctx, response); err != nil {
		return nil, fmt.Errorf("insert response: %w", err)
	}

	stored, err := s.responses.FindByID(ctx, response.ID)
	if err != nil {
		return nil, fmt.Errorf("re-fetch response: %w", err)
	}

	s.hub.Publish(stored)
	s.logger.Info("response published",
		zap.String("response_id", stored.ID),
		zap.String("form_id", formID),
	)
	return stored, nil
}

// List returns every response of a form to its owner.
func (s *ResponseService) List(ctx context.Context, formID, requester string) ([]entity.Response, error) {
	form, err := s.forms.FindByID(ctx, formID)
	if err != nil {
		return nil, err
	}
	if form.Owner != requester {
		return nil, ErrForbidden
	}
	return s.responses.ListByForm(ctx, formID)
}

// Delete removes one response. Ownership is resolved through the
// response's form: only the form owner may delete.
func (s *ResponseService) Delete(ctx context.Context, responseID, requester string) error {
	response, err := s.responses.FindByID(ctx, responseID)
	if err != nil {
		return err
	}

	form, err := s.forms.FindByID(ctx, response.FormID)
	if err != nil {
		return err
	}
	if form.Owner != requester {
		return ErrForbidden
	}

	return s.responses.Delete(ctx, responseID)
}

// Chart aggregates, per question number, how often each answer value was
// observed. Single inputs and checkbox selections both count.
func (s *ResponseService) Chart(ctx context.Context, formID, requester string) (map[uint]map[string]int, error) {
	form, err := s.forms.FindByID(ctx, formID)
	if err != nil {
		return nil, err
	}
	if form.Owner != requester {
		return nil, ErrForbidden
	}

	responses, err := s.responses.ListByForm(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}

	counts := make(map[uint]map[string]int)
	for _, question := range form.Questions {
		counts[question.Number] = make(map[string]int)
	}
	for _, response := range responses {
		for _, answer := range response.Answers {
			bucket, ok := counts[answer.Number]
			if !ok {
				continue
			}
			if answer.Input != nil {
				bucket[*answer.Input]++
			}
			for _, selected := range answer.SelectedOptions {
				bucket[selected]++
			}
		}
	}
	return counts, nil
}
