package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sirreidlos/e-form/internal/eform/entity"
	"github.com/sirreidlos/e-form/internal/eform/repository"
)

const formCacheTTL = 5 * time.Minute

// FormInput is the payload for creating or replacing a form definition.
type FormInput struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	State       entity.FormState  `json:"state"`
	Questions   []entity.Question `json:"questions"`
}

// FormService manages form definitions with a redis read-through cache.
type FormService struct {
	forms     repository.FormStore
	responses repository.ResponseStore
	rdb       *redis.Client
	logger    *zap.Logger
}

// NewFormService creates the form service. rdb may be nil, which
// disables caching.
func NewFormService(forms repository.FormStore, responses repository.ResponseStore, rdb *redis.Client, logger *zap.Logger) *FormService {
	return &FormService{forms: forms, responses: responses, rdb: rdb, logger: logger}
}

// Create stores a new form owned by owner.
func (s *FormService) Create(ctx context.Context, owner string, input FormInput) (*entity.Form, error) {
	if err := checkFormInput(input); err != nil {
		return nil, err
	}

	form := &entity.Form{
		ID:          newID(),
		Owner:       owner,
		Title:       input.Title,
		Description: input.Description,
		State:       input.State,
		Questions:   input.Questions,
	}
	if err := s.forms.Create(ctx, form); err != nil {
		return nil, fmt.Errorf("create form: %w", err)
	}
	return form, nil
}

// Get returns a form subject to its visibility state. userID is empty
// for unauthenticated callers.
func (s *FormService) Get(ctx context.Context, id, userID string) (*entity.Form, error) {
	form, err := s.findCached(ctx, id)
	if err != nil {
		return nil, err
	}
	if !form.ReadableBy(userID) {
		return nil, ErrForbidden
	}
	return form, nil
}

// List returns the caller's own forms.
func (s *FormService) List(ctx context.Context, owner string) ([]entity.Form, error) {
	return s.forms.ListByOwner(ctx, owner)
}

// Update replaces the definition of a form owned by owner.
func (s *FormService) Update(ctx context.Context, id, owner string, input FormInput) (*entity.Form, error) {
	if err := checkFormInput(input); err != nil {
		return nil, err
	}

	form, err := s.forms.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if form.Owner != owner {
		return nil, ErrForbidden
	}

	form.Title = input.Title
	form.Description = input.Description
	form.State = input.State
	form.Questions = input.Questions
	if err := s.forms.Update(ctx, form); err != nil {
		return nil, fmt.Errorf("update form: %w", err)
	}
	s.invalidate(ctx, id)
	return form, nil
}

// Delete removes a form and all of its responses.
func (s *FormService) Delete(ctx context.Context, id, owner string) error {
	form, err := s.forms.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if form.Owner != owner {
		return ErrForbidden
	}

	if err := s.responses.DeleteByForm(ctx, id); err != nil {
		return fmt.Errorf("delete responses: %w", err)
	}
	if err := s.forms.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete form: %w", err)
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *FormService) findCached(ctx context.Context, id string) (*entity.Form, error) {
	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, formCacheKey(id)).Result()
		if err == nil {
			var form entity.Form
			if json.Unmarshal([]byte(cached), &form) == nil {
				return &form, nil
			}
		}
	}

	form, err := s.forms.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if payload, err := json.Marshal(form); err == nil {
			if err := s.rdb.Set(ctx, formCacheKey(id), payload, formCacheTTL).Err(); err != nil {
				s.logger.Warn("cache form", zap.String("form_id", id), zap.Error(err))
			}
		}
	}
	return form, nil
}

func (s *FormService) invalidate(ctx context.Context, id string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, formCacheKey(id)).Err(); err != nil {
		s.logger.Warn("invalidate form cache", zap.String("form_id", id), zap.Error(err))
	}
}

func formCacheKey(id string) string {
	return "form:" + id
}

// checkFormInput enforces the structural invariants of a definition:
// a known visibility state, known question kinds, and question numbers
// equal to their 1-based position.
func checkFormInput(input FormInput) error {
	switch input.State {
	case entity.FormStatePrivate, entity.FormStatePublic, entity.FormStateAnonymous:
	default:
		return fmt.Errorf("%w: unknown state '%s'", ErrBadForm, input.State)
	}

	for i, question := range input.Questions {
		if question.Number != uint(i)+1 {
			return fmt.Errorf("%w: question at position %d has number %d", ErrBadForm, i+1, question.Number)
		}
		switch question.Kind {
		case entity.KindTextAnswer, entity.KindMultipleChoice, entity.KindCheckboxes,
			entity.KindDropdown, entity.KindDate, entity.KindTime:
		default:
			return fmt.Errorf("%w: question %d has unknown kind '%s'", ErrBadForm, question.Number, question.Kind)
		}
	}
	return nil
}
