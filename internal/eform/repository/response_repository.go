package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/sirreidlos/e-form/internal/eform/entity"
)

// ResponseRepository persists submitted responses.
type ResponseRepository struct {
	db *gorm.DB
}

// NewResponseRepository creates a response repository.
func NewResponseRepository(db *gorm.DB) *ResponseRepository {
	return &ResponseRepository{db: db}
}

// FindByID returns the response or ErrNotFound.
func (r *ResponseRepository) FindByID(ctx context.Context, id string) (*entity.Response, error) {
	var response entity.Response
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&response).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &response, nil
}

// ListByForm returns every response submitted to the form, oldest first.
func (r *ResponseRepository) ListByForm(ctx context.Context, formID string) ([]entity.Response, error) {
	var responses []entity.Response
	err := r.db.WithContext(ctx).
		Where("form_id = ?", formID).
		Order("created_at ASC").
		Find(&responses).Error
	return responses, err
}

// Create inserts a response. Responses are immutable after insertion;
// there is no update operation.
func (r *ResponseRepository) Create(ctx context.Context, response *entity.Response) error {
	return r.db.WithContext(ctx).Create(response).Error
}

// Delete removes one response.
func (r *ResponseRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Response{}).Error
}

// DeleteByForm removes every response of a form, used when the form
// itself is deleted.
func (r *ResponseRepository) DeleteByForm(ctx context.Context, formID string) error {
	return r.db.WithContext(ctx).Where("form_id = ?", formID).Delete(&entity.Response{}).Error
}
