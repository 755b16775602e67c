package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/sirreidlos/e-form/internal/eform/entity"
)

// FormRepository persists form definitions.
type FormRepository struct {
	db *gorm.DB
}

// NewFormRepository creates a form repository.
func NewFormRepository(db *gorm.DB) *FormRepository {
	return &FormRepository{db: db}
}

// FindByID returns the form or ErrNotFound.
func (r *FormRepository) FindByID(ctx context.Context, id string) (*entity.Form, error) {
	var form entity.Form
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&form).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &form, nil
}

// ListByOwner returns all forms owned by the given user, newest first.
func (r *FormRepository) ListByOwner(ctx context.Context, owner string) ([]entity.Form, error) {
	var forms []entity.Form
	err := r.db.WithContext(ctx).
		Where("owner = ?", owner).
		Order("created_at DESC").
		Find(&forms).Error
	return forms, err
}

// Create inserts a form definition.
func (r *FormRepository) Create(ctx context.Context, form *entity.Form) error {
	return r.db.WithContext(ctx).Create(form).Error
}

// Update saves the full form definition.
func (r *FormRepository) Update(ctx context.Context, form *entity.Form) error {
	return r.db.WithContext(ctx).Save(form).Error
}

// Delete removes a form definition.
func (r *FormRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Form{}).Error
}
