// Package repository is the persistence layer. Services depend on the
// store interfaces; the gorm implementations back them with postgres
// JSONB documents.
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/sirreidlos/e-form/internal/eform/entity"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// FormStore is the persistence contract for form definitions.
type FormStore interface {
	FindByID(ctx context.Context, id string) (*entity.Form, error)
	ListByOwner(ctx context.Context, owner string) ([]entity.Form, error)
	Create(ctx context.Context, form *entity.Form) error
	Update(ctx context.Context, form *entity.Form) error
	Delete(ctx context.Context, id string) error
}

// ResponseStore is the persistence contract the submission pipeline and
// the broadcast consumers depend on.
type ResponseStore interface {
	FindByID(ctx context.Context, id string) (*entity.Response, error)
	ListByForm(ctx context.Context, formID string) ([]entity.Response, error)
	Create(ctx context.Context, response *entity.Response) error
	Delete(ctx context.Context, id string) error
	DeleteByForm(ctx context.Context, formID string) error
}

// UserStore is the persistence contract for accounts.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	Create(ctx context.Context, user *entity.User) error
}

// Repositories bundles the gorm-backed stores.
type Repositories struct {
	Form     *FormRepository
	Response *ResponseRepository
	User     *UserRepository
}

// NewRepositories creates the store bundle on one shared connection.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Form:     NewFormRepository(db),
		Response: NewResponseRepository(db),
		User:     NewUserRepository(db),
	}
}
