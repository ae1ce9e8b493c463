// Package registry owns borrower identity records.
package registry

import (
	"context"
	"strings"

	"github.com/starford/lending/internal/apperr"
	"github.com/starford/lending/internal/clock"
	"github.com/starford/lending/internal/models"
	"github.com/starford/lending/internal/store"
)

// Registry registers and looks up borrowers.
type Registry struct {
	db  *store.DB
	now clock.Func
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the time source.
func WithClock(now clock.Func) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// New creates a registry over db.
func New(db *store.DB, opts ...Option) *Registry {
	r := &Registry{db: db, now: clock.System}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddBorrower registers a borrower. A non-empty contact that is already
// registered fails with apperr.ErrDuplicateContact.
func (r *Registry) AddBorrower(ctx context.Context, name, contact, phone string) (models.Borrower, error) {
	b, err := models.NewBorrower(name, contact, phone)
	if err != nil {
		return models.Borrower{}, err
	}
	b.RegisteredAt = r.now()

	err = r.db.InTx(ctx, func(h *store.Handle) error {
		id, err := h.InsertBorrower(ctx, b, b.RegisteredAt)
		if err != nil {
			if store.IsUniqueViolation(err) {
				return apperr.ErrDuplicateContact
			}
			return err
		}
		b.ID = id
		return nil
	})
	if err != nil {
		return models.Borrower{}, err
	}
	return b, nil
}

// GetBorrower loads one borrower.
func (r *Registry) GetBorrower(ctx context.Context, id models.BorrowerID) (models.Borrower, error) {
	if err := models.ValidID(id, "borrower"); err != nil {
		return models.Borrower{}, err
	}
	b, err := r.db.Reader().BorrowerByID(ctx, id)
	return b, apperr.Storage(err)
}

// FindByContact loads the borrower registered with contact.
func (r *Registry) FindByContact(ctx context.Context, contact string) (models.Borrower, error) {
	contact = strings.ToLower(strings.TrimSpace(contact))
	if contact == "" {
		return models.Borrower{}, apperr.Invalid("contact is required")
	}
	b, err := r.db.Reader().BorrowerByContact(ctx, contact)
	return b, apperr.Storage(err)
}
