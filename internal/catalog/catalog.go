// Package catalog owns item records. It never changes an item's
// availability; only the ledger does that.
package catalog

import (
	"context"

	"github.com/starford/lending/internal/apperr"
	"github.com/starford/lending/internal/clock"
	"github.com/starford/lending/internal/models"
	"github.com/starford/lending/internal/store"
)

// Catalog adds and searches items.
type Catalog struct {
	db  *store.DB
	now clock.Func
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithClock overrides the time source.
func WithClock(now clock.Func) Option {
	return func(c *Catalog) {
		c.now = now
	}
}

// New creates a catalog over db.
func New(db *store.DB, opts ...Option) *Catalog {
	c := &Catalog{db: db, now: clock.System}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddItem registers a new item. It starts available.
func (c *Catalog) AddItem(ctx context.Context, title, author string, year *int, genre string) (models.Item, error) {
	it, err := models.NewItem(title, author, year, genre)
	if err != nil {
		return models.Item{}, err
	}
	it.CreatedAt = c.now()

	err = c.db.InTx(ctx, func(h *store.Handle) error {
		id, err := h.InsertItem(ctx, it, it.CreatedAt)
		if err != nil {
			return err
		}
		it.ID = id
		return nil
	})
	if err != nil {
		return models.Item{}, err
	}
	return it, nil
}

// GetItem loads one item.
func (c *Catalog) GetItem(ctx context.Context, id models.ItemID) (models.Item, error) {
	if err := models.ValidID(id, "item"); err != nil {
		return models.Item{}, err
	}
	it, err := c.db.Reader().ItemByID(ctx, id)
	return it, apperr.Storage(err)
}

// FindAvailable returns available items matching the filter, ordered by id.
func (c *Catalog) FindAvailable(ctx context.Context, f models.ItemFilter) ([]models.Item, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	items, err := c.db.Reader().AvailableItems(ctx, f)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return items, nil
}
