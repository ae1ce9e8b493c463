package catalog

import (
	"context"

	"github.com/starford/lending/internal/models"
	"github.com/starford/lending/internal/store"
)

// CardOutcome describes what SyncCard did.
type CardOutcome int

// Card sync outcomes.
const (
	CardUnchanged CardOutcome = iota
	CardCreated
	CardUpdated
)

func (o CardOutcome) String() string {
	switch o {
	case CardCreated:
		return "created"
	case CardUpdated:
		return "updated"
	default:
		return "unchanged"
	}
}

// SyncCard brings the item described by an inbox card up to date. An unseen
// path creates a new available item; a known path whose checksum changed
// rewrites the item's descriptive fields and never its availability.
func (c *Catalog) SyncCard(ctx context.Context, path, checksum string, title, author string, year *int, genre string) (models.ItemID, CardOutcome, error) {
	card, err := models.NewItem(title, author, year, genre)
	if err != nil {
		return 0, CardUnchanged, err
	}

	var (
		id      models.ItemID
		outcome CardOutcome
	)
	err = c.db.InTx(ctx, func(h *store.Handle) error {
		now := c.now()
		src, found, err := h.SourceByPath(ctx, path)
		if err != nil {
			return err
		}
		switch {
		case found && src.Checksum == checksum:
			id, outcome = src.ItemID, CardUnchanged
			return nil
		case found:
			if err := h.UpdateItemDetails(ctx, src.ItemID, card); err != nil {
				return err
			}
			id, outcome = src.ItemID, CardUpdated
		default:
			newID, err := h.InsertItem(ctx, card, now)
			if err != nil {
				return err
			}
			claimed, err := h.InsertSource(ctx, store.Source{Path: path, Checksum: checksum, ItemID: newID}, now)
			if err != nil {
				return err
			}
			if !claimed {
				return store.ErrWriteConflict
			}
			id, outcome = newID, CardCreated
			return nil
		}
		return h.PutSource(ctx, store.Source{Path: path, Checksum: checksum, ItemID: id}, now)
	})
	if err != nil {
		return 0, CardUnchanged, err
	}
	return id, outcome, nil
}

// CardChecksums maps every synced card path to its last checksum.
func (c *Catalog) CardChecksums(ctx context.Context) (map[string]string, error) {
	return c.db.Reader().SourceChecksums(ctx)
}
