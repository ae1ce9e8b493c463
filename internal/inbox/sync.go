package inbox

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/starford/lending/internal/apperr"
	"github.com/starford/lending/internal/catalog"
	"github.com/starford/lending/internal/models"
)

// Importer receives parsed cards. *catalog.Catalog satisfies it.
type Importer interface {
	CardChecksums(ctx context.Context) (map[string]string, error)
	SyncCard(ctx context.Context, path, checksum string, title, author string, year *int, genre string) (models.ItemID, catalog.CardOutcome, error)
}

// EventCallback is called after a card created or updated an item.
type EventCallback func(id models.ItemID, path string, outcome catalog.CardOutcome)

// Stats summarises one Sync pass.
type Stats struct {
	Created   int
	Updated   int
	Unchanged int
	Failed    int
}

// Sync walks the inbox and brings the catalog up to date:
//   - new cards create items, changed cards rewrite their item's details
//   - cards that fail to parse or validate are logged and skipped
//   - cards removed from disk leave their items in the catalog
func Sync(ctx context.Context, imp Importer, fs Provider, logger *slog.Logger, cb EventCallback) (Stats, error) {
	var st Stats

	metas, err := fs.List()
	if err != nil {
		return st, err
	}

	checksums, err := imp.CardChecksums(ctx)
	if err != nil {
		return st, err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			st.Unchanged++
			continue
		}

		data, err := fs.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			st.Failed++
			continue
		}
		id, outcome, err := importCard(ctx, imp, m.Path, data)
		if err != nil {
			logger.Warn("sync: import failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			st.Failed++
			continue
		}
		switch outcome {
		case catalog.CardCreated:
			st.Created++
		case catalog.CardUpdated:
			st.Updated++
		default:
			st.Unchanged++
		}
		logger.Debug("sync: imported", slog.String("path", m.Path), slog.Int64("item_id", int64(id)), slog.String("outcome", outcome.String()))
		notify(cb, id, m.Path, outcome)
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			logger.Info("sync: card removed, item kept", slog.String("path", p))
		}
	}

	return st, nil
}

// importCard parses data and hands it to the importer.
func importCard(ctx context.Context, imp Importer, path string, data []byte) (models.ItemID, catalog.CardOutcome, error) {
	c, err := ParseCard(data)
	if err != nil {
		return 0, catalog.CardUnchanged, err
	}
	return imp.SyncCard(ctx, path, Checksum(data), c.Title, c.Author, c.Year, c.Genre)
}

func notify(cb EventCallback, id models.ItemID, path string, outcome catalog.CardOutcome) {
	if cb != nil && outcome != catalog.CardUnchanged {
		cb(id, path, outcome)
	}
}

// Put validates a card, writes it into the inbox and imports it right away.
// A later watcher event for the same bytes is a no-op.
func Put(ctx context.Context, imp Importer, fs *FS, path string, content []byte) (models.ItemID, catalog.CardOutcome, error) {
	path = filepath.ToSlash(filepath.Clean(path))
	if !isCard(filepath.Base(path)) {
		return 0, catalog.CardUnchanged, apperr.Invalid("card path must name a .md file")
	}
	if _, err := fs.safePath(filepath.FromSlash(path)); err != nil {
		return 0, catalog.CardUnchanged, apperr.InvalidErr(err)
	}
	c, err := ParseCard(content)
	if err != nil {
		return 0, catalog.CardUnchanged, apperr.InvalidErr(err)
	}
	if _, err := models.NewItem(c.Title, c.Author, c.Year, c.Genre); err != nil {
		return 0, catalog.CardUnchanged, err
	}
	if err := fs.Write(path, content); err != nil {
		return 0, catalog.CardUnchanged, err
	}
	return importCard(ctx, imp, path, content)
}
