package store

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/starford/lending/internal/models"
)

const tableSources = "catalog_sources"

// Source links an inbox card file to the item it created.
type Source struct {
	Path     string        `db:"path"`
	Checksum string        `db:"checksum"`
	ItemID   models.ItemID `db:"item_id"`
}

// SourceByPath returns the bookkeeping row for a card path, if any.
func (h *Handle) SourceByPath(ctx context.Context, path string) (Source, bool, error) {
	var src Source
	found, err := h.getOne(ctx, &src, h.from(tableSources).
		Select("path", "checksum", "item_id").
		Where(goqu.C("path").Eq(path)))
	if err != nil {
		return Source{}, false, fmt.Errorf("store: get source: %w", err)
	}
	return src, found, nil
}

// SourceChecksums maps every synced card path to its last checksum.
func (h *Handle) SourceChecksums(ctx context.Context) (map[string]string, error) {
	var rows []Source
	if err := h.selectAll(ctx, &rows, h.from(tableSources).Select("path", "checksum", "item_id")); err != nil {
		return nil, fmt.Errorf("store: source checksums: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Path] = r.Checksum
	}
	return out, nil
}

// InsertSource records the first sync of a card path. It reports false when
// another transaction already recorded the path.
func (h *Handle) InsertSource(ctx context.Context, src Source, syncedAt time.Time) (bool, error) {
	query, args, err := h.dialect.Insert(tableSources).Prepared(true).
		Rows(goqu.Record{
			"path":      src.Path,
			"checksum":  src.Checksum,
			"item_id":   int64(src.ItemID),
			"synced_at": utc(syncedAt),
		}).
		OnConflict(goqu.DoNothing()).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("store: build source insert: %w", err)
	}
	res, err := h.ext.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("store: insert source: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("store: insert source: %w", err)
	}
	return n == 1, nil
}

// PutSource records the checksum a card was last synced at.
func (h *Handle) PutSource(ctx context.Context, src Source, syncedAt time.Time) error {
	query, args, err := h.dialect.Insert(tableSources).Prepared(true).
		Rows(goqu.Record{
			"path":      src.Path,
			"checksum":  src.Checksum,
			"item_id":   int64(src.ItemID),
			"synced_at": utc(syncedAt),
		}).
		OnConflict(goqu.DoUpdate("path", goqu.Record{
			"checksum":  goqu.I("excluded.checksum"),
			"item_id":   goqu.I("excluded.item_id"),
			"synced_at": goqu.I("excluded.synced_at"),
		})).
		ToSQL()
	if err != nil {
		return fmt.Errorf("store: build source upsert: %w", err)
	}
	if _, err := h.ext.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("store: upsert source: %w", err)
	}
	return nil
}
