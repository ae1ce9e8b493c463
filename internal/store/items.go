package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"golang.org/x/text/cases"

	"github.com/starford/lending/internal/apperr"
	"github.com/starford/lending/internal/models"
)

const tableItems = "items"

var (
	itemColumns = []any{"id", "title", "author", "year", "genre", "available", "created_at"}

	isAvailable   = goqu.L("available = TRUE")
	isUnavailable = goqu.L("available = FALSE")
)

type itemRow struct {
	ID        int64          `db:"id"`
	Title     string         `db:"title"`
	Author    string         `db:"author"`
	Year      sql.NullInt64  `db:"year"`
	Genre     sql.NullString `db:"genre"`
	Available bool           `db:"available"`
	CreatedAt time.Time      `db:"created_at"`
}

func (r itemRow) model() models.Item {
	it := models.Item{
		ID:        models.ItemID(r.ID),
		Title:     r.Title,
		Author:    r.Author,
		Genre:     r.Genre.String,
		Available: r.Available,
		CreatedAt: r.CreatedAt,
	}
	if r.Year.Valid {
		y := int(r.Year.Int64)
		it.Year = &y
	}
	return it
}

// fold returns the caseless form used for contains filters. A Caser holds
// state, so one is created per call.
func fold(s string) string {
	return cases.Fold().String(s)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullYear(y *int) sql.NullInt64 {
	if y == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*y), Valid: true}
}

// InsertItem stores a new item exactly as given, including its availability.
func (h *Handle) InsertItem(ctx context.Context, it models.Item, createdAt time.Time) (models.ItemID, error) {
	id, err := h.insertID(ctx, h.dialect.Insert(tableItems).Rows(goqu.Record{
		"title":      it.Title,
		"author":     it.Author,
		"year":       nullYear(it.Year),
		"genre":      nullString(it.Genre),
		"author_key": fold(it.Author),
		"genre_key":  fold(it.Genre),
		"available":  it.Available,
		"created_at": utc(createdAt),
	}))
	if err != nil {
		return 0, fmt.Errorf("store: insert item: %w", err)
	}
	return models.ItemID(id), nil
}

// UpdateItemDetails rewrites the descriptive fields of an item. The
// availability flag is left untouched.
func (h *Handle) UpdateItemDetails(ctx context.Context, id models.ItemID, it models.Item) error {
	n, err := h.exec(ctx, h.update(tableItems).Set(goqu.Record{
		"title":      it.Title,
		"author":     it.Author,
		"year":       nullYear(it.Year),
		"genre":      nullString(it.Genre),
		"author_key": fold(it.Author),
		"genre_key":  fold(it.Genre),
	}).Where(goqu.C("id").Eq(int64(id))))
	if err != nil {
		return fmt.Errorf("store: update item: %w", err)
	}
	if n == 0 {
		return apperr.ErrItemNotFound
	}
	return nil
}

// ItemByID loads one item.
func (h *Handle) ItemByID(ctx context.Context, id models.ItemID) (models.Item, error) {
	var row itemRow
	found, err := h.getOne(ctx, &row, h.from(tableItems).Select(itemColumns...).Where(goqu.C("id").Eq(int64(id))))
	if err != nil {
		return models.Item{}, fmt.Errorf("store: get item: %w", err)
	}
	if !found {
		return models.Item{}, apperr.ErrItemNotFound
	}
	return row.model(), nil
}

// ClaimItem flips an available item to unavailable in a single conditional
// statement and reports whether this call performed the flip.
func (h *Handle) ClaimItem(ctx context.Context, id models.ItemID) (bool, error) {
	n, err := h.exec(ctx, h.update(tableItems).
		Set(goqu.Record{"available": false}).
		Where(goqu.C("id").Eq(int64(id)), isAvailable))
	if err != nil {
		return false, fmt.Errorf("store: claim item: %w", err)
	}
	return n == 1, nil
}

// ReleaseItem flips an unavailable item back to available and reports
// whether this call performed the flip.
func (h *Handle) ReleaseItem(ctx context.Context, id models.ItemID) (bool, error) {
	n, err := h.exec(ctx, h.update(tableItems).
		Set(goqu.Record{"available": true}).
		Where(goqu.C("id").Eq(int64(id)), isUnavailable))
	if err != nil {
		return false, fmt.Errorf("store: release item: %w", err)
	}
	return n == 1, nil
}

// AvailableItems returns available items matching every non-empty filter
// field as a caseless substring, ordered by id.
func (h *Handle) AvailableItems(ctx context.Context, f models.ItemFilter) ([]models.Item, error) {
	ds := h.from(tableItems).Select(itemColumns...).Where(isAvailable).Order(goqu.C("id").Asc())
	if f.Author != "" {
		ds = ds.Where(goqu.Func(h.substrFunc(), goqu.C("author_key"), fold(f.Author)).Gt(0))
	}
	if f.Genre != "" {
		ds = ds.Where(goqu.Func(h.substrFunc(), goqu.C("genre_key"), fold(f.Genre)).Gt(0))
	}

	var rows []itemRow
	if err := h.selectAll(ctx, &rows, ds); err != nil {
		return nil, fmt.Errorf("store: available items: %w", err)
	}
	out := make([]models.Item, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, nil
}

// ItemDiscrepancies returns ids of items whose availability flag disagrees
// with the presence of an open loan.
func (h *Handle) ItemDiscrepancies(ctx context.Context) ([]models.ItemID, error) {
	openLoan := h.from(goqu.T(tableLoans).As("l")).
		Select(goqu.L("1")).
		Where(goqu.I("l.item_id").Eq(goqu.I("i.id")), goqu.I("l.closed_at").IsNull())

	ds := h.from(goqu.T(tableItems).As("i")).
		Select(goqu.I("i.id")).
		Where(goqu.Or(
			goqu.And(goqu.L("i.available = TRUE"), goqu.L("EXISTS ?", openLoan)),
			goqu.And(goqu.L("i.available = FALSE"), goqu.L("NOT EXISTS ?", openLoan)),
		)).
		Order(goqu.I("i.id").Asc())

	var ids []int64
	if err := h.selectAll(ctx, &ids, ds); err != nil {
		return nil, fmt.Errorf("store: item discrepancies: %w", err)
	}
	out := make([]models.ItemID, len(ids))
	for i, id := range ids {
		out[i] = models.ItemID(id)
	}
	return out, nil
}
