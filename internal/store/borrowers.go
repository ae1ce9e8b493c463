package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/starford/lending/internal/apperr"
	"github.com/starford/lending/internal/models"
)

const tableBorrowers = "borrowers"

var borrowerColumns = []any{"id", "name", "contact", "phone", "registered_at"}

type borrowerRow struct {
	ID           int64          `db:"id"`
	Name         string         `db:"name"`
	Contact      sql.NullString `db:"contact"`
	Phone        sql.NullString `db:"phone"`
	RegisteredAt time.Time      `db:"registered_at"`
}

func (r borrowerRow) model() models.Borrower {
	return models.Borrower{
		ID:           models.BorrowerID(r.ID),
		Name:         r.Name,
		Contact:      r.Contact.String,
		Phone:        r.Phone.String,
		RegisteredAt: r.RegisteredAt,
	}
}

// InsertBorrower stores a borrower. An empty contact is stored as NULL so
// the unique constraint only applies to real contacts; a clash surfaces as
// an error for which IsUniqueViolation holds.
func (h *Handle) InsertBorrower(ctx context.Context, b models.Borrower, registeredAt time.Time) (models.BorrowerID, error) {
	id, err := h.insertID(ctx, h.dialect.Insert(tableBorrowers).Rows(goqu.Record{
		"name":          b.Name,
		"contact":       nullString(b.Contact),
		"phone":         nullString(b.Phone),
		"registered_at": utc(registeredAt),
	}))
	if err != nil {
		return 0, fmt.Errorf("store: insert borrower: %w", err)
	}
	return models.BorrowerID(id), nil
}

// BorrowerByID loads one borrower.
func (h *Handle) BorrowerByID(ctx context.Context, id models.BorrowerID) (models.Borrower, error) {
	return h.borrowerWhere(ctx, goqu.C("id").Eq(int64(id)))
}

// BorrowerByContact loads the borrower registered with contact.
func (h *Handle) BorrowerByContact(ctx context.Context, contact string) (models.Borrower, error) {
	return h.borrowerWhere(ctx, goqu.C("contact").Eq(contact))
}

func (h *Handle) borrowerWhere(ctx context.Context, cond goqu.Expression) (models.Borrower, error) {
	var row borrowerRow
	found, err := h.getOne(ctx, &row, h.from(tableBorrowers).Select(borrowerColumns...).Where(cond))
	if err != nil {
		return models.Borrower{}, fmt.Errorf("store: get borrower: %w", err)
	}
	if !found {
		return models.Borrower{}, apperr.ErrBorrowerNotFound
	}
	return row.model(), nil
}
