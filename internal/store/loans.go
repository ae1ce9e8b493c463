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

const tableLoans = "loans"

var loanColumns = []any{"id", "item_id", "borrower_id", "opened_at", "closed_at"}

type loanRow struct {
	ID         int64        `db:"id"`
	ItemID     int64        `db:"item_id"`
	BorrowerID int64        `db:"borrower_id"`
	OpenedAt   time.Time    `db:"opened_at"`
	ClosedAt   sql.NullTime `db:"closed_at"`
}

func (r loanRow) model() models.Loan {
	l := models.Loan{
		ID:         models.LoanID(r.ID),
		ItemID:     models.ItemID(r.ItemID),
		BorrowerID: models.BorrowerID(r.BorrowerID),
		OpenedAt:   r.OpenedAt,
	}
	if r.ClosedAt.Valid {
		t := r.ClosedAt.Time
		l.ClosedAt = &t
	}
	return l
}

// InsertLoan opens a loan. The partial unique index on open loans rejects a
// second open loan for the same item (IsUniqueViolation holds).
func (h *Handle) InsertLoan(ctx context.Context, itemID models.ItemID, borrowerID models.BorrowerID, openedAt time.Time) (models.LoanID, error) {
	id, err := h.insertID(ctx, h.dialect.Insert(tableLoans).Rows(goqu.Record{
		"item_id":     int64(itemID),
		"borrower_id": int64(borrowerID),
		"opened_at":   utc(openedAt),
	}))
	if err != nil {
		return 0, fmt.Errorf("store: insert loan: %w", err)
	}
	return models.LoanID(id), nil
}

// CloseLoan sets closed_at on an open loan and returns the item it held.
// Missing and already closed loans both yield ErrLoanNotFound.
func (h *Handle) CloseLoan(ctx context.Context, id models.LoanID, closedAt time.Time) (models.ItemID, error) {
	var itemID int64
	found, err := h.getOne(ctx, &itemID, h.from(tableLoans).
		Select("item_id").
		Where(goqu.C("id").Eq(int64(id)), goqu.C("closed_at").IsNull()))
	if err != nil {
		return 0, fmt.Errorf("store: find open loan: %w", err)
	}
	if !found {
		return 0, apperr.ErrLoanNotFound
	}

	n, err := h.exec(ctx, h.update(tableLoans).
		Set(goqu.Record{"closed_at": utc(closedAt)}).
		Where(goqu.C("id").Eq(int64(id)), goqu.C("closed_at").IsNull()))
	if err != nil {
		return 0, fmt.Errorf("store: close loan: %w", err)
	}
	if n == 0 {
		return 0, apperr.ErrLoanNotFound
	}
	return models.ItemID(itemID), nil
}

// LoanByID loads one loan, open or closed.
func (h *Handle) LoanByID(ctx context.Context, id models.LoanID) (models.Loan, error) {
	var row loanRow
	found, err := h.getOne(ctx, &row, h.from(tableLoans).Select(loanColumns...).Where(goqu.C("id").Eq(int64(id))))
	if err != nil {
		return models.Loan{}, fmt.Errorf("store: get loan: %w", err)
	}
	if !found {
		return models.Loan{}, apperr.ErrLoanNotFound
	}
	return row.model(), nil
}

// LoansOfItem returns every loan of an item, oldest first.
func (h *Handle) LoansOfItem(ctx context.Context, itemID models.ItemID) ([]models.Loan, error) {
	var rows []loanRow
	err := h.selectAll(ctx, &rows, h.from(tableLoans).
		Select(loanColumns...).
		Where(goqu.C("item_id").Eq(int64(itemID))).
		Order(goqu.C("opened_at").Asc(), goqu.C("id").Asc()))
	if err != nil {
		return nil, fmt.Errorf("store: loans of item: %w", err)
	}
	out := make([]models.Loan, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, nil
}

type activeLoanRow struct {
	LoanID   int64     `db:"loan_id"`
	ItemID   int64     `db:"item_id"`
	Title    string    `db:"title"`
	OpenedAt time.Time `db:"opened_at"`
}

// ActiveLoans returns the open loans of a borrower joined to item titles.
func (h *Handle) ActiveLoans(ctx context.Context, borrowerID models.BorrowerID) ([]models.ActiveLoan, error) {
	var rows []activeLoanRow
	err := h.selectAll(ctx, &rows, h.from(goqu.T(tableLoans).As("l")).
		Join(goqu.T(tableItems).As("i"), goqu.On(goqu.I("i.id").Eq(goqu.I("l.item_id")))).
		Select(
			goqu.I("l.id").As("loan_id"),
			goqu.I("l.item_id").As("item_id"),
			goqu.I("i.title").As("title"),
			goqu.I("l.opened_at").As("opened_at"),
		).
		Where(goqu.I("l.borrower_id").Eq(int64(borrowerID)), goqu.I("l.closed_at").IsNull()).
		Order(goqu.I("l.opened_at").Asc(), goqu.I("l.id").Asc()))
	if err != nil {
		return nil, fmt.Errorf("store: active loans: %w", err)
	}
	out := make([]models.ActiveLoan, len(rows))
	for i, r := range rows {
		out[i] = models.ActiveLoan{
			LoanID:   models.LoanID(r.LoanID),
			ItemID:   models.ItemID(r.ItemID),
			Title:    r.Title,
			OpenedAt: r.OpenedAt,
		}
	}
	return out, nil
}

type overdueRow struct {
	LoanID       int64     `db:"loan_id"`
	ItemID       int64     `db:"item_id"`
	Title        string    `db:"title"`
	BorrowerID   int64     `db:"borrower_id"`
	BorrowerName string    `db:"borrower_name"`
	OpenedAt     time.Time `db:"opened_at"`
}

// OverdueLoans returns open loans opened strictly before cutoff, oldest first.
func (h *Handle) OverdueLoans(ctx context.Context, cutoff time.Time) ([]models.OverdueLoan, error) {
	var rows []overdueRow
	err := h.selectAll(ctx, &rows, h.from(goqu.T(tableLoans).As("l")).
		Join(goqu.T(tableItems).As("i"), goqu.On(goqu.I("i.id").Eq(goqu.I("l.item_id")))).
		Join(goqu.T(tableBorrowers).As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("l.borrower_id")))).
		Select(
			goqu.I("l.id").As("loan_id"),
			goqu.I("l.item_id").As("item_id"),
			goqu.I("i.title").As("title"),
			goqu.I("l.borrower_id").As("borrower_id"),
			goqu.I("b.name").As("borrower_name"),
			goqu.I("l.opened_at").As("opened_at"),
		).
		Where(goqu.I("l.closed_at").IsNull(), goqu.I("l.opened_at").Lt(utc(cutoff))).
		Order(goqu.I("l.opened_at").Asc(), goqu.I("l.id").Asc()))
	if err != nil {
		return nil, fmt.Errorf("store: overdue loans: %w", err)
	}
	out := make([]models.OverdueLoan, len(rows))
	for i, r := range rows {
		out[i] = models.OverdueLoan{
			LoanID:       models.LoanID(r.LoanID),
			ItemID:       models.ItemID(r.ItemID),
			Title:        r.Title,
			BorrowerID:   models.BorrowerID(r.BorrowerID),
			BorrowerName: r.BorrowerName,
			OpenedAt:     r.OpenedAt,
		}
	}
	return out, nil
}
