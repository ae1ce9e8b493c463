// Package query provides read-only views derived from committed ledger and
// catalog state.
package query

import (
	"context"

	"github.com/starford/lending/internal/apperr"
	"github.com/starford/lending/internal/clock"
	"github.com/starford/lending/internal/models"
	"github.com/starford/lending/internal/store"
)

// maxThresholdDays bounds overdue thresholds to roughly a thousand years,
// which keeps the cutoff inside the timestamp range of both engines.
const maxThresholdDays = 366_000

// Queries answers circulation questions.
type Queries struct {
	db  *store.DB
	now clock.Func
}

// Option configures Queries.
type Option func(*Queries)

// WithClock overrides the time source used for overdue cutoffs.
func WithClock(now clock.Func) Option {
	return func(q *Queries) {
		q.now = now
	}
}

// New creates the query layer over db.
func New(db *store.DB, opts ...Option) *Queries {
	q := &Queries{db: db, now: clock.System}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// ActiveLoansOf lists the borrower's open loans with item titles, oldest
// first.
func (q *Queries) ActiveLoansOf(ctx context.Context, borrowerID models.BorrowerID) ([]models.ActiveLoan, error) {
	if err := models.ValidID(borrowerID, "borrower"); err != nil {
		return nil, err
	}
	h := q.db.Reader()
	if _, err := h.BorrowerByID(ctx, borrowerID); err != nil {
		return nil, apperr.Storage(err)
	}
	loans, err := h.ActiveLoans(ctx, borrowerID)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return loans, nil
}

// OverdueLoans lists open loans opened strictly more than thresholdDays ago.
func (q *Queries) OverdueLoans(ctx context.Context, thresholdDays int) ([]models.OverdueLoan, error) {
	if thresholdDays < 0 {
		return nil, apperr.Invalid("threshold days must not be negative")
	}
	cutoff := q.now().AddDate(0, 0, -min(thresholdDays, maxThresholdDays))
	loans, err := q.db.Reader().OverdueLoans(ctx, cutoff)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return loans, nil
}

// LoanHistory lists every loan of an item, oldest first.
func (q *Queries) LoanHistory(ctx context.Context, itemID models.ItemID) ([]models.Loan, error) {
	if err := models.ValidID(itemID, "item"); err != nil {
		return nil, err
	}
	h := q.db.Reader()
	if _, err := h.ItemByID(ctx, itemID); err != nil {
		return nil, apperr.Storage(err)
	}
	loans, err := h.LoansOfItem(ctx, itemID)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return loans, nil
}

// Discrepancies lists items whose availability flag disagrees with their
// open loans. A healthy store returns none.
func (q *Queries) Discrepancies(ctx context.Context) ([]models.ItemID, error) {
	ids, err := q.db.Reader().ItemDiscrepancies(ctx)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return ids, nil
}
