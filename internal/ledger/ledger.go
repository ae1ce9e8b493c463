// Package ledger is the circulation state machine. Each item cycles between
// available and on loan; Checkout and Return move it, and each runs as one
// transaction that re-reads current state and flips the availability flag
// with a conditional update, so concurrent calls on the same item serialize
// and the single-holder invariant holds.
package ledger

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/starford/lending/internal/apperr"
	"github.com/starford/lending/internal/clock"
	"github.com/starford/lending/internal/models"
	"github.com/starford/lending/internal/store"
)

const tracerName = "github.com/starford/lending/internal/ledger"

// Ledger issues and closes loans.
type Ledger struct {
	db     *store.DB
	now    clock.Func
	logger *slog.Logger
	tracer trace.Tracer
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source.
func WithClock(now clock.Func) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// WithTracerProvider sets the provider spans are recorded with. The global
// provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(l *Ledger) {
		l.tracer = tp.Tracer(tracerName)
	}
}

// New creates a ledger over db.
func New(db *store.DB, opts ...Option) *Ledger {
	l := &Ledger{
		db:     db,
		now:    clock.System,
		logger: slog.New(slog.DiscardHandler),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Checkout loans an available item to a borrower and returns the open loan.
//
// Failures, checked in this order: apperr.ErrItemNotFound,
// apperr.ErrBorrowerNotFound, apperr.ErrItemUnavailable. On any failure
// neither the item nor the loans relation changes.
func (l *Ledger) Checkout(ctx context.Context, itemID models.ItemID, borrowerID models.BorrowerID) (models.Loan, error) {
	ctx, span := l.tracer.Start(ctx, "ledger.Checkout", trace.WithAttributes(
		attribute.Int64("item.id", int64(itemID)),
		attribute.Int64("borrower.id", int64(borrowerID)),
	))
	defer span.End()

	if err := errors.Join(models.ValidID(itemID, "item"), models.ValidID(borrowerID, "borrower")); err != nil {
		return models.Loan{}, l.fail(span, err)
	}

	var loan models.Loan
	err := l.db.InTx(ctx, func(h *store.Handle) error {
		if _, err := h.ItemByID(ctx, itemID); err != nil {
			return err
		}
		if _, err := h.BorrowerByID(ctx, borrowerID); err != nil {
			return err
		}

		claimed, err := h.ClaimItem(ctx, itemID)
		if err != nil {
			return err
		}
		if !claimed {
			return apperr.ErrItemUnavailable
		}

		openedAt := l.now()
		id, err := h.InsertLoan(ctx, itemID, borrowerID, openedAt)
		if err != nil {
			if store.IsUniqueViolation(err) {
				return apperr.ErrItemUnavailable
			}
			return err
		}
		loan = models.Loan{ID: id, ItemID: itemID, BorrowerID: borrowerID, OpenedAt: openedAt}
		return nil
	})
	if err != nil {
		l.logger.Debug("checkout rejected",
			slog.Int64("item_id", int64(itemID)),
			slog.Int64("borrower_id", int64(borrowerID)),
			slog.String("error", err.Error()))
		return models.Loan{}, l.fail(span, err)
	}

	span.SetAttributes(attribute.Int64("loan.id", int64(loan.ID)))
	l.logger.Info("loan opened",
		slog.Int64("loan_id", int64(loan.ID)),
		slog.Int64("item_id", int64(itemID)),
		slog.Int64("borrower_id", int64(borrowerID)))
	return loan, nil
}

// Return closes an open loan and makes its item available again.
// Missing and already closed loans fail with apperr.ErrLoanNotFound.
func (l *Ledger) Return(ctx context.Context, loanID models.LoanID) (models.Loan, error) {
	ctx, span := l.tracer.Start(ctx, "ledger.Return", trace.WithAttributes(
		attribute.Int64("loan.id", int64(loanID)),
	))
	defer span.End()

	if err := models.ValidID(loanID, "loan"); err != nil {
		return models.Loan{}, l.fail(span, err)
	}

	var loan models.Loan
	err := l.db.InTx(ctx, func(h *store.Handle) error {
		closedAt := l.now()
		itemID, err := h.CloseLoan(ctx, loanID, closedAt)
		if err != nil {
			return err
		}
		released, err := h.ReleaseItem(ctx, itemID)
		if err != nil {
			return err
		}
		if !released {
			l.logger.Warn("returned item was already available", slog.Int64("item_id", int64(itemID)))
		}
		loan, err = h.LoanByID(ctx, loanID)
		return err
	})
	if err != nil {
		l.logger.Debug("return rejected",
			slog.Int64("loan_id", int64(loanID)),
			slog.String("error", err.Error()))
		return models.Loan{}, l.fail(span, err)
	}

	span.SetAttributes(attribute.Int64("item.id", int64(loan.ItemID)))
	l.logger.Info("loan closed",
		slog.Int64("loan_id", int64(loan.ID)),
		slog.Int64("item_id", int64(loan.ItemID)))
	return loan, nil
}

// GetLoan loads one loan, open or closed.
func (l *Ledger) GetLoan(ctx context.Context, loanID models.LoanID) (models.Loan, error) {
	if err := models.ValidID(loanID, "loan"); err != nil {
		return models.Loan{}, err
	}
	loan, err := l.db.Reader().LoanByID(ctx, loanID)
	return loan, apperr.Storage(err)
}

func (l *Ledger) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
