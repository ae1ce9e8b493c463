package circulation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/lending/internal/apperr"
	"github.com/starford/lending/internal/catalog"
	"github.com/starford/lending/internal/circulation"
	"github.com/starford/lending/internal/models"
	"github.com/starford/lending/internal/testutil"
)

type recorder struct {
	mu    sync.Mutex
	kinds []string
}

func (r *recorder) PublishChange(kind string, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, kind)
}

func (r *recorder) events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.kinds...)
}

func TestService_PublishesCommittedChanges(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	svc := circulation.NewService(testutil.TestDB(t), circulation.WithPublisher(rec))

	it, err := svc.AddItem(ctx, "1984", "George Orwell", nil, "Dystopia")
	require.NoError(t, err)
	b, err := svc.AddBorrower(ctx, "Winston", "winston@example.org", "")
	require.NoError(t, err)
	loan, err := svc.Checkout(ctx, it.ID, b.ID)
	require.NoError(t, err)

	// Failed operations publish nothing.
	_, err = svc.Checkout(ctx, it.ID, b.ID)
	assert.ErrorIs(t, err, apperr.ErrItemUnavailable)
	_, err = svc.AddBorrower(ctx, "Other", "WINSTON@example.org", "")
	assert.ErrorIs(t, err, apperr.ErrDuplicateContact)

	_, err = svc.Return(ctx, loan.ID)
	require.NoError(t, err)
	svc.ItemImported(it.ID, "1984.md", catalog.CardUpdated)

	assert.Equal(t, []string{
		circulation.EventItemAdded,
		circulation.EventBorrowerAdded,
		circulation.EventLoanOpened,
		circulation.EventLoanClosed,
		circulation.EventItemImported,
	}, rec.events())
}

func TestService_DefaultOverdueLoans(t *testing.T) {
	ctx := context.Background()
	clk := testutil.NewClock(time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC))
	svc := circulation.NewService(testutil.TestDB(t),
		circulation.WithClock(clk.Now),
		circulation.WithOverdueDays(7),
	)
	assert.Equal(t, 7, svc.OverdueDays())

	it, err := svc.AddItem(ctx, "Dune", "Frank Herbert", nil, "")
	require.NoError(t, err)
	b, err := svc.AddBorrower(ctx, "Paul", "", "")
	require.NoError(t, err)
	loan, err := svc.Checkout(ctx, it.ID, b.ID)
	require.NoError(t, err)

	clk.Advance(7 * 24 * time.Hour)
	overdue, err := svc.DefaultOverdueLoans(ctx)
	require.NoError(t, err)
	assert.Empty(t, overdue)

	clk.Advance(time.Second)
	overdue, err = svc.DefaultOverdueLoans(ctx)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, loan.ID, overdue[0].LoanID)
	assert.Equal(t, "Paul", overdue[0].BorrowerName)

	active, err := svc.ActiveLoansOf(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, models.ActiveLoan{LoanID: loan.ID, ItemID: it.ID, Title: "Dune"}, models.ActiveLoan{LoanID: active[0].LoanID, ItemID: active[0].ItemID, Title: active[0].Title})
	assert.True(t, active[0].OpenedAt.Equal(loan.OpenedAt))
}

func TestService_Ping(t *testing.T) {
	svc := circulation.NewService(testutil.TestDB(t))
	assert.NoError(t, svc.Ping(context.Background()))
	assert.Equal(t, circulation.DefaultOverdueDays, svc.OverdueDays())
}
