package catalog_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/starford/lending/internal/apperr"
	"github.com/starford/lending/internal/catalog"
	"github.com/starford/lending/internal/models"
	"github.com/starford/lending/internal/store"
	"github.com/starford/lending/internal/testutil"
)

func TestAddItem(t *testing.T) {
	testutil.ForEachEngine(t, func(t *testing.T, db *store.DB) {
		ctx := context.Background()
		clk := testutil.NewClock(time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC))
		c := catalog.New(db, catalog.WithClock(clk.Now))

		year := 1866
		it, err := c.AddItem(ctx, "Преступление и наказание", "Фёдор Достоевский", &year, "Роман")
		require.NoError(t, err)
		assert.Equal(t, models.ItemID(1), it.ID)
		assert.True(t, it.Available)
		assert.True(t, it.CreatedAt.Equal(clk.Now()))

		got, err := c.GetItem(ctx, it.ID)
		require.NoError(t, err)
		assert.Equal(t, it.Title, got.Title)
		assert.Equal(t, year, *got.Year)

		_, err = c.AddItem(ctx, "", "Nobody", nil, "")
		assert.ErrorIs(t, err, apperr.ErrInvalid)
	})
}

func TestGetItem_Errors(t *testing.T) {
	c := catalog.New(testutil.TestDB(t))
	_, err := c.GetItem(context.Background(), 0)
	assert.ErrorIs(t, err, apperr.ErrInvalid)
	_, err = c.GetItem(context.Background(), 3)
	assert.ErrorIs(t, err, apperr.ErrItemNotFound)
}

func TestFindAvailable_StableOrder(t *testing.T) {
	ctx := context.Background()
	c := catalog.New(testutil.TestDB(t))
	for _, title := range []string{"C", "A", "B"} {
		_, err := c.AddItem(ctx, title, "Same Author", nil, "Novel")
		require.NoError(t, err)
	}

	first, err := c.FindAvailable(ctx, models.ItemFilter{Author: "same"})
	require.NoError(t, err)
	second, err := c.FindAvailable(ctx, models.ItemFilter{Author: "same"})
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Equal(t, first, second)
	assert.Equal(t, "C", first[0].Title)

	none, err := c.FindAvailable(ctx, models.ItemFilter{Genre: "poetry"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSyncCard(t *testing.T) {
	testutil.ForEachEngine(t, func(t *testing.T, db *store.DB) {
		ctx := context.Background()
		c := catalog.New(db)

		id, outcome, err := c.SyncCard(ctx, "orwell/1984.md", "sum1", "1984", "George Orwell", nil, "")
		require.NoError(t, err)
		assert.Equal(t, catalog.CardCreated, outcome)

		again, outcome, err := c.SyncCard(ctx, "orwell/1984.md", "sum1", "1984", "George Orwell", nil, "")
		require.NoError(t, err)
		assert.Equal(t, catalog.CardUnchanged, outcome)
		assert.Equal(t, id, again)

		updated, outcome, err := c.SyncCard(ctx, "orwell/1984.md", "sum2", "Nineteen Eighty-Four", "George Orwell", nil, "Dystopia")
		require.NoError(t, err)
		assert.Equal(t, catalog.CardUpdated, outcome)
		assert.Equal(t, id, updated)

		got, err := c.GetItem(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Nineteen Eighty-Four", got.Title)
		assert.Equal(t, "Dystopia", got.Genre)
		assert.True(t, got.Available)

		sums, err := c.CardChecksums(ctx)
		require.NoError(t, err)
		assert.Equal(t, "sum2", sums["orwell/1984.md"])

		_, _, err = c.SyncCard(ctx, "bad.md", "x", "No author", "", nil, "")
		assert.ErrorIs(t, err, apperr.ErrInvalid)
	})
}

func TestSyncCard_ConcurrentFirstImport(t *testing.T) {
	testutil.ForEachEngine(t, func(t *testing.T, db *store.DB) {
		ctx := context.Background()
		c := catalog.New(db)

		const writers = 6
		var (
			mu       sync.Mutex
			created  int
			imported = map[models.ItemID]bool{}
		)
		var g errgroup.Group
		for range writers {
			g.Go(func() error {
				id, outcome, err := c.SyncCard(ctx, "lem/solaris.md", "sum1", "Solaris", "Stanislaw Lem", nil, "")
				if err != nil {
					return err
				}
				mu.Lock()
				defer mu.Unlock()
				imported[id] = true
				if outcome == catalog.CardCreated {
					created++
				}
				return nil
			})
		}
		require.NoError(t, g.Wait())

		assert.Equal(t, 1, created)
		assert.Len(t, imported, 1)

		items, err := c.FindAvailable(ctx, models.ItemFilter{})
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})
}
