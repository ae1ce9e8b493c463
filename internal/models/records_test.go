package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/lending/internal/apperr"
)

func intPtr(v int) *int { return &v }

func TestNewItem(t *testing.T) {
	it, err := NewItem("  1984 ", "George Orwell", intPtr(1949), "Dystopia")
	require.NoError(t, err)
	assert.Equal(t, "1984", it.Title)
	assert.True(t, it.Available)
	assert.Equal(t, 1949, *it.Year)
}

func TestNewItem_YearBounds(t *testing.T) {
	for _, year := range []int{0, 1, 9999} {
		it, err := NewItem("Epic of Gilgamesh", "Unknown", intPtr(year), "")
		require.NoError(t, err, "year %d", year)
		assert.Equal(t, year, *it.Year)
	}
	for _, year := range []int{-1, 10000} {
		_, err := NewItem("Epic of Gilgamesh", "Unknown", intPtr(year), "")
		assert.ErrorIs(t, err, apperr.ErrInvalid, "year %d", year)
	}
}

func TestNewItem_Invalid(t *testing.T) {
	cases := map[string]struct {
		title, author string
		year          *int
	}{
		"missing title":  {"", "Orwell", nil},
		"blank author":   {"1984", "   ", nil},
		"year too large": {"1984", "Orwell", intPtr(12000)},
		"negative year":  {"1984", "Orwell", intPtr(-5)},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewItem(tc.title, tc.author, tc.year, "")
			assert.ErrorIs(t, err, apperr.ErrInvalid)
		})
	}
}

func TestNewBorrower_NormalisesContact(t *testing.T) {
	b, err := NewBorrower("Ivan Ivanov", " Ivan@Mail.com ", "+79161234567")
	require.NoError(t, err)
	assert.Equal(t, "ivan@mail.com", b.Contact)
	assert.Equal(t, "+79161234567", b.Phone)

	_, err = NewBorrower(" ", "", "")
	assert.ErrorIs(t, err, apperr.ErrInvalid)
}

func TestItemFilter_Validate(t *testing.T) {
	assert.NoError(t, ItemFilter{}.Validate())
	long := make([]rune, maxTextLen+1)
	for i := range long {
		long[i] = 'a'
	}
	assert.ErrorIs(t, ItemFilter{Author: string(long)}.Validate(), apperr.ErrInvalid)
}

func TestValidID(t *testing.T) {
	assert.NoError(t, ValidID(ItemID(1), "item"))
	assert.ErrorIs(t, ValidID(LoanID(0), "loan"), apperr.ErrInvalid)
	assert.ErrorIs(t, ValidID(BorrowerID(-3), "borrower"), apperr.ErrInvalid)
}
