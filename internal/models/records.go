// Package models defines the domain records of the lending catalog.
package models

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/lending/internal/apperr"
)

const maxTextLen = 255

// ItemID identifies a catalog item.
type ItemID int64

// BorrowerID identifies a registered borrower.
type BorrowerID int64

// LoanID identifies a loan record.
type LoanID int64

// Item is a lendable catalog entry.
type Item struct {
	ID        ItemID    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Year      *int      `json:"year,omitempty"`
	Genre     string    `json:"genre,omitempty"`
	Available bool      `json:"available"`
	CreatedAt time.Time `json:"created_at"`
}

// NewItem validates descriptive fields and returns an available, unsaved item.
func NewItem(title, author string, year *int, genre string) (Item, error) {
	it := Item{
		Title:     strings.TrimSpace(title),
		Author:    strings.TrimSpace(author),
		Year:      year,
		Genre:     strings.TrimSpace(genre),
		Available: true,
	}
	if err := it.Validate(); err != nil {
		return Item{}, err
	}
	return it, nil
}

// Validate checks the descriptive fields of the item.
func (it Item) Validate() error {
	err := validation.ValidateStruct(&it,
		validation.Field(&it.Title, validation.Required, validation.RuneLength(1, maxTextLen)),
		validation.Field(&it.Author, validation.Required, validation.RuneLength(1, maxTextLen)),
		validation.Field(&it.Year, validation.Min(0), validation.Max(9999)),
		validation.Field(&it.Genre, validation.RuneLength(0, maxTextLen)),
	)
	return apperr.InvalidErr(err)
}

// Borrower is a person eligible to hold loans.
type Borrower struct {
	ID           BorrowerID `json:"id"`
	Name         string     `json:"name"`
	Contact      string     `json:"contact,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	RegisteredAt time.Time  `json:"registered_at"`
}

// NewBorrower validates and normalises registration input.
// Contact is compared case-insensitively, so it is stored lower-cased.
func NewBorrower(name, contact, phone string) (Borrower, error) {
	b := Borrower{
		Name:    strings.TrimSpace(name),
		Contact: strings.ToLower(strings.TrimSpace(contact)),
		Phone:   strings.TrimSpace(phone),
	}
	err := validation.ValidateStruct(&b,
		validation.Field(&b.Name, validation.Required, validation.RuneLength(1, maxTextLen)),
		validation.Field(&b.Contact, validation.RuneLength(0, maxTextLen)),
		validation.Field(&b.Phone, validation.RuneLength(0, maxTextLen)),
	)
	if err != nil {
		return Borrower{}, apperr.InvalidErr(err)
	}
	return b, nil
}

// Loan records one item held by one borrower over an interval.
type Loan struct {
	ID         LoanID     `json:"id"`
	ItemID     ItemID     `json:"item_id"`
	BorrowerID BorrowerID `json:"borrower_id"`
	OpenedAt   time.Time  `json:"opened_at"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
}

// Open reports whether the loan has not been returned yet.
func (l Loan) Open() bool {
	return l.ClosedAt == nil
}

// ItemFilter narrows availability searches. Empty fields match everything.
type ItemFilter struct {
	Author string `json:"author,omitempty"`
	Genre  string `json:"genre,omitempty"`
}

// Validate rejects filters that can never be satisfied by a stored item.
func (f ItemFilter) Validate() error {
	err := validation.ValidateStruct(&f,
		validation.Field(&f.Author, validation.RuneLength(0, maxTextLen)),
		validation.Field(&f.Genre, validation.RuneLength(0, maxTextLen)),
	)
	return apperr.InvalidErr(err)
}

// ActiveLoan is an open loan joined to the title of the item held.
type ActiveLoan struct {
	LoanID   LoanID    `json:"loan_id"`
	ItemID   ItemID    `json:"item_id"`
	Title    string    `json:"title"`
	OpenedAt time.Time `json:"opened_at"`
}

// OverdueLoan is an open loan older than the overdue threshold.
type OverdueLoan struct {
	LoanID       LoanID     `json:"loan_id"`
	ItemID       ItemID     `json:"item_id"`
	Title        string     `json:"title"`
	BorrowerID   BorrowerID `json:"borrower_id"`
	BorrowerName string     `json:"borrower_name"`
	OpenedAt     time.Time  `json:"opened_at"`
}

// ValidID rejects non-positive identifiers.
func ValidID[T ~int64](id T, what string) error {
	if id <= 0 {
		return apperr.Invalid(what + " id must be positive")
	}
	return nil
}
