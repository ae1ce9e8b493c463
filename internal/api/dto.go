package api

import (
	"github.com/starford/lending/internal/models"
)

// AddItemRequest is the request body for adding an item.
type AddItemRequest struct {
	Title  string `json:"title" example:"1984" validate:"required"`
	Author string `json:"author" example:"George Orwell" validate:"required"`
	Year   *int   `json:"year,omitempty" example:"1949"`
	Genre  string `json:"genre,omitempty" example:"Dystopia"`
}

// AddBorrowerRequest is the request body for registering a borrower.
type AddBorrowerRequest struct {
	Name    string `json:"name" example:"Winston Smith" validate:"required"`
	Contact string `json:"contact,omitempty" example:"winston@example.org"`
	Phone   string `json:"phone,omitempty" example:"+44 20 7946 0000"`
}

// CheckoutRequest is the request body for opening a loan.
type CheckoutRequest struct {
	ItemID     models.ItemID     `json:"item_id" example:"1" validate:"required"`
	BorrowerID models.BorrowerID `json:"borrower_id" example:"1" validate:"required"`
}

// PutCardRequest is the request body for uploading an inbox card.
type PutCardRequest struct {
	Path    string `json:"path" example:"orwell/1984.md" validate:"required"`
	Content string `json:"content" example:"---\nauthor: George Orwell\n---\n# 1984\n" validate:"required"`
}

// PutCardResponse reports the outcome of a card upload.
type PutCardResponse struct {
	ItemID  models.ItemID `json:"item_id" example:"1" validate:"required"`
	Outcome string        `json:"outcome" example:"created" validate:"required"`
}

// ItemListResponse wraps item listings.
type ItemListResponse struct {
	Items []models.Item `json:"items" validate:"required"`
}

// LoanListResponse wraps loan history listings.
type LoanListResponse struct {
	Loans []models.Loan `json:"loans" validate:"required"`
}

// ActiveLoanListResponse wraps a borrower's open loans.
type ActiveLoanListResponse struct {
	Loans []models.ActiveLoan `json:"loans" validate:"required"`
}

// OverdueLoanListResponse wraps overdue loans.
type OverdueLoanListResponse struct {
	ThresholdDays int                  `json:"threshold_days" example:"30" validate:"required"`
	Loans         []models.OverdueLoan `json:"loans" validate:"required"`
}

// AuditResponse lists items whose availability disagrees with their loans.
type AuditResponse struct {
	ItemIDs []models.ItemID `json:"item_ids" validate:"required"`
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
