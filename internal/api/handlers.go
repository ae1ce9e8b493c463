package api

import (
	"net/http"
	"strconv"

	"github.com/starford/lending/internal/circulation"
	"github.com/starford/lending/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc *circulation.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *circulation.Service) *Handler {
	return &Handler{svc: svc}
}

// AddItem handles POST /api/items.
//
//	@Summary		Add an item to the catalog
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AddItemRequest	true	"Item to add"
//	@Success		201		{object}	models.Item
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items [post]
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	it, err := h.svc.AddItem(r.Context(), req.Title, req.Author, req.Year, req.Genre)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

// GetItem handles GET /api/items/{id}.
//
//	@Summary		Get an item
//	@Tags			items
//	@Produce		json
//	@Param			id	path		int	true	"Item ID"
//	@Success		200	{object}	models.Item
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items/{id} [get]
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	it, err := h.svc.GetItem(r.Context(), models.ItemID(id))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// FindAvailable handles GET /api/items/available.
//
//	@Summary		List available items
//	@Tags			items
//	@Produce		json
//	@Param			author	query		string	false	"Case-insensitive author substring"
//	@Param			genre	query		string	false	"Case-insensitive genre substring"
//	@Success		200		{object}	ItemListResponse
//	@Security		BearerAuth
//	@Router			/items/available [get]
func (h *Handler) FindAvailable(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.svc.FindAvailable(r.Context(), models.ItemFilter{
		Author: q.Get("author"),
		Genre:  q.Get("genre"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ItemListResponse{Items: nonNil(items)})
}

// LoanHistory handles GET /api/items/{id}/loans.
//
//	@Summary		List every loan of an item
//	@Tags			items
//	@Produce		json
//	@Param			id	path		int	true	"Item ID"
//	@Success		200	{object}	LoanListResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items/{id}/loans [get]
func (h *Handler) LoanHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	loans, err := h.svc.LoanHistory(r.Context(), models.ItemID(id))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LoanListResponse{Loans: nonNil(loans)})
}

// AddBorrower handles POST /api/borrowers.
//
//	@Summary		Register a borrower
//	@Tags			borrowers
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AddBorrowerRequest	true	"Borrower to register"
//	@Success		201		{object}	models.Borrower
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/borrowers [post]
func (h *Handler) AddBorrower(w http.ResponseWriter, r *http.Request) {
	var req AddBorrowerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	b, err := h.svc.AddBorrower(r.Context(), req.Name, req.Contact, req.Phone)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// FindBorrower handles GET /api/borrowers?contact=.
//
//	@Summary		Look up a borrower by contact
//	@Tags			borrowers
//	@Produce		json
//	@Param			contact	query		string	true	"Contact, matched case-insensitively"
//	@Success		200		{object}	models.Borrower
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/borrowers [get]
func (h *Handler) FindBorrower(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.FindByContact(r.Context(), r.URL.Query().Get("contact"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// GetBorrower handles GET /api/borrowers/{id}.
//
//	@Summary		Get a borrower
//	@Tags			borrowers
//	@Produce		json
//	@Param			id	path		int	true	"Borrower ID"
//	@Success		200	{object}	models.Borrower
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/borrowers/{id} [get]
func (h *Handler) GetBorrower(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b, err := h.svc.GetBorrower(r.Context(), models.BorrowerID(id))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// ActiveLoansOf handles GET /api/borrowers/{id}/loans.
//
//	@Summary		List a borrower's open loans
//	@Tags			borrowers
//	@Produce		json
//	@Param			id	path		int	true	"Borrower ID"
//	@Success		200	{object}	ActiveLoanListResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/borrowers/{id}/loans [get]
func (h *Handler) ActiveLoansOf(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	loans, err := h.svc.ActiveLoansOf(r.Context(), models.BorrowerID(id))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ActiveLoanListResponse{Loans: nonNil(loans)})
}

// Checkout handles POST /api/loans.
//
//	@Summary		Lend an available item to a borrower
//	@Tags			loans
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CheckoutRequest	true	"Item and borrower"
//	@Success		201		{object}	models.Loan
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/loans [post]
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if !decodeBody(w, r, &req) {
		return
	}
	loan, err := h.svc.Checkout(r.Context(), req.ItemID, req.BorrowerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, loan)
}

// GetLoan handles GET /api/loans/{id}.
//
//	@Summary		Get a loan
//	@Tags			loans
//	@Produce		json
//	@Param			id	path		int	true	"Loan ID"
//	@Success		200	{object}	models.Loan
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/loans/{id} [get]
func (h *Handler) GetLoan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	loan, err := h.svc.GetLoan(r.Context(), models.LoanID(id))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

// Return handles POST /api/loans/{id}/return.
//
//	@Summary		Close an open loan
//	@Tags			loans
//	@Produce		json
//	@Param			id	path		int	true	"Loan ID"
//	@Success		200	{object}	models.Loan
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/loans/{id}/return [post]
func (h *Handler) Return(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	loan, err := h.svc.Return(r.Context(), models.LoanID(id))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

// OverdueLoans handles GET /api/loans/overdue.
//
//	@Summary		List loans open longer than a threshold
//	@Tags			loans
//	@Produce		json
//	@Param			days	query		int	false	"Threshold in days (defaults to the configured value)"
//	@Success		200		{object}	OverdueLoanListResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/loans/overdue [get]
func (h *Handler) OverdueLoans(w http.ResponseWriter, r *http.Request) {
	days := h.svc.OverdueDays()
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("days must be an integer"))
			return
		}
		days = n
	}
	loans, err := h.svc.OverdueLoans(r.Context(), days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, OverdueLoanListResponse{ThresholdDays: days, Loans: nonNil(loans)})
}

// Audit handles GET /api/audit.
//
//	@Summary		List items whose availability disagrees with their loans
//	@Tags			audit
//	@Produce		json
//	@Success		200	{object}	AuditResponse
//	@Security		BearerAuth
//	@Router			/audit [get]
func (h *Handler) Audit(w http.ResponseWriter, r *http.Request) {
	ids, err := h.svc.Discrepancies(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AuditResponse{ItemIDs: nonNil(ids)})
}
