package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/lending/internal/circulation"
	"github.com/starford/lending/internal/inbox"
)

// RouterConfig carries the optional parts of the API.
type RouterConfig struct {
	AuthEnabled bool
	Token       string
	// Events, if non-nil, is mounted at GET /events inside the auth group.
	Events http.Handler
	// Inbox, if non-nil, enables POST /cards.
	Inbox *inbox.FS
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(svc *circulation.Service, cfg RouterConfig) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(cfg.AuthEnabled, cfg.Token))

	// Catalog.
	r.Post("/items", h.AddItem)
	r.Get("/items/available", h.FindAvailable)
	r.Get("/items/{id}", h.GetItem)
	r.Get("/items/{id}/loans", h.LoanHistory)

	// Registry.
	r.Post("/borrowers", h.AddBorrower)
	r.Get("/borrowers", h.FindBorrower)
	r.Get("/borrowers/{id}", h.GetBorrower)
	r.Get("/borrowers/{id}/loans", h.ActiveLoansOf)

	// Ledger.
	r.Post("/loans", h.Checkout)
	r.Get("/loans/overdue", h.OverdueLoans)
	r.Get("/loans/{id}", h.GetLoan)
	r.Post("/loans/{id}/return", h.Return)

	r.Get("/audit", h.Audit)

	if cfg.Inbox != nil {
		ch := NewCardHandler(svc, cfg.Inbox)
		r.Post("/cards", ch.Put)
	}

	if cfg.Events != nil {
		r.Get("/events", cfg.Events.ServeHTTP)
	}

	return r
}
