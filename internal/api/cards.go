package api

import (
	"net/http"

	"github.com/starford/lending/internal/catalog"
	"github.com/starford/lending/internal/circulation"
	"github.com/starford/lending/internal/inbox"
)

// CardHandler accepts item cards into the catalog inbox.
type CardHandler struct {
	svc *circulation.Service
	fs  *inbox.FS
}

// NewCardHandler creates a handler writing into the inbox at fs.
func NewCardHandler(svc *circulation.Service, fs *inbox.FS) *CardHandler {
	return &CardHandler{svc: svc, fs: fs}
}

// Put handles POST /api/cards.
//
//	@Summary		Upload an item card into the inbox
//	@Tags			cards
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PutCardRequest	true	"Card path and Markdown content"
//	@Success		200		{object}	PutCardResponse
//	@Success		201		{object}	PutCardResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cards [post]
func (h *CardHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req PutCardRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Path == "" || req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path and content are required"))
		return
	}
	id, outcome, err := inbox.Put(r.Context(), h.svc, h.fs, req.Path, []byte(req.Content))
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusOK
	switch outcome {
	case catalog.CardCreated:
		status = http.StatusCreated
		h.svc.ItemImported(id, req.Path, outcome)
	case catalog.CardUpdated:
		h.svc.ItemImported(id, req.Path, outcome)
	}
	writeJSON(w, status, PutCardResponse{ItemID: id, Outcome: outcome.String()})
}
