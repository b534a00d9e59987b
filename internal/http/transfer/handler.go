package transfer

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/privcap/internal/http/auth"
	"github.com/MrJamesThe3rd/privcap/internal/http/respond"
	"github.com/MrJamesThe3rd/privcap/internal/transfer"
)

type Handler struct {
	svc *transfer.Service
}

func NewHandler(svc *transfer.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/pending", h.listing(h.svc.ListPending))
	r.Get("/history", h.listing(h.svc.ListHistory))
	r.Get("/review-queue", h.listing(h.svc.ListReviewQueue))
	r.Get("/unsettled", h.listing(h.svc.ListUnsettled))
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.updateDraft)
	r.Post("/{id}/submit", h.action(h.svc.Submit))
	r.Post("/{id}/approve", h.action(h.svc.Approve))
	r.Post("/{id}/reject", h.action(h.svc.Reject))
	r.Post("/{id}/complete", h.action(h.svc.Complete))
	r.Post("/{id}/cancel", h.action(h.svc.Cancel))
	r.Post("/{id}/retry-settlement", h.action(h.svc.RetrySettlement))
	r.Get("/{id}/documents", h.listDocuments)
	r.Post("/{id}/documents", h.attachDocument)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req transfer.CreateParams
	if !respond.Decode(w, r, &req) {
		return
	}

	t, err := h.svc.Create(r.Context(), auth.Actor(r), req)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusCreated, toResponse(t))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var status *transfer.Status
	if s := r.URL.Query().Get("status"); s != "" {
		status = new(transfer.Status(s))
	}

	direction := transfer.Direction(r.URL.Query().Get("direction"))

	ts, err := h.svc.List(r.Context(), auth.Actor(r), status, direction)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, toResponseList(ts))
}

type listFunc func(ctx context.Context, actor transfer.Actor) ([]*transfer.Transfer, error)

func (h *Handler) listing(fn listFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ts, err := fn(r.Context(), auth.Actor(r))
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		respond.JSON(w, r, http.StatusOK, toResponseList(ts))
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.PathID(w, r, "id")
	if !ok {
		return
	}

	t, err := h.svc.Get(r.Context(), id, auth.Actor(r))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, toResponse(t))
}

func (h *Handler) updateDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.PathID(w, r, "id")
	if !ok {
		return
	}

	var req transfer.Terms
	if !respond.Decode(w, r, &req) {
		return
	}

	t, err := h.svc.UpdateDraft(r.Context(), id, auth.Actor(r), req)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, toResponse(t))
}

type actionFunc func(ctx context.Context, id uuid.UUID, actor transfer.Actor) (*transfer.Transfer, error)

// action serves a lifecycle operation on the transfer named in the path.
func (h *Handler) action(fn actionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.PathID(w, r, "id")
		if !ok {
			return
		}

		t, err := fn(r.Context(), id, auth.Actor(r))
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		respond.JSON(w, r, http.StatusOK, toResponse(t))
	}
}

func (h *Handler) attachDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.PathID(w, r, "id")
	if !ok {
		return
	}

	var req transfer.DocumentParams
	if !respond.Decode(w, r, &req) {
		return
	}

	doc, err := h.svc.AttachDocument(r.Context(), id, auth.Actor(r), req)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusCreated, toDocumentResponse(doc))
}

func (h *Handler) listDocuments(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.PathID(w, r, "id")
	if !ok {
		return
	}

	docs, err := h.svc.ListDocuments(r.Context(), id, auth.Actor(r))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		resp = append(resp, toDocumentResponse(d))
	}

	respond.JSON(w, r, http.StatusOK, resp)
}
