// Package portfolio serves the read-only analytics of the calling investor's portfolio.
package portfolio

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/privcap/internal/analytics"
	"github.com/MrJamesThe3rd/privcap/internal/http/auth"
	"github.com/MrJamesThe3rd/privcap/internal/http/respond"
)

type Handler struct {
	svc *analytics.Service
}

func NewHandler(svc *analytics.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/metrics", read(h.svc.GetPortfolioMetrics))
	r.Get("/sector-allocation", read(h.svc.GetSectorAllocation))
	r.Get("/risk", read(h.svc.GetRiskMetrics))
	r.Get("/attribution", read(h.svc.GetReturnAttribution))
	r.Get("/returns", read(h.svc.GetReturnsAnalysis))
	r.Get("/asset-allocation", read(h.svc.GetAssetAllocation))
	r.Get("/distributions", read(h.svc.GetDistributionHistory))
}

// read serves an analytics query for the calling investor.
func read[T any](fn func(ctx context.Context, owner uuid.UUID) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := fn(r.Context(), auth.Actor(r).ID)
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		respond.JSON(w, r, http.StatusOK, v)
	}
}
