package investment

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/privcap/internal/encoding"
	"github.com/MrJamesThe3rd/privcap/internal/http/auth"
	"github.com/MrJamesThe3rd/privcap/internal/http/respond"
	"github.com/MrJamesThe3rd/privcap/internal/importer"
	"github.com/MrJamesThe3rd/privcap/internal/investment"
)

type Handler struct {
	svc       *investment.Service
	importSvc *importer.Service
}

func NewHandler(svc *investment.Service, importSvc *importer.Service) *Handler {
	return &Handler{svc: svc, importSvc: importSvc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Patch("/{id}/valuation", h.revalue)
	r.Get("/{id}/activities", h.listActivities)
	r.Post("/{id}/activities", h.recordActivity)
	r.Get("/{id}/performance", h.performance)
	r.Get("/{id}/irr", h.irr)
	r.Post("/{id}/import", h.importStatement)
	r.Post("/{id}/import/confirm", h.confirmImport)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req investment.CreateParams
	if !respond.Decode(w, r, &req) {
		return
	}

	req.OwnerID = auth.Actor(r).ID

	inv, err := h.svc.Create(r.Context(), req)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusCreated, toResponse(inv))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var statuses []investment.Status
	for _, s := range r.URL.Query()["status"] {
		statuses = append(statuses, investment.Status(s))
	}

	invs, err := h.svc.ListByOwner(r.Context(), auth.Actor(r).ID, statuses...)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]investmentResponse, 0, len(invs))
	for _, inv := range invs {
		resp = append(resp, toResponse(inv))
	}

	respond.JSON(w, r, http.StatusOK, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.PathID(w, r, "id")
	if !ok {
		return
	}

	inv, err := h.svc.GetOwned(r.Context(), id, auth.Actor(r).ID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, toResponse(inv))
}

type revalueRequest struct {
	CurrentValue decimal.Decimal    `json:"current_value"`
	Status       *investment.Status `json:"status,omitempty"`
}

func (h *Handler) revalue(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.PathID(w, r, "id")
	if !ok {
		return
	}

	var req revalueRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	inv, err := h.svc.Revalue(r.Context(), id, auth.Actor(r).ID, req.CurrentValue, req.Status)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, toResponse(inv))
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.PathID(w, r, "id")
	if !ok {
		return
	}

	activities, err := h.svc.InvestmentActivities(r.Context(), id, auth.Actor(r).ID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, toActivityList(activities))
}

func (h *Handler) recordActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.PathID(w, r, "id")
	if !ok {
		return
	}

	var req activityParamsDTO
	if !respond.Decode(w, r, &req) {
		return
	}

	a, err := h.svc.RecordActivity(r.Context(), id, auth.Actor(r).ID, req.params())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusCreated, toActivityResponse(a))
}

func (h *Handler) performance(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.PathID(w, r, "id")
	if !ok {
		return
	}

	days := investment.DefaultHistoryDays
	if s := r.URL.Query().Get("days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			respond.BadRequest(w, r, "days", "must be a positive integer")
			return
		}

		days = n
	}

	snaps, err := h.svc.PerformanceHistory(r.Context(), id, auth.Actor(r).ID, days)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]snapshotResponse, 0, len(snaps))
	for _, s := range snaps {
		resp = append(resp, snapshotResponse{Date: s.Date, Value: s.Value})
	}

	respond.JSON(w, r, http.StatusOK, resp)
}

type irrResponse struct {
	// IRR is null when the cash flows admit no rate.
	IRR *float64 `json:"irr"`
}

func (h *Handler) irr(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.PathID(w, r, "id")
	if !ok {
		return
	}

	if _, err := h.svc.GetOwned(r.Context(), id, auth.Actor(r).ID); err != nil {
		respond.Error(w, r, err)
		return
	}

	pct, defined, err := h.svc.CalculateIRR(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var resp irrResponse
	if defined {
		resp.IRR = &pct
	}

	respond.JSON(w, r, http.StatusOK, resp)
}

func (h *Handler) importStatement(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.PathID(w, r, "id")
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(encoding.MaxSize); err != nil {
		respond.BadRequest(w, r, "file", "failed to parse form: "+err.Error())
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respond.BadRequest(w, r, "file", "file field is required")
		return
	}
	defer file.Close()

	params, err := h.importSvc.Import(importer.Format(r.FormValue("format")), file)
	if err != nil {
		respond.BadRequest(w, r, "file", err.Error())
		return
	}

	result, err := h.svc.ImportActivities(r.Context(), id, auth.Actor(r).ID, params)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if len(result.Conflicts) > 0 {
		resp := importConflictResponse{
			New:       make([]activityParamsDTO, 0, len(result.New)),
			Conflicts: make([]conflictDTO, 0, len(result.Conflicts)),
		}

		for _, p := range result.New {
			resp.New = append(resp.New, toParamsDTO(p))
		}

		for _, c := range result.Conflicts {
			resp.Conflicts = append(resp.Conflicts, conflictDTO{
				Incoming: toParamsDTO(c.Incoming),
				Existing: toActivityResponse(c.Existing),
			})
		}

		respond.JSON(w, r, http.StatusConflict, resp)

		return
	}

	respond.JSON(w, r, http.StatusCreated, importSuccessResponse{
		Imported:   len(result.Imported),
		Activities: toActivityList(result.Imported),
	})
}

type confirmRequest struct {
	Params []activityParamsDTO `json:"params"`
}

func (h *Handler) confirmImport(w http.ResponseWriter, r *http.Request) {
	id, ok := respond.PathID(w, r, "id")
	if !ok {
		return
	}

	var req confirmRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	params := make([]investment.ActivityParams, 0, len(req.Params))
	for _, p := range req.Params {
		params = append(params, p.params())
	}

	activities, err := h.svc.CreateActivities(r.Context(), id, auth.Actor(r).ID, params)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusCreated, importSuccessResponse{
		Imported:   len(activities),
		Activities: toActivityList(activities),
	})
}
