package portfolio_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/privcap/internal/analytics"
	"github.com/MrJamesThe3rd/privcap/internal/http/auth"
	"github.com/MrJamesThe3rd/privcap/internal/http/portfolio"
	"github.com/MrJamesThe3rd/privcap/internal/investment"
	"github.com/MrJamesThe3rd/privcap/internal/transfer"
)

func newServer(t *testing.T, owner uuid.UUID) (http.Handler, *analytics.MockLedger) {
	ledger := analytics.NewMockLedger(gomock.NewController(t))
	svc := analytics.NewService(ledger, zerolog.Nop(), analytics.DefaultSettings)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithActor(req.Context(), transfer.Actor{ID: owner})))
		})
	})
	r.Route("/portfolio", portfolio.NewHandler(svc).Routes)

	return r, ledger
}

func TestHandler_SectorAllocation(t *testing.T) {
	owner := uuid.New()
	h, ledger := newServer(t, owner)

	ledger.EXPECT().
		ListByOwner(gomock.Any(), owner, investment.StatusActive, investment.StatusUnderperforming).
		Return([]*investment.Investment{
			{ID: uuid.New(), OwnerID: owner, Sector: investment.SectorTechnology, Status: investment.StatusActive, CurrentValue: decimal.NewFromInt(750)},
			{ID: uuid.New(), OwnerID: owner, Sector: investment.SectorEnergy, Status: investment.StatusActive, CurrentValue: decimal.NewFromInt(250)},
		}, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/portfolio/sector-allocation", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []struct {
		Sector     investment.Sector `json:"sector"`
		Percentage float64           `json:"percentage"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp, 2)
	assert.Equal(t, investment.SectorTechnology, resp[0].Sector)
	assert.InDelta(t, 75.0, resp[0].Percentage, 0.001)
}

func TestHandler_LedgerFailure(t *testing.T) {
	owner := uuid.New()
	h, ledger := newServer(t, owner)

	ledger.EXPECT().
		ListByOwner(gomock.Any(), owner, investment.StatusActive, investment.StatusUnderperforming).
		Return(nil, errors.New("connection reset"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/portfolio/asset-allocation", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
