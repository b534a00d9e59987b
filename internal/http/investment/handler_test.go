package investment_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/privcap/internal/http/auth"
	investmenthttp "github.com/MrJamesThe3rd/privcap/internal/http/investment"
	"github.com/MrJamesThe3rd/privcap/internal/importer"
	"github.com/MrJamesThe3rd/privcap/internal/investment"
	"github.com/MrJamesThe3rd/privcap/internal/transfer"
)

var fixedNow = time.Date(2025, 6, 30, 14, 0, 0, 0, time.UTC)

func newServer(t *testing.T, owner uuid.UUID) (http.Handler, *investment.MockRepository) {
	ctrl := gomock.NewController(t)
	repo := investment.NewMockRepository(ctrl)
	svc := investment.NewService(repo, zerolog.Nop(), investment.WithClock(func() time.Time { return fixedNow }))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithActor(req.Context(), transfer.Actor{ID: owner})))
		})
	})
	r.Route("/investments", investmenthttp.NewHandler(svc, importer.NewService()).Routes)

	return r, repo
}

func holding(owner uuid.UUID) *investment.Investment {
	return &investment.Investment{
		ID:             uuid.New(),
		OwnerID:        owner,
		Name:           "Sequoia Growth IV",
		Status:         investment.StatusActive,
		Sector:         investment.SectorTechnology,
		TotalInvested:  decimal.NewFromInt(50000),
		CurrentValue:   decimal.NewFromInt(60000),
		InvestmentDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestHandler_Get(t *testing.T) {
	owner := uuid.New()

	t.Run("DerivedFields", func(t *testing.T) {
		h, repo := newServer(t, owner)
		inv := holding(owner)
		repo.EXPECT().GetInvestment(gomock.Any(), inv.ID).Return(inv, nil)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/investments/"+inv.ID.String(), nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			UnrealizedGain    decimal.Decimal `json:"unrealized_gain"`
			UnrealizedGainPct decimal.Decimal `json:"unrealized_gain_percentage"`
			MOIC              decimal.Decimal `json:"moic"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.True(t, decimal.NewFromInt(10000).Equal(resp.UnrealizedGain))
		assert.True(t, decimal.NewFromInt(20).Equal(resp.UnrealizedGainPct))
		assert.True(t, decimal.RequireFromString("1.2").Equal(resp.MOIC))
	})

	t.Run("NotOwner", func(t *testing.T) {
		h, repo := newServer(t, owner)
		inv := holding(uuid.New())
		repo.EXPECT().GetInvestment(gomock.Any(), inv.ID).Return(inv, nil)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/investments/"+inv.ID.String(), nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestHandler_IRRUndefined(t *testing.T) {
	owner := uuid.New()
	h, repo := newServer(t, owner)

	inv := holding(owner)
	inv.CurrentValue = decimal.Zero
	repo.EXPECT().GetInvestment(gomock.Any(), inv.ID).Return(inv, nil).Times(2)
	repo.EXPECT().ListActivities(gomock.Any(), investment.ActivityFilter{InvestmentID: &inv.ID}).Return(nil, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/investments/"+inv.ID.String()+"/irr", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"irr":null}`, rec.Body.String())
}

func statementUpload(t *testing.T, csv string) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile("file", "statement.csv")
	require.NoError(t, err)

	_, err = part.Write([]byte(csv))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return &body, w.FormDataContentType()
}

func TestHandler_ImportStatement(t *testing.T) {
	owner := uuid.New()
	csv := "Date;Description;Amount\n2025-01-15;Call notice #3;-2.500,00\n2025-03-31;Q1 distribution;1.000,00\n"

	t.Run("Imported", func(t *testing.T) {
		h, repo := newServer(t, owner)
		inv := holding(owner)
		itx := investment.NewMockImportTx(gomock.NewController(t))

		repo.EXPECT().GetInvestment(gomock.Any(), inv.ID).Return(inv, nil)
		repo.EXPECT().BeginImport(gomock.Any(), inv.ID).Return(itx, nil)
		itx.EXPECT().FindDuplicates(gomock.Any(), inv.ID, gomock.Len(2)).Return(nil, nil)
		itx.EXPECT().CreateActivities(gomock.Any(), gomock.Len(2)).Return(nil)
		itx.EXPECT().Commit().Return(nil)
		itx.EXPECT().Rollback().Return(nil)

		body, contentType := statementUpload(t, csv)
		req := httptest.NewRequest(http.MethodPost, "/investments/"+inv.ID.String()+"/import", body)
		req.Header.Set("Content-Type", contentType)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp struct {
			Imported int `json:"imported"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, 2, resp.Imported)
	})

	t.Run("Conflicts", func(t *testing.T) {
		h, repo := newServer(t, owner)
		inv := holding(owner)
		itx := investment.NewMockImportTx(gomock.NewController(t))

		existing := &investment.Activity{
			ID:           uuid.New(),
			InvestmentID: inv.ID,
			Type:         investment.ActivityCapitalCall,
			Amount:       decimal.NewFromInt(-2500),
			Date:         time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
			Details:      "Call notice #3",
		}

		repo.EXPECT().GetInvestment(gomock.Any(), inv.ID).Return(inv, nil)
		repo.EXPECT().BeginImport(gomock.Any(), inv.ID).Return(itx, nil)
		itx.EXPECT().FindDuplicates(gomock.Any(), inv.ID, gomock.Any()).Return([]*investment.Activity{existing}, nil)
		itx.EXPECT().Rollback().Return(nil)

		body, contentType := statementUpload(t, csv)
		req := httptest.NewRequest(http.MethodPost, "/investments/"+inv.ID.String()+"/import", body)
		req.Header.Set("Content-Type", contentType)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

		var resp struct {
			New       []json.RawMessage `json:"new"`
			Conflicts []json.RawMessage `json:"conflicts"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Len(t, resp.New, 1)
		assert.Len(t, resp.Conflicts, 1)
	})

	t.Run("UnreadableFile", func(t *testing.T) {
		h, _ := newServer(t, owner)

		body, contentType := statementUpload(t, "just,some\nnoise,here\n")
		req := httptest.NewRequest(http.MethodPost, "/investments/"+uuid.NewString()+"/import", body)
		req.Header.Set("Content-Type", contentType)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
