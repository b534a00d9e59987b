package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/privcap/internal/analytics"
	"github.com/MrJamesThe3rd/privcap/internal/audit"
	apihttp "github.com/MrJamesThe3rd/privcap/internal/http"
	"github.com/MrJamesThe3rd/privcap/internal/http/auth"
	investmenthttp "github.com/MrJamesThe3rd/privcap/internal/http/investment"
	"github.com/MrJamesThe3rd/privcap/internal/http/portfolio"
	transferhttp "github.com/MrJamesThe3rd/privcap/internal/http/transfer"
	"github.com/MrJamesThe3rd/privcap/internal/importer"
	"github.com/MrJamesThe3rd/privcap/internal/investment"
	"github.com/MrJamesThe3rd/privcap/internal/transfer"
)

func newRouter(t *testing.T) (http.Handler, *auth.Authenticator, *transfer.MockRepository) {
	ctrl := gomock.NewController(t)

	authenticator, err := auth.NewAuthenticator("s3cret", "privcap")
	require.NoError(t, err)

	transfers := transfer.NewMockRepository(ctrl)
	transferSvc := transfer.NewService(
		transfers, transfer.NewMockInvestments(ctrl), transfer.NewMockInvestors(ctrl),
		transfer.NewMockSettler(ctrl), audit.NewMockRecorder(ctrl), zerolog.Nop(),
	)
	investmentSvc := investment.NewService(investment.NewMockRepository(ctrl), zerolog.Nop())
	analyticsSvc := analytics.NewService(analytics.NewMockLedger(ctrl), zerolog.Nop(), analytics.DefaultSettings)

	router := apihttp.New(
		apihttp.Options{Log: zerolog.Nop(), Auth: authenticator, AllowedOrigins: []string{"http://localhost:3000"}},
		transferhttp.NewHandler(transferSvc),
		investmenthttp.NewHandler(investmentSvc, importer.NewService()),
		portfolio.NewHandler(analyticsSvc),
	)

	return router, authenticator, transfers
}

func TestRouter_RequiresToken(t *testing.T) {
	router, _, _ := newRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/transfers/pending", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_AuthenticatedRequest(t *testing.T) {
	router, authenticator, transfers := newRouter(t)

	reviewer := transfer.Actor{ID: uuid.New(), Staff: true}
	token, err := authenticator.Issue(reviewer, time.Hour)
	require.NoError(t, err)

	transfers.EXPECT().
		ListTransfers(gomock.Any(), transfer.ListFilter{Statuses: transfer.InReviewStatuses}).
		Return(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transfers/review-queue", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRouter_CORSPreflight(t *testing.T) {
	router, _, _ := newRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/transfers/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
