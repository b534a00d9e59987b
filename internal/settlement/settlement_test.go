package settlement_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/privcap/internal/apperr"
	"github.com/MrJamesThe3rd/privcap/internal/audit"
	"github.com/MrJamesThe3rd/privcap/internal/investment"
	"github.com/MrJamesThe3rd/privcap/internal/settlement"
	"github.com/MrJamesThe3rd/privcap/internal/transfer"
)

var fixedNow = time.Date(2025, 6, 30, 14, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "want %s, got %s", want, got)
}

type fixture struct {
	ledger   *ledger
	exec     *settlement.Executor
	audit    *audit.MockRecorder
	seller   uuid.UUID
	buyer    uuid.UUID
	position investment.Investment
}

// newFixture seeds a seller holding one position with the given cost basis and value.
func newFixture(t *testing.T, invested, value string) *fixture {
	ctrl := gomock.NewController(t)
	l := newLedger()
	rec := audit.NewMockRecorder(ctrl)

	f := &fixture{
		ledger: l,
		exec:   settlement.NewExecutor(l, rec, zerolog.Nop(), settlement.WithClock(func() time.Time { return fixedNow })),
		audit:  rec,
		seller: l.addInvestor("seller@example.com"),
		buyer:  l.addInvestor("buyer@example.com"),
	}

	vintage := 2021
	f.position = l.addInvestment(investment.Investment{
		OwnerID:        f.seller,
		Name:           "Sequoia Growth IV",
		Status:         investment.StatusActive,
		Sector:         investment.SectorTechnology,
		Manager:        "Sequoia Capital",
		FundVintage:    &vintage,
		TotalInvested:  d(invested),
		CurrentValue:   d(value),
		InvestmentDate: time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC),
	})

	return f
}

func (f *fixture) completed(typ transfer.Type, amount string) transfer.Transfer {
	return f.ledger.addTransfer(transfer.Transfer{
		InvestmentID: f.position.ID,
		FromUserID:   f.seller,
		ToUserID:     &f.buyer,
		Type:         typ,
		Amount:       d(amount),
		Reason:       "Liquidity",
		Status:       transfer.StatusCompleted,
	})
}

func (f *fixture) buyerPosition(t *testing.T) investment.Investment {
	t.Helper()

	positions := f.ledger.positions(f.buyer)
	require.Len(t, positions, 1)

	return positions[0]
}

func activitiesOf(all []investment.Activity, id uuid.UUID) []investment.Activity {
	var out []investment.Activity

	for _, a := range all {
		if a.InvestmentID == id {
			out = append(out, a)
		}
	}

	return out
}

func TestSettle_Partial(t *testing.T) {
	f := newFixture(t, "50000", "50000")
	tr := f.completed(transfer.TypePartial, "10000")

	f.audit.EXPECT().
		Record(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, e audit.Entry) {
			assert.Equal(t, audit.PortfolioUpdate, e.Type)
			assert.Equal(t, tr.ID.String(), e.Metadata["transfer_id"])
		}).
		Times(2)

	require.NoError(t, f.exec.Settle(t.Context(), tr.ID))

	seller := f.ledger.investment(f.position.ID)
	assertDecimal(t, "40000", seller.CurrentValue)
	assertDecimal(t, "40000", seller.TotalInvested)
	assert.Equal(t, investment.StatusActive, seller.Status)

	buyer := f.buyerPosition(t)
	assertDecimal(t, "10000", buyer.CurrentValue)
	assertDecimal(t, "10000", buyer.TotalInvested)
	assert.Equal(t, "Sequoia Growth IV", buyer.Name)
	assert.Equal(t, investment.SectorTechnology, buyer.Sector)
	assert.Equal(t, "Sequoia Capital", buyer.Manager)
	assert.Equal(t, f.position.FundVintage, buyer.FundVintage)
	assert.Equal(t, investment.StatusActive, buyer.Status)

	all := f.ledger.ledgerActivities()

	sellerActs := activitiesOf(all, seller.ID)
	require.Len(t, sellerActs, 1)
	assert.Equal(t, investment.ActivityPartialExit, sellerActs[0].Type)
	assertDecimal(t, "10000", sellerActs[0].Amount)
	assert.Equal(t, investment.Day(fixedNow), sellerActs[0].Date)
	assert.Contains(t, sellerActs[0].Details, "buyer@example.com")

	buyerActs := activitiesOf(all, buyer.ID)
	require.Len(t, buyerActs, 1)
	assert.Equal(t, investment.ActivityInitialInvestment, buyerActs[0].Type)
	assertDecimal(t, "-10000", buyerActs[0].Amount)
	assert.Contains(t, buyerActs[0].Details, "seller@example.com")

	assert.True(t, f.ledger.transfer(tr.ID).IsProcessed)
}

func TestSettle_FullExit(t *testing.T) {
	f := newFixture(t, "30000", "50000")
	tr := f.completed(transfer.TypeFull, "50000")
	f.audit.EXPECT().Record(gomock.Any(), gomock.Any()).Times(2)

	require.NoError(t, f.exec.Settle(t.Context(), tr.ID))

	seller := f.ledger.investment(f.position.ID)
	assert.Equal(t, investment.StatusExited, seller.Status)
	assert.True(t, seller.CurrentValue.IsZero())
	assert.True(t, seller.TotalInvested.IsZero())

	buyer := f.buyerPosition(t)
	assertDecimal(t, "50000", buyer.TotalInvested)

	sellerActs := activitiesOf(f.ledger.ledgerActivities(), seller.ID)
	require.Len(t, sellerActs, 1)
	assert.Equal(t, investment.ActivityDistribution, sellerActs[0].Type)
}

func TestSettle_Conservation(t *testing.T) {
	f := newFixture(t, "42000", "63000")
	tr := f.completed(transfer.TypePartial, "12345.67")
	f.audit.EXPECT().Record(gomock.Any(), gomock.Any()).Times(2)

	require.NoError(t, f.exec.Settle(t.Context(), tr.ID))

	seller := f.ledger.investment(f.position.ID)
	buyer := f.buyerPosition(t)

	decrease := f.position.CurrentValue.Sub(seller.CurrentValue)
	assertDecimal(t, "12345.67", decrease)
	assertDecimal(t, "12345.67", buyer.CurrentValue)

	// Cost basis moves pro rata: 42000 * 12345.67 / 63000.
	assertDecimal(t, "33769.55", seller.TotalInvested)
}

func TestSettle_ExistingBuyerPosition(t *testing.T) {
	f := newFixture(t, "50000", "50000")
	existing := f.ledger.addInvestment(investment.Investment{
		OwnerID:       f.buyer,
		Name:          "Sequoia Growth IV",
		Status:        investment.StatusUnderperforming,
		Sector:        investment.SectorTechnology,
		TotalInvested: d("5000"),
		CurrentValue:  d("4000"),
	})
	tr := f.completed(transfer.TypePartial, "10000")
	f.audit.EXPECT().Record(gomock.Any(), gomock.Any()).Times(2)

	require.NoError(t, f.exec.Settle(t.Context(), tr.ID))

	buyer := f.buyerPosition(t)
	assert.Equal(t, existing.ID, buyer.ID)
	assertDecimal(t, "15000", buyer.TotalInvested)
	assertDecimal(t, "14000", buyer.CurrentValue)
	assert.Equal(t, investment.StatusUnderperforming, buyer.Status)
}

func TestSettle_AmountExceedsValue(t *testing.T) {
	f := newFixture(t, "10000", "10000")
	tr := f.completed(transfer.TypePartial, "15000")

	err := f.exec.Settle(t.Context(), tr.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	seller := f.ledger.investment(f.position.ID)
	assertDecimal(t, "10000", seller.CurrentValue)
	assertDecimal(t, "10000", seller.TotalInvested)
	assert.Empty(t, f.ledger.positions(f.buyer))
	assert.Empty(t, f.ledger.ledgerActivities())

	stored := f.ledger.transfer(tr.ID)
	assert.Equal(t, transfer.StatusCompleted, stored.Status)
	assert.False(t, stored.IsProcessed)
}

func TestSettle_ExternalRecipient(t *testing.T) {
	f := newFixture(t, "50000", "50000")
	tr := f.ledger.addTransfer(transfer.Transfer{
		InvestmentID: f.position.ID,
		FromUserID:   f.seller,
		ToEmail:      "outside@example.com",
		Type:         transfer.TypePartial,
		Amount:       d("10000"),
		Status:       transfer.StatusCompleted,
	})

	err := f.exec.Settle(t.Context(), tr.ID)
	assert.ErrorIs(t, err, transfer.ErrExternalRecipient)

	assertDecimal(t, "50000", f.ledger.investment(f.position.ID).CurrentValue)
	assert.False(t, f.ledger.transfer(tr.ID).IsProcessed)
}

func TestSettle_NotCompleted(t *testing.T) {
	f := newFixture(t, "50000", "50000")
	tr := f.ledger.addTransfer(transfer.Transfer{
		InvestmentID: f.position.ID,
		FromUserID:   f.seller,
		ToUserID:     &f.buyer,
		Type:         transfer.TypePartial,
		Amount:       d("10000"),
		Status:       transfer.StatusApproved,
	})

	err := f.exec.Settle(t.Context(), tr.ID)
	assert.ErrorIs(t, err, apperr.ErrState)
	assert.Empty(t, f.ledger.ledgerActivities())
}

func TestSettle_Idempotent(t *testing.T) {
	f := newFixture(t, "50000", "50000")
	tr := f.completed(transfer.TypePartial, "10000")
	f.audit.EXPECT().Record(gomock.Any(), gomock.Any()).Times(2)

	for range 3 {
		require.NoError(t, f.exec.Settle(t.Context(), tr.ID))
	}

	assertDecimal(t, "40000", f.ledger.investment(f.position.ID).CurrentValue)
	assertDecimal(t, "10000", f.buyerPosition(t).CurrentValue)
	assert.Len(t, f.ledger.ledgerActivities(), 2)
}

func TestSettle_Concurrent(t *testing.T) {
	f := newFixture(t, "50000", "50000")
	tr := f.completed(transfer.TypePartial, "10000")
	f.audit.EXPECT().Record(gomock.Any(), gomock.Any()).Times(2)

	var wg sync.WaitGroup

	errs := make([]error, 8)
	for i := range errs {
		wg.Go(func() {
			errs[i] = f.exec.Settle(t.Context(), tr.ID)
		})
	}

	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	assertDecimal(t, "40000", f.ledger.investment(f.position.ID).CurrentValue)
	assertDecimal(t, "10000", f.buyerPosition(t).CurrentValue)
	assert.Len(t, f.ledger.ledgerActivities(), 2)
}

func TestSettle_RollsBackOnFailure(t *testing.T) {
	for _, method := range []string{"FindOrCreateInvestment", "MarkProcessed"} {
		t.Run(method, func(t *testing.T) {
			f := newFixture(t, "50000", "50000")
			tr := f.completed(transfer.TypePartial, "10000")
			f.ledger.failOn = method

			err := f.exec.Settle(t.Context(), tr.ID)
			assert.ErrorIs(t, err, errInjected)

			assertDecimal(t, "50000", f.ledger.investment(f.position.ID).CurrentValue)
			assert.Empty(t, f.ledger.positions(f.buyer))
			assert.Empty(t, f.ledger.ledgerActivities())
			assert.False(t, f.ledger.transfer(tr.ID).IsProcessed)
		})
	}
}

func TestDebit(t *testing.T) {
	tests := []struct {
		name          string
		invested      string
		value         string
		amount        string
		typ           transfer.Type
		wantInvested  string
		wantValue     string
		wantMoved     string
		wantStatus    investment.Status
		wantErrorKind apperr.Kind
	}{
		{
			name: "ProRataCostBasis", invested: "40000", value: "50000", amount: "10000", typ: transfer.TypePartial,
			wantInvested: "32000", wantValue: "40000", wantMoved: "8000", wantStatus: investment.StatusActive,
		},
		{
			name: "PartialOfWholeValueExits", invested: "8000", value: "10000", amount: "10000", typ: transfer.TypePartial,
			wantInvested: "0", wantValue: "0", wantMoved: "8000", wantStatus: investment.StatusExited,
		},
		{
			name: "FullBelowValueExits", invested: "8000", value: "10000", amount: "6000", typ: transfer.TypeFull,
			wantInvested: "0", wantValue: "0", wantMoved: "4800", wantStatus: investment.StatusExited,
		},
		{
			name: "ExceedsValue", invested: "10000", value: "10000", amount: "15000", typ: transfer.TypePartial,
			wantErrorKind: apperr.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seller := &investment.Investment{
				Status:        investment.StatusActive,
				TotalInvested: d(tt.invested),
				CurrentValue:  d(tt.value),
			}

			moved, err := settlement.Debit(seller, d(tt.amount), tt.typ)
			if tt.wantErrorKind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErrorKind, apperr.KindOf(err))
				assertDecimal(t, tt.value, seller.CurrentValue)
				return
			}

			require.NoError(t, err)
			assertDecimal(t, tt.wantMoved, moved)
			assertDecimal(t, tt.wantInvested, seller.TotalInvested)
			assertDecimal(t, tt.wantValue, seller.CurrentValue)
			assert.Equal(t, tt.wantStatus, seller.Status)
		})
	}
}

func TestCredit_ReopensExitedPosition(t *testing.T) {
	buyer := &investment.Investment{Status: investment.StatusExited}

	settlement.Credit(buyer, d("2500"))

	assert.Equal(t, investment.StatusActive, buyer.Status)
	assertDecimal(t, "2500", buyer.TotalInvested)
	assertDecimal(t, "2500", buyer.CurrentValue)
}
