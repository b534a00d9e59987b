package transfer_test

import (
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/privcap/internal/transfer"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func pct(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "want %s, got %s", want, got)
}

func TestFee(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{amount: "10000", want: "250"},
		{amount: "15000", want: "375"},
		{amount: "333.33", want: "8.33"},
		{amount: "0.20", want: "0.01"},
		{amount: "0.01", want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assertDecimal(t, tt.want, transfer.Fee(d(tt.amount)))
		})
	}
}

func TestTransfer_ApplyFees(t *testing.T) {
	tr := &transfer.Transfer{Amount: d("10000.004")}
	tr.ApplyFees()

	assertDecimal(t, "10000", tr.Amount)
	assertDecimal(t, "250", tr.Fee)
	assertDecimal(t, "9750", tr.NetAmount)
	assert.True(t, tr.Fee.Add(tr.NetAmount).Equal(tr.Amount))
}

func TestTransfer_Involves(t *testing.T) {
	from, to := uuid.New(), uuid.New()

	tr := &transfer.Transfer{FromUserID: from, ToUserID: &to}
	assert.True(t, tr.Involves(from))
	assert.True(t, tr.Involves(to))
	assert.False(t, tr.Involves(uuid.New()))

	external := &transfer.Transfer{FromUserID: from, ToEmail: "buyer@example.com"}
	assert.True(t, external.External())
	assert.False(t, external.Involves(to))
}

func TestTerms_Validate(t *testing.T) {
	recipient := uuid.New()

	valid := transfer.Terms{
		ToUserID:   &recipient,
		Type:       transfer.TypePartial,
		Percentage: pct("20"),
		Amount:     d("10000"),
		Reason:     "Liquidity needs",
	}

	tests := []struct {
		name      string
		mutate    func(*transfer.Terms)
		wantField string
	}{
		{name: "Valid", mutate: func(*transfer.Terms) {}},
		{
			name: "ExternalRecipient",
			mutate: func(tr *transfer.Terms) {
				tr.ToUserID = nil
				tr.ToEmail = "buyer@example.com"
			},
		},
		{
			name:      "NoRecipient",
			mutate:    func(tr *transfer.Terms) { tr.ToUserID = nil },
			wantField: "to_email",
		},
		{
			name: "BadEmail",
			mutate: func(tr *transfer.Terms) {
				tr.ToUserID = nil
				tr.ToEmail = "not-an-email"
			},
			wantField: "to_email",
		},
		{
			name:      "PartialWithoutPercentage",
			mutate:    func(tr *transfer.Terms) { tr.Percentage = nil },
			wantField: "percentage",
		},
		{
			name:   "FullWithPercentage",
			mutate: func(tr *transfer.Terms) { tr.Type = transfer.TypeFull },
		},
		{
			name: "FullIgnoresPercentageBounds",
			mutate: func(tr *transfer.Terms) {
				tr.Type = transfer.TypeFull
				tr.Percentage = pct("150")
			},
		},
		{
			name:      "PercentageAboveHundred",
			mutate:    func(tr *transfer.Terms) { tr.Percentage = pct("100.5") },
			wantField: "percentage",
		},
		{
			name:      "ZeroPercentage",
			mutate:    func(tr *transfer.Terms) { tr.Percentage = pct("0") },
			wantField: "percentage",
		},
		{
			name:      "ZeroAmount",
			mutate:    func(tr *transfer.Terms) { tr.Amount = decimal.Zero },
			wantField: "transfer_amount",
		},
		{
			name:      "NegativeAmount",
			mutate:    func(tr *transfer.Terms) { tr.Amount = d("-5") },
			wantField: "transfer_amount",
		},
		{
			name:      "UnknownType",
			mutate:    func(tr *transfer.Terms) { tr.Type = "SWAP" },
			wantField: "transfer_type",
		},
		{
			name:      "MissingReason",
			mutate:    func(tr *transfer.Terms) { tr.Reason = "" },
			wantField: "reason",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			terms := valid
			tt.mutate(&terms)

			err := terms.Validate()
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}

			var verrs validation.Errors
			require.ErrorAs(t, err, &verrs)
			assert.Contains(t, verrs, tt.wantField)
		})
	}
}

func TestCreateParams_Validate(t *testing.T) {
	params := transfer.CreateParams{
		Terms: transfer.Terms{
			ToEmail: "buyer@example.com",
			Type:    transfer.TypeFull,
			Amount:  d("50000"),
			Reason:  "Exit",
		},
	}

	var verrs validation.Errors
	require.ErrorAs(t, params.Validate(), &verrs)
	assert.Contains(t, verrs, "investment_id")

	params.InvestmentID = uuid.New()
	require.NoError(t, params.Validate())
}

func TestDocumentParams_Validate(t *testing.T) {
	require.NoError(t, transfer.DocumentParams{FileRef: "s3://docs/agreement.pdf"}.Validate())
	require.NoError(t, transfer.DocumentParams{Type: transfer.DocumentAgreement, FileRef: "agreement.pdf"}.Validate())
	require.Error(t, transfer.DocumentParams{Type: "INVOICE", FileRef: "x.pdf"}.Validate())
	require.Error(t, transfer.DocumentParams{Type: transfer.DocumentReceipt}.Validate())
}
