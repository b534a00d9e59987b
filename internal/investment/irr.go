package investment

import (
	"time"

	"github.com/MrJamesThe3rd/privcap/internal/xirr"
)

// CashFlows builds the XIRR input for an investment: each activity as an outflow or inflow
// by its type, plus the current value as a terminal inflow dated today.
func CashFlows(inv *Investment, activities []*Activity, today time.Time) []xirr.Flow {
	flows := make([]xirr.Flow, 0, len(activities)+1)

	for _, a := range activities {
		flows = append(flows, xirr.Flow{
			Date:   a.Date,
			Amount: SignedAmount(a.Type, a.Amount).InexactFloat64(),
		})
	}

	return append(flows, xirr.Flow{Date: Day(today), Amount: inv.CurrentValue.InexactFloat64()})
}

// IRR returns the annualized IRR percentage of an investment.
// ok is false when there is no capital history or the solver does not converge.
func IRR(inv *Investment, activities []*Activity, today time.Time) (pct float64, ok bool) {
	if len(activities) == 0 {
		return 0, false
	}

	return xirr.Percent(CashFlows(inv, activities, today))
}
