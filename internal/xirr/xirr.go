// Package xirr computes the annualized internal rate of return of irregularly dated cash flows.
package xirr

import (
	"errors"
	"math"
	"time"
)

const (
	// Seed is the initial rate guess.
	Seed = 0.10
	// MaxIterations bounds the Newton-Raphson search.
	MaxIterations = 100

	tolerance   = 1.48e-8
	daysPerYear = 365.0
)

var (
	ErrInsufficientData = errors.New("xirr: at least two cash flows are required")
	ErrNoConvergence    = errors.New("xirr: solver did not converge")
)

// Flow is a dated, signed cash flow. Outflows are negative.
type Flow struct {
	Date   time.Time
	Amount float64
}

// Rate solves NPV(rate) = 0, where each flow is discounted by its distance in years
// (days/365) from the earliest flow. The result is a fraction, e.g. 0.1 for 10%.
func Rate(flows []Flow) (float64, error) {
	if len(flows) < 2 {
		return 0, ErrInsufficientData
	}

	start := day(flows[0].Date)
	for _, f := range flows[1:] {
		if d := day(f.Date); d.Before(start) {
			start = d
		}
	}

	years := make([]float64, len(flows))
	amounts := make([]float64, len(flows))

	for i, f := range flows {
		years[i] = day(f.Date).Sub(start).Hours() / 24 / daysPerYear
		amounts[i] = f.Amount
	}

	rate := Seed

	for range MaxIterations {
		npv, slope := npvWithSlope(rate, years, amounts)
		if slope == 0 || !finite(npv) || !finite(slope) {
			return 0, ErrNoConvergence
		}

		next := rate - npv/slope
		if !finite(next) || next <= -1 {
			return 0, ErrNoConvergence
		}

		if math.Abs(next-rate) < tolerance {
			return next, nil
		}

		rate = next
	}

	return 0, ErrNoConvergence
}

// Percent returns the rate as a percentage rounded to two decimals.
// ok is false when the rate is undefined.
func Percent(flows []Flow) (pct float64, ok bool) {
	rate, err := Rate(flows)
	if err != nil {
		return 0, false
	}

	return math.Round(rate*100*100) / 100, true
}

func npvWithSlope(rate float64, years, amounts []float64) (float64, float64) {
	var npv, slope float64

	base := 1 + rate
	for i, t := range years {
		discount := math.Pow(base, t)
		npv += amounts[i] / discount
		slope -= t * amounts[i] / (discount * base)
	}

	return npv, slope
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
