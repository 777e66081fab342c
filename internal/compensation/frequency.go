package compensation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type PayFrequency string

const (
	FreqWeekly      PayFrequency = "WEEKLY"
	FreqBiweekly    PayFrequency = "BIWEEKLY"
	FreqSemiMonthly PayFrequency = "SEMI_MONTHLY"
	FreqMonthly     PayFrequency = "MONTHLY"
	FreqQuarterly   PayFrequency = "QUARTERLY"
	FreqAnnual      PayFrequency = "ANNUAL"
)

var periodsPerYear = map[PayFrequency]int64{
	FreqWeekly:      52,
	FreqBiweekly:    26,
	FreqSemiMonthly: 24,
	FreqMonthly:     12,
	FreqQuarterly:   4,
	FreqAnnual:      1,
}

func ValidFrequency(f PayFrequency) bool {
	_, ok := periodsPerYear[f]
	return ok
}

const normalizeScale = 6

// NormalizePeriodAmount converts an amount stated at one pay frequency to
// its equivalent at another by annualizing first: the amount is multiplied
// up to an annual figure using its own frequency, then divided by the
// target frequency's periods per year.
func NormalizePeriodAmount(amount decimal.Decimal, from, to PayFrequency) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}
	fromPeriods, ok := periodsPerYear[from]
	if !ok {
		return decimal.Zero, fmt.Errorf("unknown pay frequency %q", from)
	}
	toPeriods, ok := periodsPerYear[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("unknown pay frequency %q", to)
	}

	annual := amount.Mul(decimal.NewFromInt(fromPeriods))
	return annual.DivRound(decimal.NewFromInt(toPeriods), normalizeScale), nil
}
