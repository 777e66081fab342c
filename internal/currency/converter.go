package currency

import (
	"github.com/shopspring/decimal"
)

type pairKey struct {
	from string
	to   string
}

// RateTable is an in-memory view of one run's snapshot, keyed by ordered
// currency pair. The inverse of a stored pair is derivable, so a snapshot
// only needs one direction per pair.
type RateTable struct {
	localCurrency string
	rates         map[pairKey]decimal.Decimal
}

func NewRateTable(localCurrency string, snapshots []ExchangeRateSnapshot) RateTable {
	rates := make(map[pairKey]decimal.Decimal, len(snapshots))
	for _, s := range snapshots {
		rates[pairKey{from: s.FromCurrency, to: s.ToCurrency}] = s.Rate
	}
	return RateTable{localCurrency: localCurrency, rates: rates}
}

func (t RateTable) LocalCurrency() string {
	return t.localCurrency
}

type Conversion struct {
	LocalAmount      decimal.Decimal
	ExchangeRateUsed *decimal.Decimal
	WasConverted     bool
	// RateMissing marks a pass-through caused by an absent snapshot entry.
	// Callers must surface it for audit review; it is not a fatal error.
	RateMissing bool
}

const rateScale = 8

// ToLocal converts amount from the given currency into the run's local
// currency. Same currency passes through untouched. A missing rate also
// passes through, flagged via RateMissing.
func (t RateTable) ToLocal(amount decimal.Decimal, fromCurrency string) Conversion {
	if fromCurrency == t.localCurrency {
		return Conversion{LocalAmount: amount}
	}

	if rate, ok := t.rates[pairKey{from: fromCurrency, to: t.localCurrency}]; ok {
		return Conversion{
			LocalAmount:      amount.Mul(rate),
			ExchangeRateUsed: &rate,
			WasConverted:     true,
		}
	}

	if inverse, ok := t.rates[pairKey{from: t.localCurrency, to: fromCurrency}]; ok && !inverse.IsZero() {
		rate := decimal.NewFromInt(1).DivRound(inverse, rateScale)
		return Conversion{
			LocalAmount:      amount.Mul(rate),
			ExchangeRateUsed: &rate,
			WasConverted:     true,
		}
	}

	return Conversion{LocalAmount: amount, RateMissing: true}
}
