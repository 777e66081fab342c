package currency_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/daryls-hrplus/intellihrm-sub025/internal/currency"
)

func snapshot(from, to string, rate string) currency.ExchangeRateSnapshot {
	return currency.ExchangeRateSnapshot{
		ID:           uuid.New(),
		CompanyID:    uuid.New(),
		RunID:        uuid.New(),
		FromCurrency: from,
		ToCurrency:   to,
		Rate:         decimal.RequireFromString(rate),
	}
}

func TestToLocal_SameCurrencyPassthrough(t *testing.T) {
	table := currency.NewRateTable("USD", nil)

	conv := table.ToLocal(decimal.NewFromInt(5000), "USD")

	assert.True(t, conv.LocalAmount.Equal(decimal.NewFromInt(5000)))
	assert.False(t, conv.WasConverted)
	assert.False(t, conv.RateMissing)
	assert.Nil(t, conv.ExchangeRateUsed)
}

func TestToLocal_DirectRate(t *testing.T) {
	table := currency.NewRateTable("USD", []currency.ExchangeRateSnapshot{
		snapshot("EUR", "USD", "1.1"),
	})

	conv := table.ToLocal(decimal.NewFromInt(1000), "EUR")

	assert.True(t, conv.WasConverted)
	assert.True(t, conv.LocalAmount.Equal(decimal.RequireFromString("1100")), "got %s", conv.LocalAmount)
	assert.NotNil(t, conv.ExchangeRateUsed)
	assert.True(t, conv.ExchangeRateUsed.Equal(decimal.RequireFromString("1.1")))
}

func TestToLocal_InverseRate(t *testing.T) {
	// Snapshot stores USD->EUR only; EUR amounts convert via the inverse.
	table := currency.NewRateTable("USD", []currency.ExchangeRateSnapshot{
		snapshot("USD", "EUR", "0.8"),
	})

	conv := table.ToLocal(decimal.NewFromInt(800), "EUR")

	assert.True(t, conv.WasConverted)
	assert.True(t, conv.LocalAmount.Equal(decimal.RequireFromString("1000")), "got %s", conv.LocalAmount)
}

func TestToLocal_MissingRatePassthrough(t *testing.T) {
	table := currency.NewRateTable("USD", []currency.ExchangeRateSnapshot{
		snapshot("EUR", "USD", "1.1"),
	})

	conv := table.ToLocal(decimal.NewFromInt(90000), "JPY")

	assert.True(t, conv.RateMissing)
	assert.False(t, conv.WasConverted)
	assert.True(t, conv.LocalAmount.Equal(decimal.NewFromInt(90000)))
}

func TestToLocal_ZeroInverseIsMissing(t *testing.T) {
	table := currency.NewRateTable("USD", []currency.ExchangeRateSnapshot{
		snapshot("USD", "XXX", "0"),
	})

	conv := table.ToLocal(decimal.NewFromInt(100), "XXX")

	assert.True(t, conv.RateMissing)
}
