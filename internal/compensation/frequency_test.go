package compensation_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/daryls-hrplus/intellihrm-sub025/internal/compensation"
)

func TestNormalizePeriodAmount_AnnualToMonthly(t *testing.T) {
	out, err := compensation.NormalizePeriodAmount(
		decimal.NewFromInt(120000),
		compensation.FreqAnnual,
		compensation.FreqMonthly,
	)

	assert.NoError(t, err)
	assert.True(t, out.Equal(decimal.NewFromInt(10000)), "got %s", out)
}

func TestNormalizePeriodAmount_MonthlyToBiweekly(t *testing.T) {
	// 5200 monthly annualizes to 62400, then 62400 / 26 = 2400.
	out, err := compensation.NormalizePeriodAmount(
		decimal.NewFromInt(5200),
		compensation.FreqMonthly,
		compensation.FreqBiweekly,
	)

	assert.NoError(t, err)
	assert.True(t, out.Equal(decimal.NewFromInt(2400)), "got %s", out)
}

func TestNormalizePeriodAmount_SameFrequency(t *testing.T) {
	amount := decimal.RequireFromString("1234.5678")
	out, err := compensation.NormalizePeriodAmount(amount, compensation.FreqWeekly, compensation.FreqWeekly)

	assert.NoError(t, err)
	assert.True(t, out.Equal(amount))
}

func TestNormalizePeriodAmount_UnknownFrequency(t *testing.T) {
	_, err := compensation.NormalizePeriodAmount(
		decimal.NewFromInt(100),
		compensation.PayFrequency("DAILY"),
		compensation.FreqMonthly,
	)

	assert.Error(t, err)
}

func TestValidFrequency(t *testing.T) {
	assert.True(t, compensation.ValidFrequency(compensation.FreqSemiMonthly))
	assert.False(t, compensation.ValidFrequency(compensation.PayFrequency("HOURLY")))
	assert.False(t, compensation.ValidFrequency(""))
}
