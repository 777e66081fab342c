package payrollrun

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/daryls-hrplus/intellihrm-sub025/internal/adjustments"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/benefits"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/compensation"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/currency"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/statutory"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func testAggregator() *compensation.Aggregator {
	return compensation.NewAggregator(
		currency.NewRateTable("USD", nil),
		compensation.FreqMonthly,
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC),
	)
}

func TestCalculateEmployee_Invariants(t *testing.T) {
	run := &PayrollRun{ID: uuid.New(), CompanyID: uuid.New(), Currency: "USD"}
	programID := uuid.New()

	in := EmployeeInputs{
		EmployeeID: uuid.New(),
		Compensation: compensation.Inputs{
			Positions: []compensation.PositionAssignment{{
				ID:         uuid.New(),
				BaseSalary: dec("5000"),
				Currency:   "USD",
				Frequency:  compensation.FreqMonthly,
			}},
		},
		SavingsEnrollments: []benefits.SavingsEnrollment{{
			ID:        uuid.New(),
			ProgramID: programID,
			Program: &benefits.SavingsProgram{
				ID:      programID,
				Name:    "Pension",
				PreTax:  true,
				Default: benefits.ContributionRule{EmployeePercent: decPtr("0.05"), EmployerPercent: decPtr("0.03")},
			},
		}},
		Mappings: []benefits.PayrollMapping{{
			ID:            uuid.New(),
			PlanID:        programID,
			PlanKind:      benefits.PlanKindSavings,
			ComponentCode: "SAV_PENSION",
			Active:        true,
		}},
		DeductionTypes: []statutory.DeductionType{{
			ID:           uuid.New(),
			Code:         "TAX",
			Name:         "Income tax",
			Method:       statutory.MethodPercentage,
			EmployeeRate: dec("0.1"),
			EmployerRate: dec("0.1"),
		}},
	}

	result, err := calculateEmployee(run, testAggregator(), in)
	assert.NoError(t, err)

	row := result.Row
	assert.True(t, row.GrossPay.Equal(dec("5000")))
	// Pension: 250 employee pre-tax, 150 employer.
	assert.True(t, row.PreTaxDeductions.Equal(dec("250")))
	assert.True(t, row.TaxableIncome.Equal(dec("4750")))
	// Employee tax on taxable, employer tax on gross.
	assert.True(t, row.EmployeeTax.Equal(dec("475")))
	assert.True(t, row.EmployerTax.Equal(dec("500")))

	// Net pay is gross minus every employee-side deduction.
	expectedDeductions := row.EmployeeTax.Add(row.EmployeeBenefits).Add(row.EmployeeSavings)
	assert.True(t, row.TotalDeductions.Equal(expectedDeductions))
	assert.True(t, row.NetPay.Equal(row.GrossPay.Sub(row.TotalDeductions)))

	// Employer cost is gross plus every employer-side amount.
	expectedCost := row.GrossPay.Add(row.EmployerTax).Add(row.EmployerBenefits).Add(row.EmployerSavings)
	assert.True(t, row.EmployerCost.Equal(expectedCost))

	assert.Len(t, row.Details.Earnings, 1)
	assert.Len(t, row.Details.Savings, 1)
	assert.Len(t, row.Details.Statutory, 1)
}

func TestCalculateEmployee_BracketTaxTrackedSeparately(t *testing.T) {
	run := &PayrollRun{ID: uuid.New(), CompanyID: uuid.New(), Currency: "USD"}

	in := EmployeeInputs{
		EmployeeID: uuid.New(),
		Compensation: compensation.Inputs{
			Positions: []compensation.PositionAssignment{{
				ID:         uuid.New(),
				BaseSalary: dec("5000"),
				Currency:   "USD",
				Frequency:  compensation.FreqMonthly,
			}},
		},
		DeductionTypes: []statutory.DeductionType{
			{
				ID:     uuid.New(),
				Code:   "PAYE",
				Method: statutory.MethodBracket,
				Bands: []statutory.RateBand{
					{LowerBound: decimal.Zero, Rate: dec("0.1")},
				},
			},
			{
				ID:           uuid.New(),
				Code:         "SOC",
				Method:       statutory.MethodPercentage,
				EmployeeRate: dec("0.05"),
				EmployerRate: decimal.Zero,
			},
		},
	}

	result, err := calculateEmployee(run, testAggregator(), in)
	assert.NoError(t, err)

	row := result.Row
	// PAYE 500, social 250; only the bracket share feeds the next
	// period's cumulative subtraction.
	assert.True(t, row.EmployeeTax.Equal(dec("750")), "tax = %s", row.EmployeeTax)
	assert.True(t, row.EmployeeBracketTax.Equal(dec("500")), "bracket = %s", row.EmployeeBracketTax)
}

func TestCalculateEmployee_ConsumedAdjustmentIDsPropagate(t *testing.T) {
	run := &PayrollRun{ID: uuid.New(), CompanyID: uuid.New(), Currency: "USD"}

	in := EmployeeInputs{
		EmployeeID: uuid.New(),
		Compensation: compensation.Inputs{
			Retro: []adjustments.RetroAdjustment{{
				ID:       uuid.New(),
				Amount:   dec("100"),
				Currency: "USD",
			}},
		},
	}

	result, err := calculateEmployee(run, testAggregator(), in)
	assert.NoError(t, err)
	assert.Len(t, result.ConsumedRetroIDs, 1)
	assert.Equal(t, in.Compensation.Retro[0].ID, result.ConsumedRetroIDs[0])
}

func TestFoldTotals(t *testing.T) {
	results := []EmployeeResult{
		{Row: EmployeePayroll{
			GrossPay:         dec("5000"),
			NetPay:           dec("4275"),
			EmployeeTax:      dec("475"),
			EmployerTax:      dec("500"),
			EmployeeSavings:  dec("250"),
			EmployerSavings:  dec("150"),
			EmployeeBenefits: decimal.Zero,
			EmployerBenefits: decimal.Zero,
			EmployerCost:     dec("5650"),
		}},
		{Row: EmployeePayroll{
			GrossPay:     dec("3000"),
			NetPay:       dec("2700"),
			EmployeeTax:  dec("300"),
			EmployerCost: dec("3000"),
		}},
	}

	totals := foldTotals(results)

	assert.Equal(t, 2, totals.employeeCount)
	assert.True(t, totals.gross.Equal(dec("8000")))
	assert.True(t, totals.net.Equal(dec("6975")))
	assert.True(t, totals.employeeTax.Equal(dec("775")))
	assert.True(t, totals.employerCost.Equal(dec("8650")))

	run := &PayrollRun{}
	totals.applyTo(run)
	assert.Equal(t, 2, run.EmployeeCount)
	assert.True(t, run.TotalGross.Equal(dec("8000")))
}

func TestFoldTotals_Empty(t *testing.T) {
	totals := foldTotals(nil)

	assert.Equal(t, 0, totals.employeeCount)
	assert.True(t, totals.gross.IsZero())
	assert.True(t, totals.net.IsZero())
}
