package payrollrun

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/daryls-hrplus/intellihrm-sub025/internal/benefits"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/compensation"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/statutory"
)

// EmployeeInputs bundles everything one employee's calculation needs.
// All data access happens while building it; the pipeline itself is pure.
type EmployeeInputs struct {
	EmployeeID         uuid.UUID
	Compensation       compensation.Inputs
	BenefitEnrollments []benefits.BenefitEnrollment
	SavingsEnrollments []benefits.SavingsEnrollment
	Mappings           []benefits.PayrollMapping
	DeductionTypes     []statutory.DeductionType
	YTD                statutory.Opening
	PeriodCount        int
}

type EmployeeResult struct {
	Row                      EmployeePayroll
	ConsumedRetroIDs         []uuid.UUID
	ConsumedReimbursementIDs []uuid.UUID
}

// calculateEmployee runs the fixed pipeline for one employee: aggregate
// earnings, then benefits and savings, then statutory deductions. The
// statutory input's PreTaxDeductions field comes straight from the
// benefits result, which is why the order cannot be inverted.
func calculateEmployee(run *PayrollRun, agg *compensation.Aggregator, in EmployeeInputs) (EmployeeResult, error) {
	earnings, err := agg.Aggregate(in.Compensation)
	if err != nil {
		return EmployeeResult{}, err
	}

	contrib := benefits.Calculate(earnings.GrossPay, in.BenefitEnrollments, in.SavingsEnrollments, in.Mappings)

	statutoryInput := statutory.Input{
		TaxableGross:     earnings.TaxableGross,
		GrossPay:         earnings.GrossPay,
		PreTaxDeductions: contrib.PreTaxDeductions,
		PeriodCount:      in.PeriodCount,
		YTD:              in.YTD,
	}
	taxes := statutory.Calculate(in.DeductionTypes, statutoryInput)

	totalDeductions := taxes.TotalEmployee.
		Add(contrib.EmployeeBenefits).
		Add(contrib.EmployeeSavings)
	netPay := earnings.GrossPay.Sub(totalDeductions)
	employerCost := earnings.GrossPay.
		Add(taxes.TotalEmployer).
		Add(contrib.EmployerBenefits).
		Add(contrib.EmployerSavings)

	row := EmployeePayroll{
		ID:         uuid.New(),
		CompanyID:  run.CompanyID,
		RunID:      run.ID,
		EmployeeID: in.EmployeeID,

		GrossPay:           earnings.GrossPay,
		RegularPay:         earnings.RegularPay,
		TaxableIncome:      statutoryInput.TaxableIncome(),
		PreTaxDeductions:   contrib.PreTaxDeductions,
		EmployeeTax:        taxes.TotalEmployee,
		EmployeeBracketTax: taxes.BracketEmployee,
		EmployerTax:        taxes.TotalEmployer,
		EmployeeBenefits:   contrib.EmployeeBenefits,
		EmployerBenefits:   contrib.EmployerBenefits,
		EmployeeSavings:    contrib.EmployeeSavings,
		EmployerSavings:    contrib.EmployerSavings,
		TotalDeductions:    totalDeductions,
		NetPay:             netPay,
		EmployerCost:       employerCost,

		Details: CalculationDetails{
			Earnings:       earnings.Earnings,
			Allowances:     earnings.Allowances,
			Retro:          earnings.Retro,
			Reimbursements: earnings.Reimbursements,
			Statutory:      taxes.Items,
			Benefits:       contrib.Benefits,
			Savings:        contrib.Savings,
			Warnings:       earnings.Warnings,
		},
	}

	return EmployeeResult{
		Row:                      row,
		ConsumedRetroIDs:         earnings.ConsumedRetroIDs,
		ConsumedReimbursementIDs: earnings.ConsumedReimbursementIDs,
	}, nil
}

type runTotals struct {
	employeeCount    int
	gross            decimal.Decimal
	net              decimal.Decimal
	employeeTax      decimal.Decimal
	employerTax      decimal.Decimal
	employeeBenefits decimal.Decimal
	employerBenefits decimal.Decimal
	employeeSavings  decimal.Decimal
	employerSavings  decimal.Decimal
	employerCost     decimal.Decimal
}

// foldTotals reduces the per-employee results into run aggregates. The
// batch loop stays free of shared mutable accumulators; totals exist only
// as this fold over the finished result list.
func foldTotals(results []EmployeeResult) runTotals {
	totals := runTotals{
		gross:            decimal.Zero,
		net:              decimal.Zero,
		employeeTax:      decimal.Zero,
		employerTax:      decimal.Zero,
		employeeBenefits: decimal.Zero,
		employerBenefits: decimal.Zero,
		employeeSavings:  decimal.Zero,
		employerSavings:  decimal.Zero,
		employerCost:     decimal.Zero,
	}
	for _, result := range results {
		row := result.Row
		totals.employeeCount++
		totals.gross = totals.gross.Add(row.GrossPay)
		totals.net = totals.net.Add(row.NetPay)
		totals.employeeTax = totals.employeeTax.Add(row.EmployeeTax)
		totals.employerTax = totals.employerTax.Add(row.EmployerTax)
		totals.employeeBenefits = totals.employeeBenefits.Add(row.EmployeeBenefits)
		totals.employerBenefits = totals.employerBenefits.Add(row.EmployerBenefits)
		totals.employeeSavings = totals.employeeSavings.Add(row.EmployeeSavings)
		totals.employerSavings = totals.employerSavings.Add(row.EmployerSavings)
		totals.employerCost = totals.employerCost.Add(row.EmployerCost)
	}
	return totals
}

func (t runTotals) applyTo(run *PayrollRun) {
	run.EmployeeCount = t.employeeCount
	run.TotalGross = t.gross
	run.TotalNet = t.net
	run.TotalEmployeeTax = t.employeeTax
	run.TotalEmployerTax = t.employerTax
	run.TotalEmployeeBenefits = t.employeeBenefits
	run.TotalEmployerBenefits = t.employerBenefits
	run.TotalEmployeeSavings = t.employeeSavings
	run.TotalEmployerSavings = t.employerSavings
	run.TotalEmployerCost = t.employerCost
}
