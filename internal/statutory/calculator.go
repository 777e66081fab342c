package statutory

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Opening is the employee's year-to-date position before this
// calculation, fetched exactly once per employee per run. TaxPaid is the
// bracket-method tax withheld so far, not the sum of every statutory
// type: it is subtracted from the cumulative PAYE figure, and flat or
// percentage amounts in it would make the subtraction over-credit.
type Opening struct {
	TaxableIncome decimal.Decimal
	TaxPaid       decimal.Decimal
	GrossPay      decimal.Decimal
}

// Input feeds one employee's statutory calculation. PreTaxDeductions is a
// required, already-resolved figure from the benefits/savings step; making
// it part of the input type is what enforces that benefits and savings
// are computed before statutory deductions.
type Input struct {
	TaxableGross     decimal.Decimal
	GrossPay         decimal.Decimal
	PreTaxDeductions decimal.Decimal
	PeriodCount      int
	YTD              Opening
}

// TaxableIncome is the period income statutory types apply to: taxable
// gross less pre-tax deductions, floored at zero.
func (in Input) TaxableIncome() decimal.Decimal {
	taxable := in.TaxableGross.Sub(in.PreTaxDeductions)
	if taxable.IsNegative() {
		return decimal.Zero
	}
	return taxable
}

type Line struct {
	TypeID         uuid.UUID       `json:"type_id"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	Method         string          `json:"method"`
	EmployeeAmount decimal.Decimal `json:"employee_amount"`
	EmployerAmount decimal.Decimal `json:"employer_amount"`
}

// Result carries the itemized lines plus totals. BracketEmployee is the
// bracket-method portion of the employee total on its own: it is what the
// cumulative PAYE subtraction needs as next period's ytdTaxPaid, and
// mixing flat or percentage amounts into that figure would under-withhold.
type Result struct {
	Items           []Line
	TotalEmployee   decimal.Decimal
	TotalEmployer   decimal.Decimal
	BracketEmployee decimal.Decimal
}

const amountScale = 4

// Calculate runs every active deduction type against the input. Bracket
// types use the cumulative PAYE method: tax owed on (YTD + period) taxable
// income minus tax already withheld, which keeps withholding correct when
// period income fluctuates.
func Calculate(types []DeductionType, in Input) Result {
	result := Result{
		TotalEmployee:   decimal.Zero,
		TotalEmployer:   decimal.Zero,
		BracketEmployee: decimal.Zero,
	}

	taxable := in.TaxableIncome()

	for _, dt := range types {
		var line Line
		switch dt.Method {
		case MethodBracket:
			line = bracketLine(dt, taxable, in.YTD)
			result.BracketEmployee = result.BracketEmployee.Add(line.EmployeeAmount)
		case MethodFlat:
			line = flatLine(dt, in)
		case MethodPercentage:
			line = percentageLine(dt, taxable, in)
		default:
			continue
		}

		result.Items = append(result.Items, line)
		result.TotalEmployee = result.TotalEmployee.Add(line.EmployeeAmount)
		result.TotalEmployer = result.TotalEmployer.Add(line.EmployerAmount)
	}

	return result
}

// flatLine charges the fixed per-period amount until the wage-base
// ceiling is exhausted; after that the type stops applying for the year.
func flatLine(dt DeductionType, in Input) Line {
	employee := dt.EmployeeRate
	if wageBaseExhausted(in.YTD.TaxableIncome, dt.EmployeeWageBaseLimit) {
		employee = decimal.Zero
	}
	employer := dt.EmployerRate
	if wageBaseExhausted(in.YTD.GrossPay, dt.EmployerWageBaseLimit) {
		employer = decimal.Zero
	}

	return Line{
		TypeID:         dt.ID,
		Code:           dt.Code,
		Name:           dt.Name,
		Method:         dt.Method,
		EmployeeAmount: employee.Round(amountScale),
		EmployerAmount: employer.Round(amountScale),
	}
}

func bracketLine(dt DeductionType, periodTaxable decimal.Decimal, ytd Opening) Line {
	cumulative := ytd.TaxableIncome.Add(periodTaxable)
	owedToDate := TaxOnCumulative(dt.Bands, cumulative)

	periodTax := owedToDate.Sub(ytd.TaxPaid)
	if periodTax.IsNegative() {
		// Over-withheld earlier in the year; this engine does not issue
		// refunds inside a regular run.
		periodTax = decimal.Zero
	}

	return Line{
		TypeID:         dt.ID,
		Code:           dt.Code,
		Name:           dt.Name,
		Method:         dt.Method,
		EmployeeAmount: periodTax.Round(amountScale),
		EmployerAmount: decimal.Zero,
	}
}

// TaxOnCumulative walks the rate bands and returns the total tax owed on
// the given cumulative income.
func TaxOnCumulative(bands []RateBand, income decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, band := range bands {
		if income.LessThanOrEqual(band.LowerBound) {
			continue
		}
		upper := income
		if band.UpperBound != nil && band.UpperBound.LessThan(income) {
			upper = *band.UpperBound
		}
		portion := upper.Sub(band.LowerBound)
		if portion.IsPositive() {
			total = total.Add(portion.Mul(band.Rate))
		}
	}
	return total
}

func percentageLine(dt DeductionType, periodTaxable decimal.Decimal, in Input) Line {
	employeeBase := applyWageBase(periodTaxable, in.YTD.TaxableIncome, dt.EmployeeWageBaseLimit)
	employerBase := applyWageBase(in.GrossPay, in.YTD.GrossPay, dt.EmployerWageBaseLimit)

	return Line{
		TypeID:         dt.ID,
		Code:           dt.Code,
		Name:           dt.Name,
		Method:         dt.Method,
		EmployeeAmount: employeeBase.Mul(dt.EmployeeRate).Round(amountScale),
		EmployerAmount: employerBase.Mul(dt.EmployerRate).Round(amountScale),
	}
}

func wageBaseExhausted(ytdBase decimal.Decimal, limit *decimal.Decimal) bool {
	return limit != nil && ytdBase.GreaterThanOrEqual(*limit)
}

// applyWageBase caps the period base at whatever room remains under the
// wage-base ceiling given the YTD base already used.
func applyWageBase(periodBase, ytdBase decimal.Decimal, limit *decimal.Decimal) decimal.Decimal {
	if limit == nil {
		return periodBase
	}
	remaining := limit.Sub(ytdBase)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	if periodBase.GreaterThan(remaining) {
		return remaining
	}
	return periodBase
}
