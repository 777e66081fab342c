package compensation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/daryls-hrplus/intellihrm-sub025/internal/adjustments"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/currency"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/proration"
)

const (
	EarningSourceOverride = "OVERRIDE"
	EarningSourcePosition = "POSITION"
)

// EarningLine is one prorated, currency-normalized earning component as it
// will appear in the persisted calculation details.
type EarningLine struct {
	SourceID        string           `json:"source_id"`
	Source          string           `json:"source"`
	Name            string           `json:"name"`
	Kind            string           `json:"kind"`
	Currency        string           `json:"currency"`
	BaseAmount      decimal.Decimal  `json:"base_amount"`
	ProrationFactor decimal.Decimal  `json:"proration_factor"`
	Prorated        bool             `json:"prorated"`
	ExchangeRate    *decimal.Decimal `json:"exchange_rate,omitempty"`
	Converted       bool             `json:"converted"`
	Amount          decimal.Decimal  `json:"amount"`
}

type AllowanceLine struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Currency     string           `json:"currency"`
	Taxable      bool             `json:"taxable"`
	ExchangeRate *decimal.Decimal `json:"exchange_rate,omitempty"`
	Converted    bool             `json:"converted"`
	Amount       decimal.Decimal  `json:"amount"`
}

type RetroLine struct {
	ID           string           `json:"id"`
	Description  string           `json:"description"`
	Currency     string           `json:"currency"`
	ExchangeRate *decimal.Decimal `json:"exchange_rate,omitempty"`
	Converted    bool             `json:"converted"`
	Amount       decimal.Decimal  `json:"amount"`
}

type ReimbursementLine struct {
	ID           string           `json:"id"`
	Description  string           `json:"description"`
	Currency     string           `json:"currency"`
	ExchangeRate *decimal.Decimal `json:"exchange_rate,omitempty"`
	Converted    bool             `json:"converted"`
	Amount       decimal.Decimal  `json:"amount"`
}

// Aggregator resolves every earning source for one employee into period
// amounts in the run's local currency. It is pure once its inputs have
// been fetched; all data access happens before Aggregate is called.
type Aggregator struct {
	rates        currency.RateTable
	runFrequency PayFrequency
	periodStart  time.Time
	periodEnd    time.Time
}

func NewAggregator(rates currency.RateTable, runFrequency PayFrequency, periodStart, periodEnd time.Time) *Aggregator {
	return &Aggregator{
		rates:        rates,
		runFrequency: runFrequency,
		periodStart:  periodStart,
		periodEnd:    periodEnd,
	}
}

type Inputs struct {
	Overrides      []CompensationItem
	Positions      []PositionAssignment
	Allowances     []PeriodAllowance
	Retro          []adjustments.RetroAdjustment
	Reimbursements []adjustments.ExpenseReimbursement
}

type Aggregation struct {
	GrossPay   decimal.Decimal
	RegularPay decimal.Decimal
	// TaxableGross excludes reimbursements and non-taxable allowances but
	// not yet pre-tax benefit/savings deductions.
	TaxableGross decimal.Decimal

	Earnings       []EarningLine
	Allowances     []AllowanceLine
	Retro          []RetroLine
	Reimbursements []ReimbursementLine

	ConsumedRetroIDs         []uuid.UUID
	ConsumedReimbursementIDs []uuid.UUID

	// Warnings carries data-quality flags (missing exchange rates) that
	// must reach the persisted breakdown for audit review.
	Warnings []string
}

func (a *Aggregator) Aggregate(in Inputs) (Aggregation, error) {
	var agg Aggregation
	agg.GrossPay = decimal.Zero
	agg.RegularPay = decimal.Zero
	agg.TaxableGross = decimal.Zero

	items := a.resolveItems(in)
	for _, item := range items {
		line, include, err := a.computeEarning(item)
		if err != nil {
			return Aggregation{}, err
		}
		if !include {
			continue
		}
		if !line.Converted && line.Currency != a.rates.LocalCurrency() {
			agg.Warnings = append(agg.Warnings, missingRateWarning(line.Currency, "earning", line.Name))
		}
		agg.Earnings = append(agg.Earnings, line)
		agg.GrossPay = agg.GrossPay.Add(line.Amount)
		agg.TaxableGross = agg.TaxableGross.Add(line.Amount)
		if line.Kind == ItemKindBaseSalary {
			agg.RegularPay = agg.RegularPay.Add(line.Amount)
		}
	}

	for _, allowance := range in.Allowances {
		conv := a.rates.ToLocal(allowance.Amount, allowance.Currency)
		if conv.RateMissing {
			agg.Warnings = append(agg.Warnings, missingRateWarning(allowance.Currency, "allowance", allowance.Name))
		}
		agg.Allowances = append(agg.Allowances, AllowanceLine{
			ID:           allowance.ID.String(),
			Name:         allowance.Name,
			Currency:     allowance.Currency,
			Taxable:      allowance.Taxable,
			ExchangeRate: conv.ExchangeRateUsed,
			Converted:    conv.WasConverted,
			Amount:       conv.LocalAmount,
		})
		agg.GrossPay = agg.GrossPay.Add(conv.LocalAmount)
		if allowance.Taxable {
			agg.TaxableGross = agg.TaxableGross.Add(conv.LocalAmount)
		}
	}

	for _, retro := range in.Retro {
		conv := a.rates.ToLocal(retro.Amount, retro.Currency)
		if conv.RateMissing {
			agg.Warnings = append(agg.Warnings, missingRateWarning(retro.Currency, "retro adjustment", retro.Description))
		}
		agg.Retro = append(agg.Retro, RetroLine{
			ID:           retro.ID.String(),
			Description:  retro.Description,
			Currency:     retro.Currency,
			ExchangeRate: conv.ExchangeRateUsed,
			Converted:    conv.WasConverted,
			Amount:       conv.LocalAmount,
		})
		agg.GrossPay = agg.GrossPay.Add(conv.LocalAmount)
		agg.TaxableGross = agg.TaxableGross.Add(conv.LocalAmount)
		agg.ConsumedRetroIDs = append(agg.ConsumedRetroIDs, retro.ID)
	}

	for _, claim := range in.Reimbursements {
		conv := a.rates.ToLocal(claim.Amount, claim.Currency)
		if conv.RateMissing {
			agg.Warnings = append(agg.Warnings, missingRateWarning(claim.Currency, "reimbursement", claim.Description))
		}
		agg.Reimbursements = append(agg.Reimbursements, ReimbursementLine{
			ID:           claim.ID.String(),
			Description:  claim.Description,
			Currency:     claim.Currency,
			ExchangeRate: conv.ExchangeRateUsed,
			Converted:    conv.WasConverted,
			Amount:       conv.LocalAmount,
		})
		// Reimbursements count toward gross and net but never toward
		// taxable income.
		agg.GrossPay = agg.GrossPay.Add(conv.LocalAmount)
		agg.ConsumedReimbursementIDs = append(agg.ConsumedReimbursementIDs, claim.ID)
	}

	return agg, nil
}

type resolvedItem struct {
	CompensationItem
	Source string
}

// resolveItems applies the override-exclusive rule: any explicit
// compensation items replace position-derived base salary entirely.
func (a *Aggregator) resolveItems(in Inputs) []resolvedItem {
	if len(in.Overrides) > 0 {
		items := make([]resolvedItem, 0, len(in.Overrides))
		for _, item := range in.Overrides {
			items = append(items, resolvedItem{CompensationItem: item, Source: EarningSourceOverride})
		}
		return items
	}

	items := make([]resolvedItem, 0, len(in.Positions))
	for _, pos := range in.Positions {
		items = append(items, resolvedItem{Source: EarningSourcePosition, CompensationItem: CompensationItem{
			ID:              pos.ID,
			CompanyID:       pos.CompanyID,
			EmployeeID:      pos.EmployeeID,
			Name:            pos.PositionName + " base salary",
			Kind:            ItemKindBaseSalary,
			Amount:          pos.BaseSalary,
			Currency:        pos.Currency,
			Frequency:       pos.Frequency,
			ProrationMethod: proration.MethodCalendarDays,
			EffectiveStart:  pos.StartDate,
			EffectiveEnd:    pos.EndDate,
		}})
	}
	return items
}

func (a *Aggregator) computeEarning(item resolvedItem) (EarningLine, bool, error) {
	base, err := NormalizePeriodAmount(item.Amount, item.Frequency, a.runFrequency)
	if err != nil {
		return EarningLine{}, false, fmt.Errorf("compensation item %s: %w", item.ID, err)
	}

	prorated := proration.Compute(a.periodStart, a.periodEnd, proration.Window{
		Start: item.EffectiveStart,
		End:   item.EffectiveEnd,
	}, item.ProrationMethod)

	if prorated.Factor.IsZero() {
		// No overlap with the period: the item simply does not apply.
		return EarningLine{}, false, nil
	}

	applied := base.Mul(prorated.Factor)
	conv := a.rates.ToLocal(applied, item.Currency)

	line := EarningLine{
		SourceID:        item.ID.String(),
		Source:          item.Source,
		Name:            item.Name,
		Kind:            item.Kind,
		Currency:        item.Currency,
		BaseAmount:      base,
		ProrationFactor: prorated.Factor,
		Prorated:        prorated.IsProrated,
		ExchangeRate:    conv.ExchangeRateUsed,
		Converted:       conv.WasConverted,
		Amount:          conv.LocalAmount,
	}
	return line, true, nil
}

func missingRateWarning(currencyCode, source, name string) string {
	return fmt.Sprintf("no exchange rate in run snapshot for %s; %s %q passed through unconverted", currencyCode, source, name)
}
