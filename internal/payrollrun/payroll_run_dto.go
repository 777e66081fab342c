package payrollrun

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateRunRequest struct {
	PayPeriodID string  `json:"pay_period_id" binding:"required,uuid"`
	PayGroupID  *string `json:"pay_group_id" binding:"omitempty,uuid"`
	Currency    string  `json:"currency" binding:"omitempty,len=3"`
}

type ExchangeRateRequest struct {
	FromCurrency string          `json:"from_currency" binding:"required,len=3"`
	ToCurrency   string          `json:"to_currency" binding:"required,len=3"`
	Rate         decimal.Decimal `json:"rate" binding:"required"`
}

type SetExchangeRatesRequest struct {
	Rates []ExchangeRateRequest `json:"rates" binding:"required,min=1,dive"`
}

type ExchangeRateResponse struct {
	FromCurrency string `json:"from_currency"`
	ToCurrency   string `json:"to_currency"`
	Rate         string `json:"rate"`
}

type RunResponse struct {
	ID          string  `json:"id"`
	CompanyID   string  `json:"company_id"`
	PayPeriodID string  `json:"pay_period_id"`
	PayGroupID  *string `json:"pay_group_id,omitempty"`
	RunNumber   int64   `json:"run_number"`
	Currency    string  `json:"currency"`
	Status      string  `json:"status"`

	EmployeeCount         int    `json:"employee_count"`
	TotalGross            string `json:"total_gross"`
	TotalNet              string `json:"total_net"`
	TotalEmployeeTax      string `json:"total_employee_tax"`
	TotalEmployerTax      string `json:"total_employer_tax"`
	TotalEmployeeBenefits string `json:"total_employee_benefits"`
	TotalEmployerBenefits string `json:"total_employer_benefits"`
	TotalEmployeeSavings  string `json:"total_employee_savings"`
	TotalEmployerSavings  string `json:"total_employer_savings"`
	TotalEmployerCost     string `json:"total_employer_cost"`

	FailureReason *string `json:"failure_reason,omitempty"`
	CreatedBy     string  `json:"created_by"`
	ApprovedBy    *string `json:"approved_by,omitempty"`
	ApprovedAt    *string `json:"approved_at,omitempty"`
	PaidAt        *string `json:"paid_at,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

type EmployeePayrollResponse struct {
	ID         string `json:"id"`
	RunID      string `json:"run_id"`
	EmployeeID string `json:"employee_id"`

	GrossPay           string `json:"gross_pay"`
	RegularPay         string `json:"regular_pay"`
	TaxableIncome      string `json:"taxable_income"`
	PreTaxDeductions   string `json:"pre_tax_deductions"`
	EmployeeTax        string `json:"employee_tax"`
	EmployeeBracketTax string `json:"employee_bracket_tax"`
	EmployerTax        string `json:"employer_tax"`
	EmployeeBenefits   string `json:"employee_benefits"`
	EmployerBenefits   string `json:"employer_benefits"`
	EmployeeSavings    string `json:"employee_savings"`
	EmployerSavings    string `json:"employer_savings"`
	TotalDeductions    string `json:"total_deductions"`
	NetPay             string `json:"net_pay"`
	EmployerCost       string `json:"employer_cost"`

	Details CalculationDetails `json:"calculation_details"`
}

func mapToRunResponse(run PayrollRun) RunResponse {
	resp := RunResponse{
		ID:          run.ID.String(),
		CompanyID:   run.CompanyID.String(),
		PayPeriodID: run.PayPeriodID.String(),
		RunNumber:   run.RunNumber,
		Currency:    run.Currency,
		Status:      run.Status,

		EmployeeCount:         run.EmployeeCount,
		TotalGross:            run.TotalGross.String(),
		TotalNet:              run.TotalNet.String(),
		TotalEmployeeTax:      run.TotalEmployeeTax.String(),
		TotalEmployerTax:      run.TotalEmployerTax.String(),
		TotalEmployeeBenefits: run.TotalEmployeeBenefits.String(),
		TotalEmployerBenefits: run.TotalEmployerBenefits.String(),
		TotalEmployeeSavings:  run.TotalEmployeeSavings.String(),
		TotalEmployerSavings:  run.TotalEmployerSavings.String(),
		TotalEmployerCost:     run.TotalEmployerCost.String(),

		FailureReason: run.FailureReason,
		CreatedBy:     run.CreatedBy.String(),
		CreatedAt:     run.CreatedAt.Format(time.RFC3339),
	}

	if run.PayGroupID != nil {
		v := run.PayGroupID.String()
		resp.PayGroupID = &v
	}
	if run.ApprovedBy != nil {
		v := run.ApprovedBy.String()
		resp.ApprovedBy = &v
	}
	if run.ApprovedAt != nil {
		v := run.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &v
	}
	if run.PaidAt != nil {
		v := run.PaidAt.Format(time.RFC3339)
		resp.PaidAt = &v
	}

	return resp
}

func mapToRunListResponse(runs []PayrollRun) []RunResponse {
	resp := make([]RunResponse, len(runs))
	for i, run := range runs {
		resp[i] = mapToRunResponse(run)
	}
	return resp
}

func mapToEmployeePayrollResponse(row EmployeePayroll) EmployeePayrollResponse {
	return EmployeePayrollResponse{
		ID:         row.ID.String(),
		RunID:      row.RunID.String(),
		EmployeeID: row.EmployeeID.String(),

		GrossPay:           row.GrossPay.String(),
		RegularPay:         row.RegularPay.String(),
		TaxableIncome:      row.TaxableIncome.String(),
		PreTaxDeductions:   row.PreTaxDeductions.String(),
		EmployeeTax:        row.EmployeeTax.String(),
		EmployeeBracketTax: row.EmployeeBracketTax.String(),
		EmployerTax:        row.EmployerTax.String(),
		EmployeeBenefits:   row.EmployeeBenefits.String(),
		EmployerBenefits:   row.EmployerBenefits.String(),
		EmployeeSavings:    row.EmployeeSavings.String(),
		EmployerSavings:    row.EmployerSavings.String(),
		TotalDeductions:    row.TotalDeductions.String(),
		NetPay:             row.NetPay.String(),
		EmployerCost:       row.EmployerCost.String(),

		Details: row.Details,
	}
}

func mapToEmployeePayrollListResponse(rows []EmployeePayroll) []EmployeePayrollResponse {
	resp := make([]EmployeePayrollResponse, len(rows))
	for i, row := range rows {
		resp[i] = mapToEmployeePayrollResponse(row)
	}
	return resp
}
