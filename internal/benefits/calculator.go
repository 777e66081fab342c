package benefits

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BenefitLine struct {
	EnrollmentID   string          `json:"enrollment_id"`
	PlanID         string          `json:"plan_id"`
	PlanName       string          `json:"plan_name"`
	ComponentCode  string          `json:"component_code"`
	EmployeeAmount decimal.Decimal `json:"employee_amount"`
	EmployerAmount decimal.Decimal `json:"employer_amount"`
}

type SavingsLine struct {
	EnrollmentID   string          `json:"enrollment_id"`
	ProgramID      string          `json:"program_id"`
	ProgramName    string          `json:"program_name"`
	ComponentCode  string          `json:"component_code"`
	PreTax         bool            `json:"pre_tax"`
	EmployeeAmount decimal.Decimal `json:"employee_amount"`
	EmployerAmount decimal.Decimal `json:"employer_amount"`
}

type Result struct {
	Benefits []BenefitLine
	Savings  []SavingsLine

	EmployeeBenefits decimal.Decimal
	EmployerBenefits decimal.Decimal
	EmployeeSavings  decimal.Decimal
	EmployerSavings  decimal.Decimal

	// PreTaxDeductions is the employee-side total of pre-tax savings
	// contributions. The statutory calculator requires it as input, so
	// this result must exist before any tax is computed.
	PreTaxDeductions decimal.Decimal
}

const amountScale = 4

// Calculate computes employee and employer contributions for every active
// enrollment that has an active payroll mapping. Enrollments whose plan is
// not mapped are skipped by design, not reported as errors.
func Calculate(
	grossPay decimal.Decimal,
	benefitEnrollments []BenefitEnrollment,
	savingsEnrollments []SavingsEnrollment,
	mappings []PayrollMapping,
) Result {
	result := Result{
		EmployeeBenefits: decimal.Zero,
		EmployerBenefits: decimal.Zero,
		EmployeeSavings:  decimal.Zero,
		EmployerSavings:  decimal.Zero,
		PreTaxDeductions: decimal.Zero,
	}

	mapped := indexMappings(mappings)

	for _, enrollment := range benefitEnrollments {
		if enrollment.Plan == nil {
			continue
		}
		mapping, ok := mapped[mappingKey{planID: enrollment.PlanID, kind: PlanKindBenefit}]
		if !ok {
			continue
		}

		rule := resolveRule(enrollment.Override, enrollment.Plan.Default)
		employee, employer := applyRule(rule, grossPay)

		result.Benefits = append(result.Benefits, BenefitLine{
			EnrollmentID:   enrollment.ID.String(),
			PlanID:         enrollment.PlanID.String(),
			PlanName:       enrollment.Plan.Name,
			ComponentCode:  mapping.ComponentCode,
			EmployeeAmount: employee,
			EmployerAmount: employer,
		})
		result.EmployeeBenefits = result.EmployeeBenefits.Add(employee)
		result.EmployerBenefits = result.EmployerBenefits.Add(employer)
	}

	for _, enrollment := range savingsEnrollments {
		if enrollment.Program == nil {
			continue
		}
		mapping, ok := mapped[mappingKey{planID: enrollment.ProgramID, kind: PlanKindSavings}]
		if !ok {
			continue
		}

		rule := resolveRule(enrollment.Override, enrollment.Program.Default)
		employee, employer := applyRule(rule, grossPay)

		result.Savings = append(result.Savings, SavingsLine{
			EnrollmentID:   enrollment.ID.String(),
			ProgramID:      enrollment.ProgramID.String(),
			ProgramName:    enrollment.Program.Name,
			ComponentCode:  mapping.ComponentCode,
			PreTax:         enrollment.Program.PreTax,
			EmployeeAmount: employee,
			EmployerAmount: employer,
		})
		result.EmployeeSavings = result.EmployeeSavings.Add(employee)
		result.EmployerSavings = result.EmployerSavings.Add(employer)
		if enrollment.Program.PreTax {
			result.PreTaxDeductions = result.PreTaxDeductions.Add(employee)
		}
	}

	return result
}

type mappingKey struct {
	planID uuid.UUID
	kind   string
}

func indexMappings(mappings []PayrollMapping) map[mappingKey]PayrollMapping {
	index := make(map[mappingKey]PayrollMapping, len(mappings))
	for _, m := range mappings {
		index[mappingKey{planID: m.PlanID, kind: m.PlanKind}] = m
	}
	return index
}

// resolveRule prefers the enrollment-level override over the plan default.
func resolveRule(override, planDefault ContributionRule) ContributionRule {
	if override.isSet() {
		return override
	}
	return planDefault
}

func applyRule(rule ContributionRule, grossPay decimal.Decimal) (employee, employer decimal.Decimal) {
	employee = decimal.Zero
	employer = decimal.Zero

	switch {
	case rule.EmployeeAmount != nil:
		employee = rule.EmployeeAmount.Round(amountScale)
	case rule.EmployeePercent != nil:
		employee = grossPay.Mul(*rule.EmployeePercent).Round(amountScale)
	}

	switch {
	case rule.EmployerAmount != nil:
		employer = rule.EmployerAmount.Round(amountScale)
	case rule.EmployerPercent != nil:
		employer = grossPay.Mul(*rule.EmployerPercent).Round(amountScale)
	}

	return employee, employer
}
