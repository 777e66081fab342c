package events

import "time"

// Published after a run's batch persist commits. Downstream payslip, GL
// journal, and bank-file generators consume it; none of them run inside
// this service.
const PayrollRunCalculatedTopic = "hr.payroll.run.calculated.v1"

type PayrollRunCalculatedEvent struct {
	EventType     string    `json:"event_type"`
	RunID         string    `json:"run_id"`
	CompanyID     string    `json:"company_id"`
	PayPeriodID   string    `json:"pay_period_id"`
	Currency      string    `json:"currency"`
	EmployeeCount int       `json:"employee_count"`
	TotalGross    string    `json:"total_gross"`
	TotalNet      string    `json:"total_net"`
	CalculatedBy  string    `json:"calculated_by"`
	OccurredAt    time.Time `json:"occurred_at"`
}
