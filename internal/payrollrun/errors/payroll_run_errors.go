package payrollrunerrors

import (
	"net/http"

	"github.com/daryls-hrplus/intellihrm-sub025/internal/shared/apperror"
)

var (
	ErrInvalidCompanyID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid company id",
		http.StatusBadRequest,
	)
	ErrInvalidActorID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid actor id",
		http.StatusBadRequest,
	)
	ErrInvalidPayPeriodID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid pay period id",
		http.StatusBadRequest,
	)
	ErrInvalidPayGroupID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid pay group id",
		http.StatusBadRequest,
	)
	ErrRunNotFound = apperror.New(
		apperror.CodeNotFound,
		"payroll run not found",
		http.StatusNotFound,
	)
	ErrPayPeriodNotFound = apperror.New(
		apperror.CodeNotFound,
		"pay period not found",
		http.StatusNotFound,
	)
	ErrInvalidStatusTransition = apperror.New(
		apperror.CodeInvalidState,
		"invalid payroll run status transition",
		http.StatusBadRequest,
	)
	ErrRunAlreadyCalculating = apperror.New(
		apperror.CodeConflict,
		"payroll run is already calculating",
		http.StatusConflict,
	)
	ErrRecalcRequiresApproval = apperror.New(
		apperror.CodeInvalidState,
		"recalculating an approved run requires a recorded recalculation approval",
		http.StatusConflict,
	)
	ErrRunPaid = apperror.New(
		apperror.CodeInvalidState,
		"a paid payroll run can no longer be modified",
		http.StatusBadRequest,
	)
	ErrEmployeeLocked = apperror.New(
		apperror.CodeConflict,
		"one or more employees are locked by another payroll run",
		http.StatusConflict,
	)
	ErrDuplicateEmployeePayroll = apperror.New(
		apperror.CodeConflict,
		"employee payroll row already exists for this run",
		http.StatusConflict,
	)
	ErrApproveOnlyCalculated = apperror.New(
		apperror.CodeInvalidState,
		"payroll run can only be approved while status is CALCULATED",
		http.StatusBadRequest,
	)
	ErrMarkPaidOnlyApproved = apperror.New(
		apperror.CodeInvalidState,
		"payroll run can only be marked paid while status is APPROVED",
		http.StatusBadRequest,
	)
	ErrDeleteOnlyDraft = apperror.New(
		apperror.CodeInvalidState,
		"payroll run can only be deleted while status is DRAFT",
		http.StatusBadRequest,
	)
	ErrRatesOnlyDraft = apperror.New(
		apperror.CodeInvalidState,
		"exchange rates can only be loaded while status is DRAFT",
		http.StatusBadRequest,
	)
	ErrInvalidExchangeRate = apperror.New(
		apperror.CodeInvalidInput,
		"exchange rate must be positive and between two distinct currencies",
		http.StatusBadRequest,
	)
)
