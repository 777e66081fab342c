package payrollrun

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	payrollrunerrors "github.com/daryls-hrplus/intellihrm-sub025/internal/payrollrun/errors"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/shared/apperror"
)

const pgUniqueViolation = "23505"

// mapRepositoryError translates storage errors into domain errors.
// notFound is returned for gorm.ErrRecordNotFound so each call site can
// name the resource that was missing; pass nil to fall through to a 500.
func mapRepositoryError(err error, notFound error) error {
	if err == nil {
		return nil
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		if notFound != nil {
			return notFound
		}
		return payrollrunerrors.ErrRunNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		switch {
		case strings.Contains(pgErr.ConstraintName, "idx_employee_payroll_run"):
			return payrollrunerrors.ErrDuplicateEmployeePayroll
		case strings.Contains(pgErr.ConstraintName, "idx_employee_lock"):
			return payrollrunerrors.ErrEmployeeLocked
		default:
			return apperror.Wrap(err, apperror.CodeConflict, "duplicate record", http.StatusConflict)
		}
	}

	return apperror.Wrap(err, apperror.CodeInternalError, "storage operation failed", http.StatusInternalServerError)
}

// mapLockError narrows lock-acquisition failures: any unique violation on
// the employee lock table means another run holds the employee.
func mapLockError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return payrollrunerrors.ErrEmployeeLocked
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return payrollrunerrors.ErrEmployeeLocked
	}
	return mapRepositoryError(err, nil)
}
