package apperror

import "net/http"

var (
	ErrNotFound = New(
		CodeNotFound,
		"Resource not found",
		http.StatusNotFound,
	)

	ErrForbidden = New(
		CodeForbidden,
		"You do not have permission to access this resource",
		http.StatusForbidden,
	)

	ErrInternal = New(
		CodeInternalError,
		"An unexpected error occurred",
		http.StatusInternalServerError,
	)

	ErrUnauthorized = New(
		CodeUnauthorized,
		"Authentication is required",
		http.StatusUnauthorized,
	)

	ErrInvalidInput = New(
		CodeInvalidInput,
		"The provided input is invalid",
		http.StatusBadRequest,
	)
)

// RequiredField builds the validation error for a missing required field.
func RequiredField(field string) *AppError {
	return New(
		CodeInvalidInput,
		field+" is required",
		http.StatusBadRequest,
	)
}

// InvalidField builds the validation error for a field that failed a rule.
func InvalidField(field string) *AppError {
	return New(
		CodeInvalidInput,
		field+" is invalid",
		http.StatusBadRequest,
	)
}
