package apperror

import (
	"errors"
	"net/http"
)

// HTTPError is the flattened form handlers hand to the response envelope.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Details interface{}
}

// ToHTTP maps any error to an HTTPError. Unknown errors collapse to a
// generic 500 so internals never leak to clients.
func ToHTTP(err error) HTTPError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		out := HTTPError{
			Status:  appErr.HTTPStatus,
			Code:    appErr.Code,
			Message: appErr.Message,
		}
		if out.Status == 0 {
			out.Status = http.StatusInternalServerError
		}
		return out
	}

	return HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    CodeInternalError,
		Message: "An unexpected error occurred",
	}
}
