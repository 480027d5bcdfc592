// Package httpx provides HTTP response utilities following RFC7807 problem details.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors shared by the domain layer. Services wrap these with
// fmt.Errorf("%w: ...") so handlers can translate without inspecting strings.
var (
	// ErrValidation marks missing or malformed request fields.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an unknown id or a dangling cross-reference.
	ErrNotFound = errors.New("resource not found")
	// ErrPrecondition marks a state-dependent business rule failure, such as
	// invoicing a work order that is not completed.
	ErrPrecondition = errors.New("precondition failed")
	// ErrDuplicate marks an attempt to create something that already exists.
	ErrDuplicate = errors.New("duplicate entry")
)

// RespondError maps domain errors to HTTP problem responses.
// Preconditions intentionally map to 400, not 412: they are caller mistakes
// in request ordering, not conditional-request failures.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrPrecondition):
		Problem(w, http.StatusBadRequest, "Precondition Failed", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
