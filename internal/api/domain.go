package api

import "errors"

// Sentinel errors shared by every service. Repositories translate
// store failures into these; handlers map them onto HTTP statuses.
var (
	ErrBadRequest      = errors.New("invalid input")
	ErrNotFound        = errors.New("requested item not found")
	ErrConflict        = errors.New("item already exists or conflict")
	ErrUnauthenticated = errors.New("authentication required or invalid credentials")
	ErrForbidden       = errors.New("action forbidden")
)

// StatusForError maps a service error chain to an HTTP status code.
// Anything unrecognized is a 500.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, ErrBadRequest):
		return 400
	case errors.Is(err, ErrUnauthenticated):
		return 401
	case errors.Is(err, ErrForbidden):
		return 403
	case errors.Is(err, ErrNotFound):
		return 404
	case errors.Is(err, ErrConflict):
		return 409
	default:
		return 500
	}
}
