package domain

import "errors"

var (
	// ErrResultNotFound is returned when no result exists for a date.
	ErrResultNotFound = errors.New("result not found")
	// ErrInvalidDate indicates a date that is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")
	// ErrWeekend is returned when saving a result for a Saturday or Sunday.
	ErrWeekend = errors.New("no quiz on weekends")
	// ErrFutureDate is returned when saving a result for a day that has not happened yet.
	ErrFutureDate = errors.New("date is in the future")
	// ErrInvalidScore indicates total <= 0 or a score outside 0..total.
	ErrInvalidScore = errors.New("score must be between 0 and total")
	// ErrMissingSource indicates a save without a quiz source.
	ErrMissingSource = errors.New("quiz source is required")
	// ErrUnauthenticated is returned when a request carries no valid session.
	ErrUnauthenticated = errors.New("not logged in")
	// ErrForbidden is returned when a non-admin tries an admin operation.
	ErrForbidden = errors.New("admin access required")
)
