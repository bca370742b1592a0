package errors

import "errors"

var (
	ErrHoldNotFound = errors.New("reservation hold not found")

	ErrTicketNotFound = errors.New("ticket not found")

	ErrInvalidID = errors.New("invalid ID format")

	ErrSeatUnavailable = errors.New("seat is not available for the requested span")

	ErrJourneyDeparted = errors.New("journey has already departed")
)
