package repository

import "errors"

var (
	ErrInventoryNotFound = errors.New("seat inventory not found")

	ErrInvalidID = errors.New("invalid seat inventory ID format")

	ErrIncompleteSpan = errors.New("seat inventory missing for part of the requested span")
)
