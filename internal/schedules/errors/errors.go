package errors

import "errors"

var (
	ErrTemplateNotFound = errors.New("schedule template not found")

	ErrTrainNotFound = errors.New("train not found")

	ErrJourneyNotFound = errors.New("journey not found")

	ErrSegmentNotFound = errors.New("segment not found")

	ErrInvalidID = errors.New("invalid ID format")

	ErrJourneyExists = errors.New("journey already materialized for this template and date")
)
