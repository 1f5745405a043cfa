package domain

import "errors"

var (
	// ErrValidation marks caller input that can never succeed as given.
	// It is wrapped with a detail message; match it with errors.Is.
	ErrValidation = errors.New("validation failed")

	// ErrPeriodNotFound is returned when a report is requested for a period
	// with no ledger entries.
	ErrPeriodNotFound = errors.New("settlement: period not found")

	// ErrIncompleteReport is returned when plate, start or end cannot be
	// detected in an uploaded tracker report.
	ErrIncompleteReport = errors.New("report: plate/start/end not detected")
)
