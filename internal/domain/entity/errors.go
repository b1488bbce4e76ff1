package entity

import "errors"

var (
	// ErrNotFound is returned when an expense, rule or approval request does not exist
	// or does not belong to the caller
	ErrNotFound = errors.New("not found")

	// ErrAlreadyProcessed is returned when a decision targets a request that is no longer pending
	ErrAlreadyProcessed = errors.New("approval request already processed")

	// ErrNoApproverConfigured is returned when submission cannot resolve any approver
	ErrNoApproverConfigured = errors.New("no approver configured")

	// ErrPermissionDenied is returned when the caller may not perform the operation
	ErrPermissionDenied = errors.New("permission denied")

	ErrInvalidRule         = errors.New("invalid approval rule")
	ErrInvalidDecision     = errors.New("invalid decision")
	ErrInvalidExpenseState = errors.New("invalid expense state")
	ErrInvalidInput        = errors.New("invalid input")
)
