package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrConflict       = errors.New("seat conflict")
	ErrInvalidState   = errors.New("invalid state transition")
	ErrValidation     = errors.New("validation failed")
)

// ConflictError reports the seat codes that are already claimed by another
// lock or booking on the same showtime.
type ConflictError struct {
	SeatCodes []string
}

func NewConflictError(codes []string) *ConflictError {
	return &ConflictError{SeatCodes: codes}
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("seat(s) %s are not available", strings.Join(e.SeatCodes, ", "))
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// StateError is returned when a record cannot move from its current status.
type StateError struct {
	Entity string
	Status string
	Reason string
}

func (e *StateError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s %s", e.Entity, e.Reason)
	}

	return fmt.Sprintf("%s is %s", e.Entity, e.Status)
}

func (e *StateError) Is(target error) bool {
	return target == ErrInvalidState
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NotFoundError names the missing record. It matches ErrRecordNotFound.
type NotFoundError struct {
	Entity string
	Keys   []string
}

func (e *NotFoundError) Error() string {
	if len(e.Keys) == 0 {
		return fmt.Sprintf("%s not found", e.Entity)
	}

	return fmt.Sprintf("%s not found: %s", e.Entity, strings.Join(e.Keys, ", "))
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrRecordNotFound
}
