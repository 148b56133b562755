package models

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError reports missing or malformed input.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(msg string, flds ...FieldError) error {
	return &ValidationError{Err: errors.New(msg), Fields: flds}
}

func (e *ValidationError) Error() string {
	if e.Err == nil {
		return "validation failed"
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NonInstructionalDayError rejects capture on a weekend day or a holiday.
type NonInstructionalDayError struct {
	Date   time.Time
	Reason string
}

func (e *NonInstructionalDayError) Error() string {
	return fmt.Sprintf("%s is not an instructional day: %s", e.Date.Format(DateLayout), e.Reason)
}

// SlotAlreadyFinalizedError is returned when a slot already has a submitted record.
type SlotAlreadyFinalizedError struct {
	Key SlotKey
}

func (e *SlotAlreadyFinalizedError) Error() string {
	return fmt.Sprintf("period %d for %s year %d on %s already submitted",
		e.Key.Period, e.Key.Department, e.Key.Year, e.Key.Date.Format(DateLayout))
}

type EmptyRosterError struct {
	Department string
	Year       int
}

func (e *EmptyRosterError) Error() string {
	return fmt.Sprintf("no students found for %s year %d", e.Department, e.Year)
}

type InvalidRangeError struct {
	From time.Time
	To   time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("from date %s is after to date %s", e.From.Format(DateLayout), e.To.Format(DateLayout))
}
