// Copyright (C) 2024 right-sizer contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package errors provides standardized error wrapping for the belief core.
// Every error constructed here is recorded for telemetry and logging only:
// per the core's contract, none of it is ever returned out of Ingest, Tick,
// Snapshot, or BuildEnvelope.
package errors

import (
	"errors"
	"fmt"
)

// Error categories for structured error handling.
const (
	CategoryAssociation   = "association"
	CategoryCapacity      = "capacity"
	CategoryEmission      = "emission"
	CategoryInvariant     = "invariant"
	CategoryConfiguration = "configuration"
	CategoryInternal      = "internal"
)

// CoreError represents a structured error with category and context.
type CoreError struct {
	Category string
	Op       string // Operation that failed
	Err      error  // Underlying error
	Message  string // Human-readable message
}

// Error implements the error interface.
func (e *CoreError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Category, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Category, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *CoreError) Unwrap() error {
	return e.Err
}

// Is implements error matching for errors.Is.
func (e *CoreError) Is(target error) bool {
	t, ok := target.(*CoreError)
	if !ok {
		return false
	}
	return e.Category == t.Category && (t.Op == "" || e.Op == t.Op)
}

// Wrap wraps an error with operation context and category.
func Wrap(err error, category, op, message string) error {
	if err == nil {
		return nil
	}
	return &CoreError{Category: category, Op: op, Err: err, Message: message}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, category, op, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &CoreError{Category: category, Op: op, Err: err, Message: fmt.Sprintf(format, args...)}
}

// New creates a new CoreError without wrapping an existing error.
func New(category, op, message string) error {
	return &CoreError{Category: category, Op: op, Err: errors.New(message), Message: message}
}

// Newf creates a new CoreError with a formatted message.
func Newf(category, op, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	return &CoreError{Category: category, Op: op, Err: errors.New(msg), Message: msg}
}

// IsCategory checks if an error belongs to a specific category.
func IsCategory(err error, category string) bool {
	var coreErr *CoreError
	if errors.As(err, &coreErr) {
		return coreErr.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or "" if not a CoreError.
func GetCategory(err error) string {
	var coreErr *CoreError
	if errors.As(err, &coreErr) {
		return coreErr.Category
	}
	return ""
}

// AssociationError wraps an error raised while associating evidence to a track.
func AssociationError(op string, err error) error {
	return Wrap(err, CategoryAssociation, op, "")
}

// CapacityError creates a CapacityExhausted error.
func CapacityError(op, message string) error {
	return New(CategoryCapacity, op, message)
}

// EmissionErrorf wraps an emission/envelope-building error with message.
func EmissionErrorf(op string, err error, format string, args ...interface{}) error {
	return Wrapf(err, CategoryEmission, op, format, args...)
}

// InvariantViolation creates an InvariantViolation error — the producer-side
// new_threat-without-track case. Never propagated; logged and counted only.
func InvariantViolation(op, message string) error {
	return New(CategoryInvariant, op, message)
}

// ConfigError creates a configuration error.
func ConfigError(op, message string) error {
	return New(CategoryConfiguration, op, message)
}

// ConfigErrorf creates a configuration error with formatting.
func ConfigErrorf(op, format string, args ...interface{}) error {
	return Newf(CategoryConfiguration, op, format, args...)
}
