package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrInvalidStatus     = errors.New("invalid status")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("not authorized")
	ErrMalformedGeometry = errors.New("malformed geometry")
	ErrConflict          = errors.New("mission was modified concurrently")
	ErrNotEditable       = errors.New("mission cannot be modified in its current status")
	ErrInvalidInput      = errors.New("invalid input")
)

// StatusError повертається для статусу поза переліком
type StatusError struct {
	Value string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("invalid status %q", e.Value)
}

func (e *StatusError) Unwrap() error { return ErrInvalidStatus }

// TransitionError повертається, коли граф статусів не має ребра From -> To
type TransitionError struct {
	MissionID uuid.UUID
	From      MissionStatus
	To        MissionStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrIllegalTransition }

// NotFoundError називає відсутню сутність
type NotFoundError struct {
	Entity string
	ID     uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ForbiddenError повертається, коли сутність належить іншому користувачу
type ForbiddenError struct {
	Entity string
	ID     uuid.UUID
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("not authorized to access %s %s", e.Entity, e.ID)
}

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

// GeometryError описує некоректну область зйомки або маршрут
type GeometryError struct {
	Field  string
	Reason string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *GeometryError) Unwrap() error { return ErrMalformedGeometry }

// ConflictError повертається, коли compare-and-swap оновлення застає місію
// вже не в очікуваному статусі
type ConflictError struct {
	MissionID uuid.UUID
	Expected  MissionStatus
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("mission %s is no longer %s", e.MissionID, e.Expected)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }
