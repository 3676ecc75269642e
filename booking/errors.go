/*
errors.go - Failure taxonomy for the booking engine

PURPOSE:
  Every business-rule failure maps to exactly one kind. Kinds are stable so
  a transport can translate them to status codes without string matching.
  None of these are retried automatically.

ERROR KINDS:
  NotFound         referenced room/client/reservation/product absent
  InvalidRange     exit <= entry, or unparsable date
  Conflict         overlapping stay on create/reassign, duplicate unique key
  InvalidState     transition not allowed from the current status
  RoomNotReady     check-in while the room is in cleaning/maintenance
  InactiveProduct  consumption against a deactivated product
  InvalidInput     malformed request values (quantity, rate, enum strings)

USAGE:
  if errors.Is(err, booking.ErrConflict) { ... }

  var conflict *booking.ConflictError
  if errors.As(err, &conflict) { log.Println(conflict.ExistingID) }

SEE ALSO:
  - api/handlers.go: KindOf -> HTTP status
*/
package booking

import (
	"errors"
	"fmt"
	"net/http"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidRange    = errors.New("invalid date range")
	ErrConflict        = errors.New("conflict")
	ErrInvalidState    = errors.New("invalid state transition")
	ErrRoomNotReady    = errors.New("room not ready")
	ErrInactiveProduct = errors.New("product is inactive")
	ErrInvalidInput    = errors.New("invalid input")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError names the missing record.
type NotFoundError struct {
	Resource string // "room", "client", "reservation", "product", "consumption"
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func notFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// ConflictError describes an overlapping stay.
type ConflictError struct {
	RoomID     RoomID
	CheckIn    Date
	CheckOut   Date
	ExistingID ReservationID
	Reason     string
}

func (e *ConflictError) Error() string {
	p := Period{Start: e.CheckIn, End: e.CheckOut}
	if e.Reason != "" {
		return fmt.Sprintf("room %s not available %s: %s", e.RoomID, p, e.Reason)
	}
	return fmt.Sprintf("room %s not available %s (overlaps reservation %s)", e.RoomID, p, e.ExistingID)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// InvalidStateError reports a refused lifecycle transition.
type InvalidStateError struct {
	ReservationID ReservationID
	Action        string
	Current       ReservationStatus
}

func (e *InvalidStateError) Error() string {
	if e.Current.IsTerminal() {
		return fmt.Sprintf("cannot %s reservation %s: it is already %s", e.Action, e.ReservationID, e.Current)
	}
	return fmt.Sprintf("cannot %s reservation %s in status %s", e.Action, e.ReservationID, e.Current)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// RoomNotReadyError reports a room held out of service by staff.
type RoomNotReadyError struct {
	RoomID RoomID
	Number string
	Status RoomStatus
}

func (e *RoomNotReadyError) Error() string {
	return fmt.Sprintf("room %s is in %s", e.Number, e.Status)
}

func (e *RoomNotReadyError) Unwrap() error { return ErrRoomNotReady }

// =============================================================================
// ERROR KINDS
// =============================================================================

type ErrorKind string

const (
	KindNotFound        ErrorKind = "not_found"
	KindInvalidRange    ErrorKind = "invalid_range"
	KindConflict        ErrorKind = "conflict"
	KindInvalidState    ErrorKind = "invalid_state"
	KindRoomNotReady    ErrorKind = "room_not_ready"
	KindInactiveProduct ErrorKind = "inactive_product"
	KindInvalidInput    ErrorKind = "invalid_input"
	KindInternal        ErrorKind = "internal"
)

// KindOf classifies err. Unknown errors are internal.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidRange):
		return KindInvalidRange
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrInvalidState):
		return KindInvalidState
	case errors.Is(err, ErrRoomNotReady):
		return KindRoomNotReady
	case errors.Is(err, ErrInactiveProduct):
		return KindInactiveProduct
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	}
	return KindInternal
}

// HTTPStatus is the stable status code for a kind.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindRoomNotReady:
		return http.StatusConflict
	case KindInvalidRange, KindInvalidState, KindInvalidInput, KindInactiveProduct:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// IsClientError returns true if the error is a business-rule failure.
func IsClientError(err error) bool {
	k := KindOf(err)
	return k != "" && k != KindInternal
}
