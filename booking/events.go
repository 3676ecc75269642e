package booking

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LIFECYCLE EVENTS
// =============================================================================

type EventType string

const (
	EventReservationCreated  EventType = "reservation.created"
	EventReservationCheckIn  EventType = "reservation.checked_in"
	EventReservationCheckout EventType = "reservation.checked_out"
	EventReservationCancel   EventType = "reservation.cancelled"
	EventRoomReassigned      EventType = "reservation.room_reassigned"
	EventReservationExpired  EventType = "reservation.expired"
)

// Event is a committed state change. It is published after the transaction
// that produced it commits, never before.
type Event struct {
	ID            string            `json:"id"`
	Type          EventType         `json:"type"`
	ReservationID ReservationID     `json:"reservation_id"`
	RoomID        RoomID            `json:"room_id"`
	ClientID      ClientID          `json:"client_id"`
	Status        ReservationStatus `json:"status"`
	CheckIn       Date              `json:"check_in"`
	CheckOut      Date              `json:"check_out"`
	Total         decimal.Decimal   `json:"total"`
	PreviousRoom  RoomID            `json:"previous_room_id,omitempty"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

// NewEvent snapshots a reservation into an event.
func NewEvent(t EventType, r Reservation, at time.Time) Event {
	return Event{
		ID:            NewID(),
		Type:          t,
		ReservationID: r.ID,
		RoomID:        r.RoomID,
		ClientID:      r.ClientID,
		Status:        r.Status,
		CheckIn:       r.CheckIn,
		CheckOut:      r.CheckOut,
		Total:         r.Total,
		OccurredAt:    at,
	}
}

// EventSink receives committed lifecycle events. Publish failures are logged
// by the caller and never undo the committed change.
type EventSink interface {
	Publish(ctx context.Context, e Event) error
}

// NopSink discards events.
type NopSink struct{}

func (NopSink) Publish(context.Context, Event) error { return nil }
