/*
lifecycle.go - Reservation state machine

PURPOSE:
  Moves reservations between states and enforces the rules attached to each
  move. Every method receives the unit of work it must read and write through;
  the Manager itself holds nothing but a clock.

STATE MACHINE:
  ┌─────────┐  CheckIn   ┌────────────┐  Checkout / Sweep  ┌───────────┐
  │ PENDING │──────────▶ │ CHECKED_IN │──────────────────▶ │ FINALIZED │
  └─────────┘            └────────────┘                    └───────────┘
       │
       │ Cancel          ┌───────────┐
       └───────────────▶ │ CANCELLED │
                         └───────────┘

  ReassignRoom keeps the reservation PENDING and only changes room and total.

EARLY CHECKOUT:
  Leaving before the booked exit re-prices the stay at the nightly rate the
  current total implies (total / booked nights), for the nights actually
  used, never fewer than one. After a reassignment that is the new room's
  rate, since reassignment rewrites the total.

SEE ALSO:
  - availability.go: Conflict detection used by Create and ReassignRoom
  - service.go: Wraps each method in TxStore.WithTx
*/
package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Manager runs lifecycle transitions. The zero value uses the system clock.
type Manager struct {
	Clock Clock
}

// NewManager creates a manager with the given clock.
func NewManager(clock Clock) *Manager {
	return &Manager{Clock: clock}
}

func (m *Manager) now() time.Time {
	if m.Clock == nil {
		return time.Now()
	}
	return m.Clock.Now()
}

func (m *Manager) today() Date {
	if m.Clock == nil {
		return Today(SystemClock{})
	}
	return Today(m.Clock)
}

// =============================================================================
// CREATE
// =============================================================================

// CreateRequest describes a new booking. NightlyRate overrides the room's
// base rate when set.
type CreateRequest struct {
	RoomID      RoomID
	ClientID    ClientID
	CheckIn     Date
	CheckOut    Date
	NightlyRate *decimal.Decimal
}

// Create books a room for a client. The availability check and the insert
// happen through the same tx, so callers must pass a write transaction.
func (m *Manager) Create(ctx context.Context, tx Store, req CreateRequest) (*Reservation, error) {
	p := Period{Start: req.CheckIn, End: req.CheckOut}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	room, err := mustRoom(ctx, tx, req.RoomID)
	if err != nil {
		return nil, err
	}
	if _, err := mustClient(ctx, tx, req.ClientID); err != nil {
		return nil, err
	}

	rate := room.BaseRate
	if req.NightlyRate != nil {
		if !req.NightlyRate.IsPositive() {
			return nil, fmt.Errorf("%w: nightly rate must be positive", ErrInvalidInput)
		}
		rate = *req.NightlyRate
	}

	if err := ensureAvailable(ctx, tx, room.ID, p, ""); err != nil {
		return nil, err
	}

	total, err := ComputeTotal(req.CheckIn, req.CheckOut, rate)
	if err != nil {
		return nil, err
	}

	now := m.now()
	res := Reservation{
		ID:        ReservationID(NewID()),
		RoomID:    room.ID,
		ClientID:  req.ClientID,
		CheckIn:   req.CheckIn,
		CheckOut:  req.CheckOut,
		Total:     total.Round(MoneyPlaces),
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.SaveReservation(ctx, res); err != nil {
		return nil, fmt.Errorf("failed to save reservation: %w", err)
	}
	return &res, nil
}

// =============================================================================
// CHECK-IN
// =============================================================================

// CheckIn admits the guest. Non-empty patch fields update the client record.
func (m *Manager) CheckIn(ctx context.Context, tx Store, id ReservationID, patch *ClientPatch) (*Reservation, error) {
	res, err := mustReservation(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	switch res.Status {
	case StatusPending:
	case StatusCheckedIn, StatusFinalized, StatusCancelled:
		return nil, &InvalidStateError{ReservationID: id, Action: "check in", Current: res.Status}
	default:
		return nil, fmt.Errorf("%w: unknown reservation status %q", ErrInvalidState, res.Status)
	}

	room, err := mustRoom(ctx, tx, res.RoomID)
	if err != nil {
		return nil, err
	}
	if room.Status.IsOverride() {
		return nil, &RoomNotReadyError{RoomID: room.ID, Number: room.Number, Status: room.Status}
	}

	if !patch.IsEmpty() {
		client, err := mustClient(ctx, tx, res.ClientID)
		if err != nil {
			return nil, err
		}
		patch.Apply(client)
		if err := client.Validate(); err != nil {
			return nil, err
		}
		if err := tx.SaveClient(ctx, *client); err != nil {
			return nil, fmt.Errorf("failed to update client: %w", err)
		}
	}

	now := m.now()
	res.Status = StatusCheckedIn
	res.CheckedInAt = &now
	res.UpdatedAt = now
	if err := tx.SaveReservation(ctx, *res); err != nil {
		return nil, fmt.Errorf("failed to save reservation: %w", err)
	}

	room.Status = RoomOccupied
	if err := tx.SaveRoom(ctx, *room); err != nil {
		return nil, fmt.Errorf("failed to update room: %w", err)
	}
	return res, nil
}

// =============================================================================
// CANCEL
// =============================================================================

// Cancel releases a booking that has not started. The room is left as is.
func (m *Manager) Cancel(ctx context.Context, tx Store, id ReservationID) (*Reservation, error) {
	res, err := mustReservation(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	switch res.Status {
	case StatusPending:
	case StatusCheckedIn, StatusFinalized, StatusCancelled:
		return nil, &InvalidStateError{ReservationID: id, Action: "cancel", Current: res.Status}
	default:
		return nil, fmt.Errorf("%w: unknown reservation status %q", ErrInvalidState, res.Status)
	}

	res.Status = StatusCancelled
	res.UpdatedAt = m.now()
	if err := tx.SaveReservation(ctx, *res); err != nil {
		return nil, fmt.Errorf("failed to save reservation: %w", err)
	}
	return res, nil
}

// =============================================================================
// CHECKOUT
// =============================================================================

// Checkout closes a stay and frees the room. Leaving early shortens the stay
// to today and re-prices it at the original nightly rate.
func (m *Manager) Checkout(ctx context.Context, tx Store, id ReservationID) (*Reservation, error) {
	res, err := mustReservation(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	switch res.Status {
	case StatusCheckedIn:
	case StatusPending, StatusFinalized, StatusCancelled:
		return nil, &InvalidStateError{ReservationID: id, Action: "check out", Current: res.Status}
	default:
		return nil, fmt.Errorf("%w: unknown reservation status %q", ErrInvalidState, res.Status)
	}

	today := m.today()
	if today.Before(res.CheckOut) {
		rate := NightlyRate(res.Total, res.Nights())
		used := DaysBetween(res.CheckIn, today)
		if used < 1 {
			used = 1
		}
		res.CheckOut = res.CheckIn.AddDays(used)
		res.Total = Reprice(used, rate)
	}

	now := m.now()
	res.Status = StatusFinalized
	res.CheckedOutAt = &now
	res.UpdatedAt = now
	if err := tx.SaveReservation(ctx, *res); err != nil {
		return nil, fmt.Errorf("failed to save reservation: %w", err)
	}

	if err := releaseRoom(ctx, tx, res.RoomID, true); err != nil {
		return nil, err
	}
	return res, nil
}

// =============================================================================
// REASSIGN ROOM
// =============================================================================

// ReassignRoom moves a pending booking to another room and re-prices it at
// that room's base rate for the booked nights.
func (m *Manager) ReassignRoom(ctx context.Context, tx Store, id ReservationID, newRoomID RoomID) (*Reservation, error) {
	res, err := mustReservation(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	switch res.Status {
	case StatusPending:
	case StatusCheckedIn, StatusFinalized, StatusCancelled:
		return nil, &InvalidStateError{ReservationID: id, Action: "reassign", Current: res.Status}
	default:
		return nil, fmt.Errorf("%w: unknown reservation status %q", ErrInvalidState, res.Status)
	}

	room, err := mustRoom(ctx, tx, newRoomID)
	if err != nil {
		return nil, err
	}
	p := res.Period()
	if room.ID == res.RoomID {
		return nil, &ConflictError{RoomID: room.ID, CheckIn: p.Start, CheckOut: p.End, Reason: "reservation is already in this room"}
	}

	view, err := ProjectRoom(ctx, tx, room.ID, m.today())
	if err != nil {
		return nil, err
	}
	if view.Status != EffectiveAvailable {
		return nil, &ConflictError{
			RoomID: room.ID, CheckIn: p.Start, CheckOut: p.End,
			Reason: fmt.Sprintf("room %s is %s today", room.Number, view.Status),
		}
	}
	if err := ensureAvailable(ctx, tx, room.ID, p, res.ID); err != nil {
		return nil, err
	}

	res.RoomID = room.ID
	res.Total = Reprice(res.Nights(), room.BaseRate)
	res.UpdatedAt = m.now()
	if err := tx.SaveReservation(ctx, *res); err != nil {
		return nil, fmt.Errorf("failed to save reservation: %w", err)
	}
	return res, nil
}

// =============================================================================
// EXPIRY SWEEP
// =============================================================================

// Sweep finalizes checked-in stays whose exit date has passed and returns
// them. Pending bookings are never touched. Running it twice changes nothing
// the second time.
func (m *Manager) Sweep(ctx context.Context, tx Store) ([]Reservation, error) {
	today := m.today()
	lapsed, err := tx.ListReservations(ctx, ReservationFilter{
		Statuses: []ReservationStatus{StatusCheckedIn},
		EndsBy:   today,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load lapsed reservations: %w", err)
	}

	now := m.now()
	closed := make([]Reservation, 0, len(lapsed))
	for _, res := range lapsed {
		res.Status = StatusFinalized
		res.CheckedOutAt = &now
		res.UpdatedAt = now
		if err := tx.SaveReservation(ctx, res); err != nil {
			return nil, fmt.Errorf("failed to finalize reservation %s: %w", res.ID, err)
		}
		if err := releaseRoom(ctx, tx, res.RoomID, false); err != nil {
			return nil, err
		}
		closed = append(closed, res)
	}
	return closed, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// releaseRoom puts the room back to AVAILABLE. With force unset, only a room
// still marked OCCUPIED is touched, so staff-set cleaning or maintenance wins.
func releaseRoom(ctx context.Context, tx Store, id RoomID, force bool) error {
	room, err := tx.GetRoom(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return nil
	}
	if room.Status == RoomAvailable {
		return nil
	}
	if !force {
		if room.Status != RoomOccupied {
			return nil
		}
		// Another guest may already be checked in on the following stay.
		still, err := tx.ListReservations(ctx, ReservationFilter{
			RoomID:   id,
			Statuses: []ReservationStatus{StatusCheckedIn},
		})
		if err != nil {
			return fmt.Errorf("failed to load room reservations: %w", err)
		}
		if len(still) > 0 {
			return nil
		}
	}
	room.Status = RoomAvailable
	if err := tx.SaveRoom(ctx, *room); err != nil {
		return fmt.Errorf("failed to release room %s: %w", room.Number, err)
	}
	return nil
}

func mustRoom(ctx context.Context, r Reader, id RoomID) (*Room, error) {
	room, err := r.GetRoom(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return nil, notFound("room", string(id))
	}
	return room, nil
}

func mustClient(ctx context.Context, r Reader, id ClientID) (*Client, error) {
	c, err := r.GetClient(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	if c == nil {
		return nil, notFound("client", string(id))
	}
	return c, nil
}

func mustReservation(ctx context.Context, r Reader, id ReservationID) (*Reservation, error) {
	res, err := r.GetReservation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	if res == nil {
		return nil, notFound("reservation", string(id))
	}
	return res, nil
}

func mustProduct(ctx context.Context, r Reader, id ProductID) (*Product, error) {
	p, err := r.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if p == nil {
		return nil, notFound("product", string(id))
	}
	return p, nil
}
