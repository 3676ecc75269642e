/*
Package booking provides the room allocation and reservation lifecycle engine.

PURPOSE:
  Allocates a finite set of rooms to guests over whole-day intervals and
  tracks every reservation from booking to settlement. Everything with an
  invariant lives here: interval overlap, derived room state, the reservation
  state machine, and price/billing rules.

KEY CONCEPTS IN THIS FILE (types.go):
  - Room, Client, Product: referenced records owned by the registry
  - Reservation: a room held for a client over [CheckIn, CheckOut)
  - Consumption: an extra charge captured against a reservation
  - Status enums: closed sets, validated at every boundary

DESIGN PRINCIPLES:
  1. Half-open intervals: CheckOut day is free for the next arrival
  2. Derived state: Available/Occupied/Reserved are computed, never trusted from storage
  3. Frozen prices: totals and unit prices are captured when the action happens
  4. Precision: money is decimal.Decimal, never float

SEE ALSO:
  - lifecycle.go: State machine
  - projection.go: Effective room status for any date
  - store.go: Persistence contract
*/
package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type RoomID string
type ClientID string
type ReservationID string
type ProductID string
type ConsumptionID string

// NewID returns a fresh random identifier.
func NewID() string { return uuid.NewString() }

// =============================================================================
// ROOM
// =============================================================================

type RoomCategory string

const (
	CategorySimple RoomCategory = "SIMPLE"
	CategoryDouble RoomCategory = "DOUBLE"
	CategorySuite  RoomCategory = "SUITE"
)

func (c RoomCategory) Valid() bool {
	switch c {
	case CategorySimple, CategoryDouble, CategorySuite:
		return true
	}
	return false
}

func ParseRoomCategory(s string) (RoomCategory, error) {
	c := RoomCategory(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: unknown room category %q", ErrInvalidInput, s)
	}
	return c, nil
}

// RoomStatus is the persisted, staff-controlled status of a room.
// Only Cleaning and Maintenance are authoritative; see projection.go.
type RoomStatus string

const (
	RoomAvailable   RoomStatus = "AVAILABLE"
	RoomOccupied    RoomStatus = "OCCUPIED"
	RoomCleaning    RoomStatus = "CLEANING"
	RoomMaintenance RoomStatus = "MAINTENANCE"
)

func (s RoomStatus) Valid() bool {
	switch s {
	case RoomAvailable, RoomOccupied, RoomCleaning, RoomMaintenance:
		return true
	}
	return false
}

// IsOverride reports whether staff have taken the room out of service.
func (s RoomStatus) IsOverride() bool {
	return s == RoomCleaning || s == RoomMaintenance
}

func ParseRoomStatus(s string) (RoomStatus, error) {
	st := RoomStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown room status %q", ErrInvalidInput, s)
	}
	return st, nil
}

type Room struct {
	ID       RoomID
	Number   string
	Category RoomCategory
	BaseRate decimal.Decimal
	Status   RoomStatus
}

// Validate checks the registry-level invariants of a room record.
func (r Room) Validate() error {
	if r.Number == "" {
		return fmt.Errorf("%w: room number is required", ErrInvalidInput)
	}
	if !r.Category.Valid() {
		return fmt.Errorf("%w: unknown room category %q", ErrInvalidInput, r.Category)
	}
	if !r.BaseRate.IsPositive() {
		return fmt.Errorf("%w: base rate must be positive", ErrInvalidInput)
	}
	if !r.Status.Valid() {
		return fmt.Errorf("%w: unknown room status %q", ErrInvalidInput, r.Status)
	}
	return nil
}

// =============================================================================
// CLIENT
// =============================================================================

type Client struct {
	ID         ClientID
	DocumentID string // national ID or passport, unique
	FullName   string
	Email      string
	Phone      string
}

func (c Client) Validate() error {
	if c.DocumentID == "" {
		return fmt.Errorf("%w: document id is required", ErrInvalidInput)
	}
	if c.FullName == "" {
		return fmt.Errorf("%w: full name is required", ErrInvalidInput)
	}
	return nil
}

// ClientPatch carries optional contact updates applied at check-in.
// Empty fields are left untouched.
type ClientPatch struct {
	FullName string
	Email    string
	Phone    string
}

func (p *ClientPatch) IsEmpty() bool {
	return p == nil || (p.FullName == "" && p.Email == "" && p.Phone == "")
}

// Apply copies the non-empty fields onto c.
func (p *ClientPatch) Apply(c *Client) {
	if p == nil {
		return
	}
	if p.FullName != "" {
		c.FullName = p.FullName
	}
	if p.Email != "" {
		c.Email = p.Email
	}
	if p.Phone != "" {
		c.Phone = p.Phone
	}
}

// =============================================================================
// RESERVATION
// =============================================================================

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "PENDING"
	StatusCheckedIn ReservationStatus = "CHECKED_IN"
	StatusFinalized ReservationStatus = "FINALIZED"
	StatusCancelled ReservationStatus = "CANCELLED"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCheckedIn, StatusFinalized, StatusCancelled:
		return true
	}
	return false
}

// Holds reports whether a reservation in this status blocks its room.
func (s ReservationStatus) Holds() bool {
	switch s {
	case StatusPending, StatusCheckedIn:
		return true
	case StatusFinalized, StatusCancelled:
		return false
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s ReservationStatus) IsTerminal() bool {
	return s == StatusFinalized || s == StatusCancelled
}

func ParseReservationStatus(s string) (ReservationStatus, error) {
	st := ReservationStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown reservation status %q", ErrInvalidInput, s)
	}
	return st, nil
}

// ActiveStatuses are the statuses that participate in overlap checks.
var ActiveStatuses = []ReservationStatus{StatusPending, StatusCheckedIn}

type Reservation struct {
	ID           ReservationID
	RoomID       RoomID
	ClientID     ClientID
	CheckIn      Date // first night
	CheckOut     Date // departure day, exclusive
	Total        decimal.Decimal
	Status       ReservationStatus
	CheckedInAt  *time.Time
	CheckedOutAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Period is the booked stay as an interval.
func (r Reservation) Period() Period {
	return Period{Start: r.CheckIn, End: r.CheckOut}
}

// Covers reports whether the stay includes the night starting on d.
func (r Reservation) Covers(d Date) bool {
	return r.Period().Contains(d)
}

// Nights is the booked length of stay.
func (r Reservation) Nights() int {
	return r.Period().Nights()
}

// =============================================================================
// PRODUCT & CONSUMPTION
// =============================================================================

type Product struct {
	ID     ProductID
	Name   string
	Price  decimal.Decimal
	Active bool
}

func (p Product) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: product name is required", ErrInvalidInput)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: product price cannot be negative", ErrInvalidInput)
	}
	return nil
}

// Consumption is immutable once registered. UnitPrice is the product price
// at registration time.
type Consumption struct {
	ID            ConsumptionID
	ReservationID ReservationID
	ProductID     ProductID
	Quantity      int
	UnitPrice     decimal.Decimal
	Date          Date
}

func (c Consumption) Subtotal() decimal.Decimal {
	return c.UnitPrice.Mul(decimal.NewFromInt(int64(c.Quantity)))
}
