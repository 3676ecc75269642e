/*
store.go - Persistence interface for rooms, clients, reservations and charges

PURPOSE:
  Defines the boundary between the engine and the database. The engine never
  holds a session of its own: every lifecycle operation receives the Store it
  must use, normally the transactional view handed out by TxStore.WithTx.

KEY INTERFACES:
  Reader:  Lookups by id, by room, by client and by date range
  Writer:  Plain upserts and deletes, no business rules
  Store:   Reader + Writer
  TxStore: Store + WithTx (atomic multi-step units of work)

ABSENT RECORDS:
  Get* methods return (nil, nil) when the record does not exist. The engine
  turns that into a NotFoundError with the right resource name.

UNIQUENESS:
  SaveRoom/SaveClient/SaveProduct return an error wrapping ErrConflict when a
  unique key (room number, client document, product name) is taken.

ISOLATION:
  WithTx must keep a second writer from passing its availability check on the
  same room before the first one commits. The SQLite store takes the database
  write lock at BEGIN; the memory store holds one writer mutex.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - booking/store/memory.go: In-memory for tests and demos

SEE ALSO:
  - service.go: Opens one WithTx per operation
*/
package booking

import "context"

// =============================================================================
// RESERVATION FILTER
// =============================================================================

// ReservationFilter selects reservations. Zero-valued fields are ignored.
type ReservationFilter struct {
	RoomID    RoomID
	ClientID  ClientID
	Statuses  []ReservationStatus
	From      Date    // CheckIn >= From
	To        Date    // CheckOut <= To
	CheckInOn Date    // CheckIn == CheckInOn
	EndsBy    Date    // CheckOut < EndsBy
	Overlap   *Period // CheckIn < Overlap.End && CheckOut > Overlap.Start
}

// Matches evaluates the filter in memory. SQL stores translate the same fields.
func (f ReservationFilter) Matches(r Reservation) bool {
	if f.RoomID != "" && r.RoomID != f.RoomID {
		return false
	}
	if f.ClientID != "" && r.ClientID != f.ClientID {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, r.Status) {
		return false
	}
	if !f.From.IsZero() && r.CheckIn.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && r.CheckOut.After(f.To) {
		return false
	}
	if !f.CheckInOn.IsZero() && !r.CheckIn.Equal(f.CheckInOn) {
		return false
	}
	if !f.EndsBy.IsZero() && !r.CheckOut.Before(f.EndsBy) {
		return false
	}
	if f.Overlap != nil && !Overlaps(r.CheckIn, r.CheckOut, f.Overlap.Start, f.Overlap.End) {
		return false
	}
	return true
}

func containsStatus(list []ReservationStatus, s ReservationStatus) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// =============================================================================
// STORE INTERFACES
// =============================================================================

type Reader interface {
	GetRoom(ctx context.Context, id RoomID) (*Room, error)
	ListRooms(ctx context.Context) ([]Room, error)

	GetClient(ctx context.Context, id ClientID) (*Client, error)
	ListClients(ctx context.Context) ([]Client, error)

	GetProduct(ctx context.Context, id ProductID) (*Product, error)
	ListProducts(ctx context.Context, activeOnly bool) ([]Product, error)

	GetReservation(ctx context.Context, id ReservationID) (*Reservation, error)
	// ListReservations returns matches ordered by CheckIn, then CreatedAt.
	ListReservations(ctx context.Context, f ReservationFilter) ([]Reservation, error)

	GetConsumption(ctx context.Context, id ConsumptionID) (*Consumption, error)
	// ListConsumptions returns a reservation's charges ordered by date.
	ListConsumptions(ctx context.Context, id ReservationID) ([]Consumption, error)
}

type Writer interface {
	SaveRoom(ctx context.Context, r Room) error
	// DeleteRoom and DeleteClient also remove the reservations that reference them.
	DeleteRoom(ctx context.Context, id RoomID) error

	SaveClient(ctx context.Context, c Client) error
	DeleteClient(ctx context.Context, id ClientID) error

	SaveProduct(ctx context.Context, p Product) error
	DeleteProduct(ctx context.Context, id ProductID) error

	SaveReservation(ctx context.Context, r Reservation) error
	// DeleteReservation also removes the reservation's consumptions.
	DeleteReservation(ctx context.Context, id ReservationID) error

	SaveConsumption(ctx context.Context, c Consumption) error
	DeleteConsumption(ctx context.Context, id ConsumptionID) error
}

// Store is a unit of work: everything the engine reads and writes.
type Store interface {
	Reader
	Writer
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	// If fn returns nil, transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
