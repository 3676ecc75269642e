/*
service.go - Transactional facade over the engine

PURPOSE:
  The single entry point transports call. Each operation opens exactly one
  unit of work with TxStore.WithTx, runs the Manager inside it, and publishes
  lifecycle events only after the commit succeeded.

READ PATHS:
  Reads that show stay state (room board, reservation listings, invoices)
  first run the expiry sweep in its own write transaction, so lapsed stays
  are finalized before anyone looks at them.

REGISTRY:
  Rooms, clients and products are plain records. The only rules are unique
  keys (enforced by the store) and delete guards: a room or client referenced
  by a non-cancelled reservation cannot be removed.

SEE ALSO:
  - lifecycle.go: Transition rules
  - api/handlers.go: HTTP transport over this facade
*/
package booking

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// MinSearchLength is the shortest query SearchForCheckIn answers.
const MinSearchLength = 2

// Service wires a store, a manager and an event sink.
type Service struct {
	Store   TxStore
	Manager *Manager
	Events  EventSink
}

// NewService creates a service. A nil sink discards events.
func NewService(store TxStore, clock Clock, sink EventSink) *Service {
	if sink == nil {
		sink = NopSink{}
	}
	return &Service{Store: store, Manager: NewManager(clock), Events: sink}
}

// Today is the service clock's current day.
func (s *Service) Today() Date {
	return s.Manager.today()
}

func (s *Service) publish(ctx context.Context, events ...Event) {
	for _, e := range events {
		if err := s.Events.Publish(ctx, e); err != nil {
			log.Printf("[Events] failed to publish %s for %s: %v", e.Type, e.ReservationID, err)
		}
	}
}

// =============================================================================
// LIFECYCLE OPERATIONS
// =============================================================================

func (s *Service) CreateReservation(ctx context.Context, req CreateRequest) (*Reservation, error) {
	var res *Reservation
	err := s.Store.WithTx(ctx, func(tx Store) error {
		var err error
		res, err = s.Manager.Create(ctx, tx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, NewEvent(EventReservationCreated, *res, s.Manager.now()))
	return res, nil
}

func (s *Service) CheckIn(ctx context.Context, id ReservationID, patch *ClientPatch) (*Reservation, error) {
	var res *Reservation
	err := s.Store.WithTx(ctx, func(tx Store) error {
		var err error
		res, err = s.Manager.CheckIn(ctx, tx, id, patch)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, NewEvent(EventReservationCheckIn, *res, s.Manager.now()))
	return res, nil
}

func (s *Service) Checkout(ctx context.Context, id ReservationID) (*Reservation, error) {
	var res *Reservation
	err := s.Store.WithTx(ctx, func(tx Store) error {
		var err error
		res, err = s.Manager.Checkout(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, NewEvent(EventReservationCheckout, *res, s.Manager.now()))
	return res, nil
}

func (s *Service) CancelReservation(ctx context.Context, id ReservationID) (*Reservation, error) {
	var res *Reservation
	err := s.Store.WithTx(ctx, func(tx Store) error {
		var err error
		res, err = s.Manager.Cancel(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, NewEvent(EventReservationCancel, *res, s.Manager.now()))
	return res, nil
}

func (s *Service) ReassignRoom(ctx context.Context, id ReservationID, newRoom RoomID) (*Reservation, error) {
	var (
		res  *Reservation
		prev RoomID
	)
	err := s.Store.WithTx(ctx, func(tx Store) error {
		before, err := mustReservation(ctx, tx, id)
		if err != nil {
			return err
		}
		prev = before.RoomID
		res, err = s.Manager.ReassignRoom(ctx, tx, id, newRoom)
		return err
	})
	if err != nil {
		return nil, err
	}
	e := NewEvent(EventRoomReassigned, *res, s.Manager.now())
	e.PreviousRoom = prev
	s.publish(ctx, e)
	return res, nil
}

// Sweep finalizes lapsed stays and returns how many were closed.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	var closed []Reservation
	err := s.Store.WithTx(ctx, func(tx Store) error {
		var err error
		closed, err = s.Manager.Sweep(ctx, tx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("expiry sweep failed: %w", err)
	}
	if len(closed) > 0 {
		log.Printf("[Sweep] Finalized %d lapsed reservation(s)", len(closed))
	}
	now := s.Manager.now()
	for _, r := range closed {
		s.publish(ctx, NewEvent(EventReservationExpired, r, now))
	}
	return len(closed), nil
}

// ListRoomsAtDate projects every room on date (YYYY-MM-DD, empty for today).
func (s *Service) ListRoomsAtDate(ctx context.Context, date string) ([]RoomView, error) {
	d := s.Today()
	if date != "" {
		var err error
		if d, err = ParseDate(date); err != nil {
			return nil, err
		}
	}
	if _, err := s.Sweep(ctx); err != nil {
		return nil, err
	}
	return ProjectRoomStates(ctx, s.Store, d)
}

func (s *Service) RegisterConsumption(ctx context.Context, id ReservationID, product ProductID, quantity int) (*Consumption, error) {
	var c *Consumption
	err := s.Store.WithTx(ctx, func(tx Store) error {
		var err error
		c, err = s.Manager.RegisterConsumption(ctx, tx, id, product, quantity)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) GetInvoice(ctx context.Context, id ReservationID) (*Invoice, error) {
	if _, err := s.Sweep(ctx); err != nil {
		return nil, err
	}
	return BuildInvoice(ctx, s.Store, id)
}

// =============================================================================
// RESERVATION QUERIES
// =============================================================================

// Availability answers "is this room free" and "which rooms are free".
type Availability struct {
	RoomID    RoomID
	Start     Date
	End       Date
	Nights    int
	Available bool
	Conflict  *Reservation
	FreeRooms []Room
}

// CheckAvailability checks [start, end). With room empty only FreeRooms is
// meaningful.
func (s *Service) CheckAvailability(ctx context.Context, room RoomID, start, end Date) (*Availability, error) {
	n, err := Nights(start, end)
	if err != nil {
		return nil, err
	}
	if _, err := s.Sweep(ctx); err != nil {
		return nil, err
	}
	out := &Availability{RoomID: room, Start: start, End: end, Nights: n}
	if room != "" {
		if _, err := mustRoom(ctx, s.Store, room); err != nil {
			return nil, err
		}
		out.Conflict, err = FindConflict(ctx, s.Store, room, Period{Start: start, End: end}, "")
		if err != nil {
			return nil, err
		}
		out.Available = out.Conflict == nil
	}
	out.FreeRooms, err = AvailableRooms(ctx, s.Store, start, end)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReassignTargets lists the rooms a pending reservation can be moved to today.
func (s *Service) ReassignTargets(ctx context.Context, id ReservationID) ([]Room, error) {
	if _, err := s.Sweep(ctx); err != nil {
		return nil, err
	}
	res, err := mustReservation(ctx, s.Store, id)
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
	return ReassignTargets(ctx, s.Store, *res, s.Today())
}

// ReservationDetail is a reservation joined with its client and room.
type ReservationDetail struct {
	Reservation
	ClientName     string
	ClientDocument string
	ClientEmail    string
	ClientPhone    string
	RoomNumber     string
}

func (s *Service) ListReservations(ctx context.Context, f ReservationFilter) ([]Reservation, error) {
	if _, err := s.Sweep(ctx); err != nil {
		return nil, err
	}
	return s.Store.ListReservations(ctx, f)
}

func (s *Service) GetReservation(ctx context.Context, id ReservationID) (*Reservation, error) {
	if _, err := s.Sweep(ctx); err != nil {
		return nil, err
	}
	return mustReservation(ctx, s.Store, id)
}

// History lists finished and cancelled reservations, newest first.
func (s *Service) History(ctx context.Context) ([]ReservationDetail, error) {
	if _, err := s.Sweep(ctx); err != nil {
		return nil, err
	}
	list, err := s.Store.ListReservations(ctx, ReservationFilter{
		Statuses: []ReservationStatus{StatusFinalized, StatusCancelled},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return s.details(ctx, list)
}

// ArrivalsToday lists pending reservations starting today.
func (s *Service) ArrivalsToday(ctx context.Context) ([]ReservationDetail, error) {
	list, err := s.Store.ListReservations(ctx, ReservationFilter{
		Statuses:  []ReservationStatus{StatusPending},
		CheckInOn: s.Today(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list arrivals: %w", err)
	}
	return s.details(ctx, list)
}

// SearchForCheckIn finds pending reservations by reservation id, client name
// or client document. An exact id match is returned alone.
func (s *Service) SearchForCheckIn(ctx context.Context, query string) ([]ReservationDetail, error) {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < MinSearchLength {
		return []ReservationDetail{}, nil
	}

	if r, err := s.Store.GetReservation(ctx, ReservationID(q)); err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	} else if r != nil && r.Status == StatusPending {
		return s.details(ctx, []Reservation{*r})
	}

	pending, err := s.Store.ListReservations(ctx, ReservationFilter{Statuses: []ReservationStatus{StatusPending}})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending reservations: %w", err)
	}
	all, err := s.details(ctx, pending)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(q)
	out := make([]ReservationDetail, 0)
	for _, d := range all {
		if strings.Contains(strings.ToLower(d.ClientName), needle) ||
			strings.Contains(strings.ToLower(d.ClientDocument), needle) ||
			strings.Contains(strings.ToLower(string(d.ID)), needle) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *Service) details(ctx context.Context, list []Reservation) ([]ReservationDetail, error) {
	clients := make(map[ClientID]*Client)
	rooms := make(map[RoomID]*Room)
	out := make([]ReservationDetail, 0, len(list))
	for _, r := range list {
		c, ok := clients[r.ClientID]
		if !ok {
			var err error
			if c, err = s.Store.GetClient(ctx, r.ClientID); err != nil {
				return nil, fmt.Errorf("failed to get client: %w", err)
			}
			clients[r.ClientID] = c
		}
		room, ok := rooms[r.RoomID]
		if !ok {
			var err error
			if room, err = s.Store.GetRoom(ctx, r.RoomID); err != nil {
				return nil, fmt.Errorf("failed to get room: %w", err)
			}
			rooms[r.RoomID] = room
		}

		d := ReservationDetail{Reservation: r, ClientName: UnknownClientName}
		if c != nil {
			d.ClientName = c.FullName
			d.ClientDocument = c.DocumentID
			d.ClientEmail = c.Email
			d.ClientPhone = c.Phone
		}
		if room != nil {
			d.RoomNumber = room.Number
		}
		out = append(out, d)
	}
	return out, nil
}

// DeleteReservation removes a reservation and its consumptions outright.
func (s *Service) DeleteReservation(ctx context.Context, id ReservationID) error {
	return s.Store.WithTx(ctx, func(tx Store) error {
		if _, err := mustReservation(ctx, tx, id); err != nil {
			return err
		}
		return tx.DeleteReservation(ctx, id)
	})
}

func (s *Service) ListConsumptions(ctx context.Context, id ReservationID) ([]Consumption, error) {
	if _, err := mustReservation(ctx, s.Store, id); err != nil {
		return nil, err
	}
	return s.Store.ListConsumptions(ctx, id)
}

func (s *Service) DeleteConsumption(ctx context.Context, id ConsumptionID) error {
	return s.Store.WithTx(ctx, func(tx Store) error {
		c, err := tx.GetConsumption(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get consumption: %w", err)
		}
		if c == nil {
			return notFound("consumption", string(id))
		}
		return tx.DeleteConsumption(ctx, id)
	})
}

// =============================================================================
// REGISTRY - Rooms
// =============================================================================

func (s *Service) CreateRoom(ctx context.Context, room Room) (*Room, error) {
	if room.ID == "" {
		room.ID = RoomID(NewID())
	}
	if room.Status == "" {
		room.Status = RoomAvailable
	}
	if err := room.Validate(); err != nil {
		return nil, err
	}
	if err := s.Store.WithTx(ctx, func(tx Store) error {
		return tx.SaveRoom(ctx, room)
	}); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Service) GetRoom(ctx context.Context, id RoomID) (*Room, error) {
	return mustRoom(ctx, s.Store, id)
}

func (s *Service) ListRooms(ctx context.Context) ([]Room, error) {
	return s.Store.ListRooms(ctx)
}

// RoomUpdate changes the fields that are set.
type RoomUpdate struct {
	Number   *string
	Category *RoomCategory
	BaseRate *decimal.Decimal
	Status   *RoomStatus
}

func (u RoomUpdate) apply(r *Room) {
	if u.Number != nil {
		r.Number = *u.Number
	}
	if u.Category != nil {
		r.Category = *u.Category
	}
	if u.BaseRate != nil {
		r.BaseRate = *u.BaseRate
	}
	if u.Status != nil {
		r.Status = *u.Status
	}
}

// UpdateRoom applies u to the current record in one transaction, so a
// concurrent check-in is never overwritten by a stale copy.
func (s *Service) UpdateRoom(ctx context.Context, id RoomID, u RoomUpdate) (*Room, error) {
	var room *Room
	err := s.Store.WithTx(ctx, func(tx Store) error {
		var err error
		if room, err = mustRoom(ctx, tx, id); err != nil {
			return err
		}
		u.apply(room)
		if err := room.Validate(); err != nil {
			return err
		}
		return tx.SaveRoom(ctx, *room)
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

// SetRoomStatus is the staff override (cleaning, maintenance, back in service).
func (s *Service) SetRoomStatus(ctx context.Context, id RoomID, status RoomStatus) (*Room, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown room status %q", ErrInvalidInput, status)
	}
	var room *Room
	err := s.Store.WithTx(ctx, func(tx Store) error {
		var err error
		if room, err = mustRoom(ctx, tx, id); err != nil {
			return err
		}
		room.Status = status
		return tx.SaveRoom(ctx, *room)
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

func (s *Service) DeleteRoom(ctx context.Context, id RoomID) error {
	return s.Store.WithTx(ctx, func(tx Store) error {
		if _, err := mustRoom(ctx, tx, id); err != nil {
			return err
		}
		if err := ensureUnreferenced(ctx, tx, ReservationFilter{RoomID: id}, "room"); err != nil {
			return err
		}
		return tx.DeleteRoom(ctx, id)
	})
}

// =============================================================================
// REGISTRY - Clients
// =============================================================================

func (s *Service) CreateClient(ctx context.Context, c Client) (*Client, error) {
	if c.ID == "" {
		c.ID = ClientID(NewID())
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.Store.WithTx(ctx, func(tx Store) error {
		return tx.SaveClient(ctx, c)
	}); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Service) GetClient(ctx context.Context, id ClientID) (*Client, error) {
	return mustClient(ctx, s.Store, id)
}

func (s *Service) ListClients(ctx context.Context) ([]Client, error) {
	return s.Store.ListClients(ctx)
}

// ClientUpdate changes the fields that are set.
type ClientUpdate struct {
	DocumentID *string
	FullName   *string
	Email      *string
	Phone      *string
}

func (u ClientUpdate) apply(c *Client) {
	if u.DocumentID != nil {
		c.DocumentID = *u.DocumentID
	}
	if u.FullName != nil {
		c.FullName = *u.FullName
	}
	if u.Email != nil {
		c.Email = *u.Email
	}
	if u.Phone != nil {
		c.Phone = *u.Phone
	}
}

func (s *Service) UpdateClient(ctx context.Context, id ClientID, u ClientUpdate) (*Client, error) {
	var c *Client
	err := s.Store.WithTx(ctx, func(tx Store) error {
		var err error
		if c, err = mustClient(ctx, tx, id); err != nil {
			return err
		}
		u.apply(c)
		if err := c.Validate(); err != nil {
			return err
		}
		return tx.SaveClient(ctx, *c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) DeleteClient(ctx context.Context, id ClientID) error {
	return s.Store.WithTx(ctx, func(tx Store) error {
		if _, err := mustClient(ctx, tx, id); err != nil {
			return err
		}
		if err := ensureUnreferenced(ctx, tx, ReservationFilter{ClientID: id}, "client"); err != nil {
			return err
		}
		return tx.DeleteClient(ctx, id)
	})
}

// ensureUnreferenced fails with Conflict if a non-cancelled reservation matches f.
func ensureUnreferenced(ctx context.Context, r Reader, f ReservationFilter, resource string) error {
	f.Statuses = []ReservationStatus{StatusPending, StatusCheckedIn, StatusFinalized}
	refs, err := r.ListReservations(ctx, f)
	if err != nil {
		return fmt.Errorf("failed to check %s references: %w", resource, err)
	}
	if len(refs) > 0 {
		return fmt.Errorf("%w: %s has %d reservation(s) that are not cancelled", ErrConflict, resource, len(refs))
	}
	return nil
}

// =============================================================================
// REGISTRY - Products
// =============================================================================

func (s *Service) CreateProduct(ctx context.Context, p Product) (*Product, error) {
	if p.ID == "" {
		p.ID = ProductID(NewID())
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.Store.WithTx(ctx, func(tx Store) error {
		return tx.SaveProduct(ctx, p)
	}); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Service) GetProduct(ctx context.Context, id ProductID) (*Product, error) {
	return mustProduct(ctx, s.Store, id)
}

func (s *Service) ListProducts(ctx context.Context, activeOnly bool) ([]Product, error) {
	return s.Store.ListProducts(ctx, activeOnly)
}

// ProductUpdate changes the fields that are set. Past consumptions keep
// their captured price whatever the new one is.
type ProductUpdate struct {
	Name   *string
	Price  *decimal.Decimal
	Active *bool
}

func (s *Service) UpdateProduct(ctx context.Context, id ProductID, u ProductUpdate) (*Product, error) {
	var p *Product
	err := s.Store.WithTx(ctx, func(tx Store) error {
		var err error
		if p, err = mustProduct(ctx, tx, id); err != nil {
			return err
		}
		if u.Name != nil {
			p.Name = *u.Name
		}
		if u.Price != nil {
			p.Price = *u.Price
		}
		if u.Active != nil {
			p.Active = *u.Active
		}
		if err := p.Validate(); err != nil {
			return err
		}
		return tx.SaveProduct(ctx, *p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProduct removes a product. Past consumptions keep their price and
// show a placeholder name on invoices.
func (s *Service) DeleteProduct(ctx context.Context, id ProductID) error {
	return s.Store.WithTx(ctx, func(tx Store) error {
		if _, err := mustProduct(ctx, tx, id); err != nil {
			return err
		}
		return tx.DeleteProduct(ctx, id)
	})
}
