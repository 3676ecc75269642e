package booking_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/warp/hotel-engine/booking"
	"github.com/warp/hotel-engine/booking/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// movableClock is a clock tests can advance day by day.
type movableClock struct {
	mu sync.Mutex
	at time.Time
}

func clockOn(day string) *movableClock {
	return &movableClock{at: booking.ClockAt(booking.MustParseDate(day)).At}
}

func (c *movableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at
}

func (c *movableClock) SetDay(day string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at = booking.ClockAt(booking.MustParseDate(day)).At
}

// recordingSink keeps every published event.
type recordingSink struct {
	mu     sync.Mutex
	events []booking.Event
}

func (s *recordingSink) Publish(_ context.Context, e booking.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) types() []booking.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]booking.EventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Type)
	}
	return out
}

// hotel is a service over a fresh memory store.
type hotel struct {
	t      *testing.T
	ctx    context.Context
	store  *store.TxMemory
	clock  *movableClock
	sink   *recordingSink
	svc    *booking.Service
	client booking.ClientID
}

func newHotel(t *testing.T, today string) *hotel {
	t.Helper()
	h := &hotel{
		t:     t,
		ctx:   context.Background(),
		store: store.NewTxMemory(),
		clock: clockOn(today),
		sink:  &recordingSink{},
	}
	h.svc = booking.NewService(h.store, h.clock, h.sink)
	h.client = h.addClient("30111222", "Ana Gómez")
	return h
}

func (h *hotel) addRoom(number, rate string) booking.RoomID {
	h.t.Helper()
	room, err := h.svc.CreateRoom(h.ctx, booking.Room{
		Number:   number,
		Category: booking.CategorySimple,
		BaseRate: decimal.RequireFromString(rate),
	})
	require.NoError(h.t, err)
	return room.ID
}

func (h *hotel) addClient(doc, name string) booking.ClientID {
	h.t.Helper()
	c, err := h.svc.CreateClient(h.ctx, booking.Client{DocumentID: doc, FullName: name})
	require.NoError(h.t, err)
	return c.ID
}

func (h *hotel) addProduct(name, price string, active bool) booking.ProductID {
	h.t.Helper()
	p, err := h.svc.CreateProduct(h.ctx, booking.Product{
		Name:   name,
		Price:  decimal.RequireFromString(price),
		Active: active,
	})
	require.NoError(h.t, err)
	return p.ID
}

func (h *hotel) book(room booking.RoomID, from, to string) (*booking.Reservation, error) {
	return h.svc.CreateReservation(h.ctx, booking.CreateRequest{
		RoomID:   room,
		ClientID: h.client,
		CheckIn:  booking.MustParseDate(from),
		CheckOut: booking.MustParseDate(to),
	})
}

func (h *hotel) mustBook(room booking.RoomID, from, to string) *booking.Reservation {
	h.t.Helper()
	res, err := h.book(room, from, to)
	require.NoError(h.t, err)
	return res
}

func (h *hotel) reservation(id booking.ReservationID) booking.Reservation {
	h.t.Helper()
	r, err := h.store.GetReservation(h.ctx, id)
	require.NoError(h.t, err)
	require.NotNil(h.t, r)
	return *r
}

func (h *hotel) room(id booking.RoomID) booking.Room {
	h.t.Helper()
	r, err := h.store.GetRoom(h.ctx, id)
	require.NoError(h.t, err)
	require.NotNil(h.t, r)
	return *r
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(s string) booking.Date {
	return booking.MustParseDate(s)
}
