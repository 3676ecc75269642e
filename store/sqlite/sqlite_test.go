package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hotel-engine/booking"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func d(s string) booking.Date { return booking.MustParseDate(s) }

func seedRoomAndClient(t *testing.T, s *Store) (booking.RoomID, booking.ClientID) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.SaveRoom(ctx, booking.Room{
		ID: "room-101", Number: "101", Category: booking.CategorySimple,
		BaseRate: decimal.RequireFromString("50.00"), Status: booking.RoomAvailable,
	}))
	require.NoError(t, s.SaveClient(ctx, booking.Client{
		ID: "client-1", DocumentID: "30111222", FullName: "Ana Gómez", Email: "ana@example.com",
	}))
	return "room-101", "client-1"
}

func reservationAt(id string, room booking.RoomID, client booking.ClientID, in, out string, status booking.ReservationStatus) booking.Reservation {
	created := time.Date(2025, 11, 1, 9, 0, 0, 0, time.UTC)
	return booking.Reservation{
		ID: booking.ReservationID(id), RoomID: room, ClientID: client,
		CheckIn: d(in), CheckOut: d(out),
		Total:  decimal.RequireFromString("250.00"),
		Status: status, CreatedAt: created, UpdatedAt: created,
	}
}

// =============================================================================
// RECORD ROUND TRIPS
// =============================================================================

func TestStore_ReservationRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	room, client := seedRoomAndClient(t, s)

	checkedIn := time.Date(2025, 12, 5, 14, 30, 0, 123456789, time.UTC)
	res := reservationAt("res-1", room, client, "2025-12-05", "2025-12-10", booking.StatusCheckedIn)
	res.Total = decimal.RequireFromString("437.50")
	res.CheckedInAt = &checkedIn
	require.NoError(t, s.SaveReservation(ctx, res))

	got, err := s.GetReservation(ctx, "res-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, d("2025-12-05"), got.CheckIn)
	assert.Equal(t, d("2025-12-10"), got.CheckOut)
	assert.True(t, got.Total.Equal(decimal.RequireFromString("437.5")))
	assert.Equal(t, booking.StatusCheckedIn, got.Status)
	require.NotNil(t, got.CheckedInAt)
	assert.True(t, got.CheckedInAt.Equal(checkedIn))
	assert.Nil(t, got.CheckedOutAt)
	assert.True(t, got.CreatedAt.Equal(res.CreatedAt))

	missing, err := s.GetReservation(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_UniqueKeysMapToConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedRoomAndClient(t, s)

	err := s.SaveRoom(ctx, booking.Room{
		ID: "room-other", Number: "101", Category: booking.CategoryDouble,
		BaseRate: decimal.NewFromInt(80), Status: booking.RoomAvailable,
	})
	assert.ErrorIs(t, err, booking.ErrConflict)

	err = s.SaveClient(ctx, booking.Client{ID: "client-2", DocumentID: "30111222", FullName: "Copy"})
	assert.ErrorIs(t, err, booking.ErrConflict)

	require.NoError(t, s.SaveProduct(ctx, booking.Product{ID: "p1", Name: "Water", Price: decimal.NewFromInt(2), Active: true}))
	err = s.SaveProduct(ctx, booking.Product{ID: "p2", Name: "Water", Price: decimal.NewFromInt(3), Active: true})
	assert.ErrorIs(t, err, booking.ErrConflict)

	// Updating a record in place is not a conflict.
	require.NoError(t, s.SaveClient(ctx, booking.Client{ID: "client-1", DocumentID: "30111222", FullName: "Ana G."}))
}

func TestStore_ListProductsActiveOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveProduct(ctx, booking.Product{ID: "p1", Name: "Water", Price: decimal.NewFromInt(2), Active: true}))
	require.NoError(t, s.SaveProduct(ctx, booking.Product{ID: "p2", Name: "Cocktail", Price: decimal.NewFromInt(8), Active: false}))

	all, err := s.ListProducts(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := s.ListProducts(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, booking.ProductID("p1"), active[0].ID)
}

// =============================================================================
// FILTERS
// =============================================================================

func TestStore_ListReservationsMatchesFilterSemantics(t *testing.T) {
	// GIVEN: A spread of reservations
	// WHEN: Listing with each filter field
	// THEN: SQL returns exactly what ReservationFilter.Matches selects

	s := newTestStore(t)
	ctx := context.Background()
	room, client := seedRoomAndClient(t, s)
	require.NoError(t, s.SaveRoom(ctx, booking.Room{
		ID: "room-102", Number: "102", Category: booking.CategorySimple,
		BaseRate: decimal.NewFromInt(50), Status: booking.RoomAvailable,
	}))

	all := []booking.Reservation{
		reservationAt("a", room, client, "2025-12-01", "2025-12-03", booking.StatusFinalized),
		reservationAt("b", room, client, "2025-12-05", "2025-12-10", booking.StatusPending),
		reservationAt("c", "room-102", client, "2025-12-05", "2025-12-06", booking.StatusCheckedIn),
		reservationAt("e", "room-102", client, "2025-12-10", "2025-12-15", booking.StatusCancelled),
	}
	for _, r := range all {
		require.NoError(t, s.SaveReservation(ctx, r))
	}

	filters := map[string]booking.ReservationFilter{
		"room":      {RoomID: "room-102"},
		"client":    {ClientID: client},
		"statuses":  {Statuses: booking.ActiveStatuses},
		"from":      {From: d("2025-12-05")},
		"to":        {To: d("2025-12-06")},
		"checkInOn": {CheckInOn: d("2025-12-05")},
		"endsBy":    {EndsBy: d("2025-12-10")},
		"overlap":   {Overlap: &booking.Period{Start: d("2025-12-09"), End: d("2025-12-11")}},
		"combined":  {RoomID: room, Statuses: booking.ActiveStatuses, Overlap: &booking.Period{Start: d("2025-12-01"), End: d("2025-12-31")}},
	}
	for name, f := range filters {
		t.Run(name, func(t *testing.T) {
			var want []booking.ReservationID
			for _, r := range all {
				if f.Matches(r) {
					want = append(want, r.ID)
				}
			}
			got, err := s.ListReservations(ctx, f)
			require.NoError(t, err)
			var ids []booking.ReservationID
			for _, r := range got {
				ids = append(ids, r.ID)
			}
			assert.ElementsMatch(t, want, ids)
		})
	}
}

// =============================================================================
// TRANSACTIONS & CASCADES
// =============================================================================

func TestWithTx_RollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx booking.Store) error {
		require.NoError(t, tx.SaveRoom(ctx, booking.Room{
			ID: "room-x", Number: "999", Category: booking.CategorySuite,
			BaseRate: decimal.NewFromInt(150), Status: booking.RoomAvailable,
		}))
		got, err := tx.GetRoom(ctx, "room-x")
		require.NoError(t, err)
		require.NotNil(t, got, "writes are visible inside the transaction")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.GetRoom(ctx, "room-x")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDelete_Cascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	room, client := seedRoomAndClient(t, s)
	require.NoError(t, s.SaveReservation(ctx, reservationAt("res-1", room, client, "2025-12-01", "2025-12-02", booking.StatusCancelled)))
	require.NoError(t, s.SaveConsumption(ctx, booking.Consumption{
		ID: "c1", ReservationID: "res-1", ProductID: "gone-product",
		Quantity: 1, UnitPrice: decimal.NewFromInt(4), Date: d("2025-12-01"),
	}))

	require.NoError(t, s.DeleteRoom(ctx, room))

	res, err := s.GetReservation(ctx, "res-1")
	require.NoError(t, err)
	assert.Nil(t, res)
	c, err := s.GetConsumption(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestReset_ClearsEverything(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	room, client := seedRoomAndClient(t, s)
	require.NoError(t, s.SaveReservation(ctx, reservationAt("res-1", room, client, "2025-12-01", "2025-12-02", booking.StatusPending)))

	require.NoError(t, s.Reset(ctx))

	rooms, err := s.ListRooms(ctx)
	require.NoError(t, err)
	assert.Empty(t, rooms)
	list, err := s.ListReservations(ctx, booking.ReservationFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

// =============================================================================
// ENGINE ON SQLITE
// =============================================================================

func TestService_EarlyCheckoutPersists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	room, client := seedRoomAndClient(t, s)

	clock := booking.ClockAt(d("2025-12-01"))
	svc := booking.NewService(s, clock, nil)
	res, err := svc.CreateReservation(ctx, booking.CreateRequest{
		RoomID: room, ClientID: client, CheckIn: d("2025-12-01"), CheckOut: d("2025-12-11"),
	})
	require.NoError(t, err)
	_, err = svc.CheckIn(ctx, res.ID, nil)
	require.NoError(t, err)

	svc.Manager.Clock = booking.ClockAt(d("2025-12-05"))
	_, err = svc.Checkout(ctx, res.ID)
	require.NoError(t, err)

	got, err := s.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusFinalized, got.Status)
	assert.Equal(t, "200.00", got.Total.StringFixed(2))
	assert.Equal(t, d("2025-12-05"), got.CheckOut)

	r, err := s.GetRoom(ctx, room)
	require.NoError(t, err)
	assert.Equal(t, booking.RoomAvailable, r.Status)
}

func TestService_ConcurrentBookingsYieldOneWinner(t *testing.T) {
	// GIVEN: A file-backed store, so connections really contend
	// WHEN: 10 goroutines book the same room and interval
	// THEN: Exactly one reservation exists

	s, err := New(filepath.Join(t.TempDir(), "hotel.db"))
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()
	room, client := seedRoomAndClient(t, s)
	svc := booking.NewService(s, booking.ClockAt(d("2025-12-01")), nil)

	const n = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateReservation(ctx, booking.CreateRequest{
				RoomID: room, ClientID: client, CheckIn: d("2025-12-05"), CheckOut: d("2025-12-10"),
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
			} else if errors.Is(err, booking.ErrConflict) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, n-1, conflicts)

	list, err := s.ListReservations(ctx, booking.ReservationFilter{RoomID: room})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestScanReservation_CorruptTimestampIsError(t *testing.T) {
	// GIVEN: A stored reservation whose created_at was damaged outside the store
	// WHEN: It is read back
	// THEN: The read fails instead of yielding a zero timestamp

	s := newTestStore(t)
	ctx := context.Background()
	room, client := seedRoomAndClient(t, s)
	require.NoError(t, s.SaveReservation(ctx, reservationAt("res-1", room, client, "2025-12-01", "2025-12-03", booking.StatusFinalized)))

	_, err := s.db.ExecContext(ctx, "UPDATE reservations SET created_at = 'yesterday' WHERE id = 'res-1'")
	require.NoError(t, err)

	_, err = s.GetReservation(ctx, "res-1")
	assert.ErrorContains(t, err, "corrupt created_at")

	_, err = s.ListReservations(ctx, booking.ReservationFilter{})
	assert.Error(t, err)
}
