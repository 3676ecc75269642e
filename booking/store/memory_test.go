package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hotel-engine/booking"
)

func seed(t *testing.T, s *TxMemory) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.SaveRoom(ctx, booking.Room{
		ID: "room-101", Number: "101", Category: booking.CategorySimple,
		BaseRate: decimal.NewFromInt(50), Status: booking.RoomAvailable,
	}))
	require.NoError(t, s.SaveClient(ctx, booking.Client{ID: "client-1", DocumentID: "30111222", FullName: "Ana Gómez"}))
}

func stay(id, in, out string, created time.Time) booking.Reservation {
	return booking.Reservation{
		ID: booking.ReservationID(id), RoomID: "room-101", ClientID: "client-1",
		CheckIn: booking.MustParseDate(in), CheckOut: booking.MustParseDate(out),
		Total: decimal.NewFromInt(100), Status: booking.StatusPending,
		CreatedAt: created, UpdatedAt: created,
	}
}

func TestWithTx_RollbackRestoresSnapshot(t *testing.T) {
	// GIVEN: A store with one room
	// WHEN: A transaction edits the room, adds a reservation, then fails
	// THEN: Neither change survives

	s := NewTxMemory()
	seed(t, s)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx booking.Store) error {
		room, err := tx.GetRoom(ctx, "room-101")
		require.NoError(t, err)
		room.Status = booking.RoomMaintenance
		require.NoError(t, tx.SaveRoom(ctx, *room))
		require.NoError(t, tx.SaveReservation(ctx, stay("res-1", "2025-12-01", "2025-12-02", time.Now())))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	room, err := s.GetRoom(ctx, "room-101")
	require.NoError(t, err)
	assert.Equal(t, booking.RoomAvailable, room.Status)
	res, err := s.GetReservation(ctx, "res-1")
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestWithTx_CommitKeepsWrites(t *testing.T) {
	s := NewTxMemory()
	seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.WithTx(ctx, func(tx booking.Store) error {
		return tx.SaveReservation(ctx, stay("res-1", "2025-12-01", "2025-12-02", time.Now()))
	}))

	res, err := s.GetReservation(ctx, "res-1")
	require.NoError(t, err)
	assert.NotNil(t, res)
}

func TestListReservations_OrderedByCheckInThenCreation(t *testing.T) {
	s := NewTxMemory()
	seed(t, s)
	ctx := context.Background()
	t0 := time.Date(2025, 11, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveReservation(ctx, stay("late", "2025-12-10", "2025-12-11", t0)))
	require.NoError(t, s.SaveReservation(ctx, stay("second", "2025-12-01", "2025-12-02", t0.Add(time.Minute))))
	require.NoError(t, s.SaveReservation(ctx, stay("first", "2025-12-01", "2025-12-02", t0)))
	require.NoError(t, s.SaveReservation(ctx, stay("tie", "2025-12-01", "2025-12-02", t0.Add(time.Minute))))

	list, err := s.ListReservations(ctx, booking.ReservationFilter{})
	require.NoError(t, err)
	var ids []booking.ReservationID
	for _, r := range list {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []booking.ReservationID{"first", "second", "tie", "late"}, ids)
}

func TestDeleteClient_CascadesToReservationsAndConsumptions(t *testing.T) {
	s := NewTxMemory()
	seed(t, s)
	ctx := context.Background()
	require.NoError(t, s.SaveReservation(ctx, stay("res-1", "2025-12-01", "2025-12-02", time.Now())))
	require.NoError(t, s.SaveConsumption(ctx, booking.Consumption{
		ID: "c1", ReservationID: "res-1", ProductID: "p1", Quantity: 1,
		UnitPrice: decimal.NewFromInt(3), Date: booking.MustParseDate("2025-12-01"),
	}))

	require.NoError(t, s.DeleteClient(ctx, "client-1"))

	res, err := s.GetReservation(ctx, "res-1")
	require.NoError(t, err)
	assert.Nil(t, res)
	c, err := s.GetConsumption(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestSaveConsumption_RequiresReservation(t *testing.T) {
	s := NewTxMemory()
	err := s.SaveConsumption(context.Background(), booking.Consumption{ID: "c1", ReservationID: "ghost", Quantity: 1})
	assert.Error(t, err)
}

func TestReset(t *testing.T) {
	s := NewTxMemory()
	seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.Reset(ctx))

	rooms, err := s.ListRooms(ctx)
	require.NoError(t, err)
	assert.Empty(t, rooms)

	// Unique keys are free again after a reset.
	seed(t, s)
}
