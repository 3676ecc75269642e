package booking_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hotel-engine/booking"
)

// =============================================================================
// OVERLAP & PRICING
// =============================================================================

func TestOverlaps_HalfOpenIntervals(t *testing.T) {
	tests := []struct {
		name           string
		aS, aE, bS, bE string
		want           bool
	}{
		{"identical", "2025-12-05", "2025-12-10", "2025-12-05", "2025-12-10", true},
		{"inside", "2025-12-05", "2025-12-10", "2025-12-06", "2025-12-09", true},
		{"straddles start", "2025-12-05", "2025-12-10", "2025-12-01", "2025-12-06", true},
		{"straddles end", "2025-12-05", "2025-12-10", "2025-12-09", "2025-12-15", true},
		{"adjacent after", "2025-12-05", "2025-12-10", "2025-12-10", "2025-12-15", false},
		{"adjacent before", "2025-12-05", "2025-12-10", "2025-12-01", "2025-12-05", false},
		{"disjoint", "2025-12-05", "2025-12-10", "2026-01-01", "2026-01-03", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := booking.Overlaps(date(tt.aS), date(tt.aE), date(tt.bS), date(tt.bE))
			assert.Equal(t, tt.want, got)
			// symmetric
			assert.Equal(t, tt.want, booking.Overlaps(date(tt.bS), date(tt.bE), date(tt.aS), date(tt.aE)))
		})
	}
}

func TestComputeTotal_NightsTimesRate(t *testing.T) {
	total, err := booking.ComputeTotal(date("2025-12-05"), date("2025-12-10"), money("87.50"))
	require.NoError(t, err)
	assert.True(t, total.Equal(money("437.50")), "got %s", total)

	// Across a month boundary
	total, err = booking.ComputeTotal(date("2025-12-30"), date("2026-01-02"), money("50"))
	require.NoError(t, err)
	assert.True(t, total.Equal(money("150")), "got %s", total)
}

func TestNights_LongRangesCountEveryDay(t *testing.T) {
	// GIVEN: Stays far longer than a time.Duration can hold
	// WHEN: Counting nights
	// THEN: The count is exact and the total follows it

	n, err := booking.Nights(date("2025-01-01"), date("2400-01-01"))
	require.NoError(t, err)
	assert.Equal(t, 136965, n)

	total, err := booking.ComputeTotal(date("2025-01-01"), date("2400-01-01"), money("1"))
	require.NoError(t, err)
	assert.True(t, total.Equal(money("136965")), "got %s", total)

	assert.Equal(t, 3651693, booking.DaysBetween(date("0002-01-01"), date("9999-12-31")))
	assert.Equal(t, -3651693, booking.DaysBetween(date("9999-12-31"), date("0002-01-01")))
	assert.Equal(t, 2, booking.DaysBetween(date("2024-02-28"), date("2024-03-01")), "leap day")
}

func TestComputeTotal_ExitNotAfterEntryFails(t *testing.T) {
	for _, exit := range []string{"2025-12-05", "2025-12-04"} {
		_, err := booking.ComputeTotal(date("2025-12-05"), date(exit), money("50"))
		assert.ErrorIs(t, err, booking.ErrInvalidRange, "exit %s", exit)
	}
}

func TestReprice_RoundsToCents(t *testing.T) {
	rate := booking.NightlyRate(money("100"), 3) // 33.333...
	assert.True(t, booking.Reprice(2, rate).Equal(money("66.67")))
	assert.True(t, booking.Reprice(0, money("50")).Equal(money("50")), "never fewer than one night")
}

// =============================================================================
// AVAILABILITY
// =============================================================================

func TestAvailability_DecemberBooking(t *testing.T) {
	// GIVEN: Room booked Dec 5 -> Dec 10
	// WHEN: Checking neighbouring and overlapping intervals
	// THEN: Only the overlapping one is refused; adjacency is fine

	h := newHotel(t, "2025-11-01")
	room := h.addRoom("101", "50")
	existing := h.mustBook(room, "2025-12-05", "2025-12-10")

	ok, err := booking.IsAvailable(h.ctx, h.store, room, date("2025-12-06"), date("2025-12-09"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = booking.IsAvailable(h.ctx, h.store, room, date("2025-12-10"), date("2025-12-15"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = booking.IsAvailable(h.ctx, h.store, room, date("2025-12-01"), date("2025-12-05"))
	require.NoError(t, err)
	assert.True(t, ok)

	conflict, err := booking.FindConflict(h.ctx, h.store, room,
		booking.Period{Start: date("2025-12-06"), End: date("2025-12-09")}, "")
	require.NoError(t, err)
	require.NotNil(t, conflict)
	assert.Equal(t, existing.ID, conflict.ID)
}

func TestAvailability_TerminalReservationsNeverConflict(t *testing.T) {
	h := newHotel(t, "2025-11-01")
	room := h.addRoom("101", "50")
	res := h.mustBook(room, "2025-12-05", "2025-12-10")
	_, err := h.svc.CancelReservation(h.ctx, res.ID)
	require.NoError(t, err)

	ok, err := booking.IsAvailable(h.ctx, h.store, room, date("2025-12-05"), date("2025-12-10"))
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = h.book(room, "2025-12-05", "2025-12-10")
	assert.NoError(t, err, "a cancelled stay frees its interval")
}

func TestCreate_SecondOverlappingBookingConflicts(t *testing.T) {
	// GIVEN: A pending booking
	// WHEN: Another booking overlaps it on the same room
	// THEN: Conflict, and the first booking is untouched

	h := newHotel(t, "2025-11-01")
	room := h.addRoom("101", "50")
	first := h.mustBook(room, "2025-12-05", "2025-12-10")

	_, err := h.book(room, "2025-12-08", "2025-12-12")
	require.ErrorIs(t, err, booking.ErrConflict)
	var conflict *booking.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, first.ID, conflict.ExistingID)

	after := h.reservation(first.ID)
	assert.Equal(t, booking.StatusPending, after.Status)
	assert.True(t, after.Total.Equal(first.Total))

	all, err := h.store.ListReservations(h.ctx, booking.ReservationFilter{RoomID: room})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAvailableRooms_ExcludesBusyRooms(t *testing.T) {
	h := newHotel(t, "2025-11-01")
	busy := h.addRoom("101", "50")
	free := h.addRoom("102", "55")
	h.mustBook(busy, "2025-12-05", "2025-12-10")

	rooms, err := booking.AvailableRooms(h.ctx, h.store, date("2025-12-07"), date("2025-12-08"))
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, free, rooms[0].ID)

	_, err = booking.AvailableRooms(h.ctx, h.store, date("2025-12-08"), date("2025-12-07"))
	assert.ErrorIs(t, err, booking.ErrInvalidRange)
}

func TestCheckAvailability_ReportsConflictAndFreeRooms(t *testing.T) {
	h := newHotel(t, "2025-11-01")
	room := h.addRoom("101", "50")
	other := h.addRoom("102", "55")
	existing := h.mustBook(room, "2025-12-05", "2025-12-10")

	a, err := h.svc.CheckAvailability(h.ctx, room, date("2025-12-09"), date("2025-12-11"))
	require.NoError(t, err)
	assert.False(t, a.Available)
	require.NotNil(t, a.Conflict)
	assert.Equal(t, existing.ID, a.Conflict.ID)
	assert.Equal(t, 2, a.Nights)
	require.Len(t, a.FreeRooms, 1)
	assert.Equal(t, other, a.FreeRooms[0].ID)

	_, err = h.svc.CheckAvailability(h.ctx, "nope", date("2025-12-09"), date("2025-12-11"))
	assert.ErrorIs(t, err, booking.ErrNotFound)
}
