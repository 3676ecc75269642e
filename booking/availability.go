package booking

import (
	"context"
	"fmt"
	"sort"
)

// =============================================================================
// AVAILABILITY ORACLE
// =============================================================================

// IsAvailable returns false iff a Pending or CheckedIn reservation of room
// overlaps [start, end). Callers validate end > start first.
func IsAvailable(ctx context.Context, r Reader, room RoomID, start, end Date) (bool, error) {
	existing, err := FindConflict(ctx, r, room, Period{Start: start, End: end}, "")
	if err != nil {
		return false, err
	}
	return existing == nil, nil
}

// FindConflict returns the first active reservation on room overlapping p,
// ignoring the reservation named by exclude.
func FindConflict(ctx context.Context, r Reader, room RoomID, p Period, exclude ReservationID) (*Reservation, error) {
	candidates, err := r.ListReservations(ctx, ReservationFilter{
		RoomID:   room,
		Statuses: ActiveStatuses,
		Overlap:  &p,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load reservations for room %s: %w", room, err)
	}
	for i := range candidates {
		c := candidates[i]
		if c.ID == exclude {
			continue
		}
		// Stores filter already; re-check so a loose index scan can't leak a false conflict.
		if c.Status.Holds() && Overlaps(c.CheckIn, c.CheckOut, p.Start, p.End) {
			return &c, nil
		}
	}
	return nil, nil
}

// ensureAvailable turns a conflict into a ConflictError.
func ensureAvailable(ctx context.Context, r Reader, room RoomID, p Period, exclude ReservationID) error {
	existing, err := FindConflict(ctx, r, room, p, exclude)
	if err != nil {
		return err
	}
	if existing != nil {
		return &ConflictError{RoomID: room, CheckIn: p.Start, CheckOut: p.End, ExistingID: existing.ID}
	}
	return nil
}

// AvailableRooms lists every room with no active stay overlapping [start, end).
func AvailableRooms(ctx context.Context, r Reader, start, end Date) ([]Room, error) {
	if _, err := Nights(start, end); err != nil {
		return nil, err
	}
	rooms, err := r.ListRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	p := Period{Start: start, End: end}
	busy, err := r.ListReservations(ctx, ReservationFilter{Statuses: ActiveStatuses, Overlap: &p})
	if err != nil {
		return nil, fmt.Errorf("failed to load reservations: %w", err)
	}
	taken := make(map[RoomID]bool, len(busy))
	for _, res := range busy {
		taken[res.RoomID] = true
	}

	free := make([]Room, 0, len(rooms))
	for _, room := range rooms {
		if !taken[room.ID] {
			free = append(free, room)
		}
	}
	return free, nil
}

// ReassignTargets lists the rooms res can be moved to: every other room that
// projects AVAILABLE on today and has no active stay overlapping res. It
// applies the same checks as Manager.ReassignRoom, so each listed room is
// accepted there.
func ReassignTargets(ctx context.Context, r Reader, res Reservation, today Date) ([]Room, error) {
	p := res.Period()
	free, err := AvailableRooms(ctx, r, p.Start, p.End)
	if err != nil {
		return nil, err
	}
	views, err := ProjectRoomStates(ctx, r, today)
	if err != nil {
		return nil, err
	}
	ready := make(map[RoomID]bool, len(views))
	for _, v := range views {
		ready[v.Room.ID] = v.Status == EffectiveAvailable
	}

	out := make([]Room, 0, len(free))
	for _, room := range free {
		if room.ID != res.RoomID && ready[room.ID] {
			out = append(out, room)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return lessRoomNumber(out[i].Number, out[j].Number) })
	return out, nil
}
