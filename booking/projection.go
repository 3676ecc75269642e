/*
projection.go - Effective room state for any date

PURPOSE:
  Computes what a room "is" on a given day from reservation data, instead of
  trusting the room's stored status. A lapsed or edited reservation can never
  leave a room stuck as occupied, and any date can be queried, not only today.

PRECEDENCE (first match wins):
  1. Manual MAINTENANCE / CLEANING    -> reported verbatim
  2. CHECKED_IN stay covering date    -> OCCUPIED
  3. PENDING stay covering date       -> RESERVED
  4. otherwise                        -> AVAILABLE

  "Covering" is entry <= date < exit.

SEE ALSO:
  - availability.go: Overlap primitive
  - service.go: ListRoomsAtDate runs the sweep before projecting
*/
package booking

import (
	"context"
	"fmt"
	"sort"
)

// EffectiveStatus is the displayed state of a room.
type EffectiveStatus string

const (
	EffectiveAvailable   EffectiveStatus = "AVAILABLE"
	EffectiveOccupied    EffectiveStatus = "OCCUPIED"
	EffectiveReserved    EffectiveStatus = "RESERVED"
	EffectiveCleaning    EffectiveStatus = "CLEANING"
	EffectiveMaintenance EffectiveStatus = "MAINTENANCE"
)

// UnknownClientName is shown when a reservation's client record is gone.
const UnknownClientName = "Unknown client"

// StaySummary is the part of a reservation shown on a room card.
type StaySummary struct {
	ReservationID ReservationID
	CheckIn       Date
	CheckOut      Date
	ClientName    string
	Status        ReservationStatus
}

// RoomView is a room as seen on a specific date.
type RoomView struct {
	Room     Room
	Date     Date
	Status   EffectiveStatus
	Current  *StaySummary
	Upcoming []StaySummary
}

// ProjectRoomStates evaluates every room at date, ordered by room number.
func ProjectRoomStates(ctx context.Context, r Reader, date Date) ([]RoomView, error) {
	rooms, err := r.ListRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	// One query: every active stay that has not ended by date.
	stays, err := r.ListReservations(ctx, ReservationFilter{
		Statuses: ActiveStatuses,
		Overlap:  &Period{Start: date, End: farFuture},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load reservations: %w", err)
	}

	byRoom := make(map[RoomID][]Reservation)
	for _, s := range stays {
		byRoom[s.RoomID] = append(byRoom[s.RoomID], s)
	}

	names := newClientNames(r)
	views := make([]RoomView, 0, len(rooms))
	for _, room := range rooms {
		v, err := project(ctx, room, byRoom[room.ID], date, names)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}

	sort.SliceStable(views, func(i, j int) bool {
		return lessRoomNumber(views[i].Room.Number, views[j].Room.Number)
	})
	return views, nil
}

// ProjectRoom evaluates a single room at date.
func ProjectRoom(ctx context.Context, r Reader, id RoomID, date Date) (*RoomView, error) {
	room, err := r.GetRoom(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return nil, notFound("room", string(id))
	}
	stays, err := r.ListReservations(ctx, ReservationFilter{
		RoomID:   id,
		Statuses: ActiveStatuses,
		Overlap:  &Period{Start: date, End: farFuture},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load reservations: %w", err)
	}
	v, err := project(ctx, *room, stays, date, newClientNames(r))
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// farFuture bounds "from date onwards" queries.
var farFuture = NewDate(9999, 12, 31)

func project(ctx context.Context, room Room, stays []Reservation, date Date, names *clientNames) (RoomView, error) {
	v := RoomView{Room: room, Date: date, Upcoming: []StaySummary{}}

	var checkedIn, pending *Reservation
	for i := range stays {
		s := &stays[i]
		if s.Covers(date) {
			switch s.Status {
			case StatusCheckedIn:
				if checkedIn == nil {
					checkedIn = s
				}
			case StatusPending:
				if pending == nil {
					pending = s
				}
			case StatusFinalized, StatusCancelled:
			}
			continue
		}
		if s.CheckIn.After(date) && s.Status.Holds() {
			sum, err := names.summary(ctx, *s)
			if err != nil {
				return v, err
			}
			v.Upcoming = append(v.Upcoming, sum)
		}
	}
	sort.SliceStable(v.Upcoming, func(i, j int) bool {
		return v.Upcoming[i].CheckIn.Before(v.Upcoming[j].CheckIn)
	})

	switch {
	case room.Status == RoomMaintenance:
		v.Status = EffectiveMaintenance
	case room.Status == RoomCleaning:
		v.Status = EffectiveCleaning
	case checkedIn != nil:
		v.Status = EffectiveOccupied
		sum, err := names.summary(ctx, *checkedIn)
		if err != nil {
			return v, err
		}
		v.Current = &sum
	case pending != nil:
		v.Status = EffectiveReserved
		sum, err := names.summary(ctx, *pending)
		if err != nil {
			return v, err
		}
		v.Current = &sum
	default:
		v.Status = EffectiveAvailable
	}
	return v, nil
}

// clientNames memoizes client lookups for one projection.
type clientNames struct {
	r     Reader
	cache map[ClientID]string
}

func newClientNames(r Reader) *clientNames {
	return &clientNames{r: r, cache: make(map[ClientID]string)}
}

func (c *clientNames) name(ctx context.Context, id ClientID) (string, error) {
	if n, ok := c.cache[id]; ok {
		return n, nil
	}
	client, err := c.r.GetClient(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to get client %s: %w", id, err)
	}
	n := UnknownClientName
	if client != nil {
		n = client.FullName
	}
	c.cache[id] = n
	return n, nil
}

func (c *clientNames) summary(ctx context.Context, r Reservation) (StaySummary, error) {
	n, err := c.name(ctx, r.ClientID)
	if err != nil {
		return StaySummary{}, err
	}
	return StaySummary{
		ReservationID: r.ID,
		CheckIn:       r.CheckIn,
		CheckOut:      r.CheckOut,
		ClientName:    n,
		Status:        r.Status,
	}, nil
}

// lessRoomNumber orders "2" before "10", falling back to string order.
func lessRoomNumber(a, b string) bool {
	if len(a) != len(b) && isDigits(a) && isDigits(b) {
		return len(a) < len(b)
	}
	return a < b
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
