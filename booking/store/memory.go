// Package store provides an in-memory booking.TxStore.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/warp/hotel-engine/booking"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// tables is the raw data. Its methods never lock; callers do.
type tables struct {
	rooms        map[booking.RoomID]booking.Room
	clients      map[booking.ClientID]booking.Client
	products     map[booking.ProductID]booking.Product
	reservations map[booking.ReservationID]booking.Reservation
	consumptions map[booking.ConsumptionID]booking.Consumption
	order        map[string]int64 // insertion sequence, breaks sort ties
	seq          int64
}

func newTables() *tables {
	return &tables{
		rooms:        make(map[booking.RoomID]booking.Room),
		clients:      make(map[booking.ClientID]booking.Client),
		products:     make(map[booking.ProductID]booking.Product),
		reservations: make(map[booking.ReservationID]booking.Reservation),
		consumptions: make(map[booking.ConsumptionID]booking.Consumption),
		order:        make(map[string]int64),
	}
}

func (t *tables) clone() *tables {
	c := newTables()
	for k, v := range t.rooms {
		c.rooms[k] = v
	}
	for k, v := range t.clients {
		c.clients[k] = v
	}
	for k, v := range t.products {
		c.products[k] = v
	}
	for k, v := range t.reservations {
		c.reservations[k] = v
	}
	for k, v := range t.consumptions {
		c.consumptions[k] = v
	}
	for k, v := range t.order {
		c.order[k] = v
	}
	c.seq = t.seq
	return c
}

func (t *tables) touch(id string) {
	if _, ok := t.order[id]; !ok {
		t.seq++
		t.order[id] = t.seq
	}
}

// Rooms

func (t *tables) GetRoom(_ context.Context, id booking.RoomID) (*booking.Room, error) {
	r, ok := t.rooms[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (t *tables) ListRooms(_ context.Context) ([]booking.Room, error) {
	out := make([]booking.Room, 0, len(t.rooms))
	for _, r := range t.rooms {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (t *tables) SaveRoom(_ context.Context, r booking.Room) error {
	for _, other := range t.rooms {
		if other.ID != r.ID && other.Number == r.Number {
			return fmt.Errorf("%w: room number %s already exists", booking.ErrConflict, r.Number)
		}
	}
	t.rooms[r.ID] = r
	t.touch(string(r.ID))
	return nil
}

func (t *tables) DeleteRoom(ctx context.Context, id booking.RoomID) error {
	delete(t.rooms, id)
	for rid, r := range t.reservations {
		if r.RoomID == id {
			_ = t.DeleteReservation(ctx, rid)
		}
	}
	return nil
}

// Clients

func (t *tables) GetClient(_ context.Context, id booking.ClientID) (*booking.Client, error) {
	c, ok := t.clients[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (t *tables) ListClients(_ context.Context) ([]booking.Client, error) {
	out := make([]booking.Client, 0, len(t.clients))
	for _, c := range t.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (t *tables) SaveClient(_ context.Context, c booking.Client) error {
	for _, other := range t.clients {
		if other.ID != c.ID && other.DocumentID == c.DocumentID {
			return fmt.Errorf("%w: client document %s already exists", booking.ErrConflict, c.DocumentID)
		}
	}
	t.clients[c.ID] = c
	t.touch(string(c.ID))
	return nil
}

func (t *tables) DeleteClient(ctx context.Context, id booking.ClientID) error {
	delete(t.clients, id)
	for rid, r := range t.reservations {
		if r.ClientID == id {
			_ = t.DeleteReservation(ctx, rid)
		}
	}
	return nil
}

// Products

func (t *tables) GetProduct(_ context.Context, id booking.ProductID) (*booking.Product, error) {
	p, ok := t.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (t *tables) ListProducts(_ context.Context, activeOnly bool) ([]booking.Product, error) {
	out := make([]booking.Product, 0, len(t.products))
	for _, p := range t.products {
		if activeOnly && !p.Active {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (t *tables) SaveProduct(_ context.Context, p booking.Product) error {
	for _, other := range t.products {
		if other.ID != p.ID && other.Name == p.Name {
			return fmt.Errorf("%w: product %s already exists", booking.ErrConflict, p.Name)
		}
	}
	t.products[p.ID] = p
	t.touch(string(p.ID))
	return nil
}

func (t *tables) DeleteProduct(_ context.Context, id booking.ProductID) error {
	delete(t.products, id)
	return nil
}

// Reservations

func (t *tables) GetReservation(_ context.Context, id booking.ReservationID) (*booking.Reservation, error) {
	r, ok := t.reservations[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (t *tables) ListReservations(_ context.Context, f booking.ReservationFilter) ([]booking.Reservation, error) {
	out := make([]booking.Reservation, 0)
	for _, r := range t.reservations {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CheckIn.Equal(out[j].CheckIn) {
			return out[i].CheckIn.Before(out[j].CheckIn)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return t.order[string(out[i].ID)] < t.order[string(out[j].ID)]
	})
	return out, nil
}

func (t *tables) SaveReservation(_ context.Context, r booking.Reservation) error {
	t.reservations[r.ID] = r
	t.touch(string(r.ID))
	return nil
}

func (t *tables) DeleteReservation(_ context.Context, id booking.ReservationID) error {
	delete(t.reservations, id)
	for cid, c := range t.consumptions {
		if c.ReservationID == id {
			delete(t.consumptions, cid)
		}
	}
	return nil
}

// Consumptions

func (t *tables) GetConsumption(_ context.Context, id booking.ConsumptionID) (*booking.Consumption, error) {
	c, ok := t.consumptions[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (t *tables) ListConsumptions(_ context.Context, id booking.ReservationID) ([]booking.Consumption, error) {
	out := make([]booking.Consumption, 0)
	for _, c := range t.consumptions {
		if c.ReservationID == id {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return t.order[string(out[i].ID)] < t.order[string(out[j].ID)]
	})
	return out, nil
}

func (t *tables) SaveConsumption(_ context.Context, c booking.Consumption) error {
	if _, ok := t.reservations[c.ReservationID]; !ok {
		return fmt.Errorf("consumption %s references unknown reservation %s", c.ID, c.ReservationID)
	}
	t.consumptions[c.ID] = c
	t.touch(string(c.ID))
	return nil
}

func (t *tables) DeleteConsumption(_ context.Context, id booking.ConsumptionID) error {
	delete(t.consumptions, id)
	return nil
}

// =============================================================================
// MEMORY - Locked access for callers outside a transaction
// =============================================================================

type Memory struct {
	mu   sync.RWMutex
	data *tables
}

func NewMemory() *Memory {
	return &Memory{data: newTables()}
}

func (m *Memory) GetRoom(ctx context.Context, id booking.RoomID) (*booking.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.GetRoom(ctx, id)
}

func (m *Memory) ListRooms(ctx context.Context) ([]booking.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.ListRooms(ctx)
}

func (m *Memory) SaveRoom(ctx context.Context, r booking.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.SaveRoom(ctx, r)
}

func (m *Memory) DeleteRoom(ctx context.Context, id booking.RoomID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.DeleteRoom(ctx, id)
}

func (m *Memory) GetClient(ctx context.Context, id booking.ClientID) (*booking.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.GetClient(ctx, id)
}

func (m *Memory) ListClients(ctx context.Context) ([]booking.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.ListClients(ctx)
}

func (m *Memory) SaveClient(ctx context.Context, c booking.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.SaveClient(ctx, c)
}

func (m *Memory) DeleteClient(ctx context.Context, id booking.ClientID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.DeleteClient(ctx, id)
}

func (m *Memory) GetProduct(ctx context.Context, id booking.ProductID) (*booking.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.GetProduct(ctx, id)
}

func (m *Memory) ListProducts(ctx context.Context, activeOnly bool) ([]booking.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.ListProducts(ctx, activeOnly)
}

func (m *Memory) SaveProduct(ctx context.Context, p booking.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.SaveProduct(ctx, p)
}

func (m *Memory) DeleteProduct(ctx context.Context, id booking.ProductID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.DeleteProduct(ctx, id)
}

func (m *Memory) GetReservation(ctx context.Context, id booking.ReservationID) (*booking.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.GetReservation(ctx, id)
}

func (m *Memory) ListReservations(ctx context.Context, f booking.ReservationFilter) ([]booking.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.ListReservations(ctx, f)
}

func (m *Memory) SaveReservation(ctx context.Context, r booking.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.SaveReservation(ctx, r)
}

func (m *Memory) DeleteReservation(ctx context.Context, id booking.ReservationID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.DeleteReservation(ctx, id)
}

func (m *Memory) GetConsumption(ctx context.Context, id booking.ConsumptionID) (*booking.Consumption, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.GetConsumption(ctx, id)
}

func (m *Memory) ListConsumptions(ctx context.Context, id booking.ReservationID) ([]booking.Consumption, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.ListConsumptions(ctx, id)
}

func (m *Memory) SaveConsumption(ctx context.Context, c booking.Consumption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.SaveConsumption(ctx, c)
}

func (m *Memory) DeleteConsumption(ctx context.Context, id booking.ConsumptionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.DeleteConsumption(ctx, id)
}

// Reset clears all data (for testing/demo).
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = newTables()
	return nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
// The write lock is held throughout, so transactions are serial.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(booking.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	// Snapshot current state
	snapshot := tm.data.clone()

	// The view is the unlocked tables; the lock above guards them.
	if err := fn(tm.data); err != nil {
		// Rollback
		tm.data = snapshot
		return err
	}

	// Commit (already done via direct writes)
	return nil
}

var (
	_ booking.Store   = (*tables)(nil)
	_ booking.TxStore = (*TxMemory)(nil)
)
