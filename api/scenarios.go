/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with a realistic
	hotel for demos and manual testing. Every scenario is built through the
	booking service, so the data obeys the same rules as live traffic.

AVAILABLE SCENARIOS:

	demo-hotel:      25 rooms, guests in house, arrivals, history, a room
	                 being cleaned and one under maintenance
	empty-hotel:     Rooms and products only, no guests
	early-checkout:  One guest four nights into a ten night stay

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create rooms and the product catalog
 3. Create clients
 4. Book reservations relative to today
 5. Drive some of them through check-in, checkout or cancel

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "demo-hotel"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Resource handlers
  - booking/service.go: Operations the loaders call
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/warp/hotel-engine/booking"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "demo-hotel",
		Name:        "Demo Hotel",
		Description: "25 rooms with guests in house, arrivals today, upcoming stays and history",
	},
	{
		ID:          "empty-hotel",
		Name:        "Empty Hotel",
		Description: "Room inventory and product catalog without any guests",
	},
	{
		ID:          "early-checkout",
		Name:        "Early Checkout",
		Description: "Guest checked in four nights into a ten night stay at 50.00",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current, Description: "Currently loaded scenario"})
}

// LoadScenario wipes the database and loads a predefined scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	var load func(context.Context) error
	switch req.ScenarioID {
	case "demo-hotel":
		load = h.loadDemoHotelScenario
	case "empty-hotel":
		load = h.loadEmptyHotelScenario
	case "early-checkout":
		load = h.loadEarlyCheckoutScenario
	default:
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: fmt.Sprintf("unknown scenario %q", req.ScenarioID),
			Code:  string(booking.KindInvalidInput),
		})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	h.currentScenario = ""
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	if err := load(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}
	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data.
// POST /api/scenarios/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

type roomSeed struct {
	number   string
	category booking.RoomCategory
	rate     string
}

// inventory is the 25 room layout: ten simple rooms on the first floor,
// ten doubles on the second, five suites on the third.
func inventory() []roomSeed {
	var seeds []roomSeed
	for i := 1; i <= 10; i++ {
		seeds = append(seeds, roomSeed{fmt.Sprintf("1%02d", i), booking.CategorySimple, simpleRates[(i-1)%len(simpleRates)]})
	}
	for i := 1; i <= 10; i++ {
		seeds = append(seeds, roomSeed{fmt.Sprintf("2%02d", i), booking.CategoryDouble, doubleRates[(i-1)%len(doubleRates)]})
	}
	for i := 1; i <= 5; i++ {
		seeds = append(seeds, roomSeed{fmt.Sprintf("3%02d", i), booking.CategorySuite, suiteRates[i-1]})
	}
	return seeds
}

var (
	simpleRates = []string{"50.00", "55.00", "60.00"}
	doubleRates = []string{"80.00", "85.00", "90.00", "95.00"}
	suiteRates  = []string{"150.00", "160.00", "170.00", "175.00", "180.00"}
)

var catalog = []struct {
	name   string
	price  string
	active bool
}{
	{"Mineral water", "2.50", true},
	{"Soft drink", "3.00", true},
	{"Beer", "5.00", true},
	{"Breakfast", "12.00", true},
	{"Laundry", "15.00", true},
	{"Minibar snack", "4.00", true},
	{"Welcome cocktail", "8.00", false},
}

var guests = []booking.Client{
	{DocumentID: "40123987", FullName: "Ana Gómez", Email: "ana.gomez@example.com", Phone: "+54 11 5555 0101"},
	{DocumentID: "38555120", FullName: "Bruno Díaz", Email: "bruno.diaz@example.com", Phone: "+54 11 5555 0102"},
	{DocumentID: "P7781203", FullName: "Carla Méndez", Email: "carla.mendez@example.com", Phone: "+34 600 555 103"},
	{DocumentID: "42011876", FullName: "Diego Fernández", Email: "diego.fernandez@example.com", Phone: "+54 11 5555 0104"},
	{DocumentID: "X4410927", FullName: "Elena Rossi", Email: "elena.rossi@example.com", Phone: "+39 333 555 0105"},
}

// seeded indexes what a loader created so later steps can refer to it.
type seeded struct {
	rooms    map[string]booking.RoomID
	clients  []booking.ClientID
	products map[string]booking.ProductID
}

func (h *Handler) seedHotel(ctx context.Context, withGuests bool) (*seeded, error) {
	out := &seeded{
		rooms:    make(map[string]booking.RoomID),
		products: make(map[string]booking.ProductID),
	}

	for _, s := range inventory() {
		room, err := h.Service.CreateRoom(ctx, booking.Room{
			Number:   s.number,
			Category: s.category,
			BaseRate: decimal.RequireFromString(s.rate),
			Status:   booking.RoomAvailable,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create room %s: %w", s.number, err)
		}
		out.rooms[s.number] = room.ID
	}

	for _, p := range catalog {
		product, err := h.Service.CreateProduct(ctx, booking.Product{
			Name:   p.name,
			Price:  decimal.RequireFromString(p.price),
			Active: p.active,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create product %s: %w", p.name, err)
		}
		out.products[p.name] = product.ID
	}

	if !withGuests {
		return out, nil
	}
	for _, g := range guests {
		client, err := h.Service.CreateClient(ctx, g)
		if err != nil {
			return nil, fmt.Errorf("failed to create client %s: %w", g.FullName, err)
		}
		out.clients = append(out.clients, client.ID)
	}
	return out, nil
}

func (h *Handler) book(ctx context.Context, room booking.RoomID, client booking.ClientID, from, to int) (*booking.Reservation, error) {
	today := h.Service.Today()
	res, err := h.Service.CreateReservation(ctx, booking.CreateRequest{
		RoomID:   room,
		ClientID: client,
		CheckIn:  today.AddDays(from),
		CheckOut: today.AddDays(to),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to book %s..%s: %w", today.AddDays(from), today.AddDays(to), err)
	}
	return res, nil
}

func (h *Handler) loadEmptyHotelScenario(ctx context.Context) error {
	_, err := h.seedHotel(ctx, false)
	return err
}

func (h *Handler) loadDemoHotelScenario(ctx context.Context) error {
	s, err := h.seedHotel(ctx, true)
	if err != nil {
		return err
	}
	ana, bruno, carla, diego, elena := s.clients[0], s.clients[1], s.clients[2], s.clients[3], s.clients[4]

	// In house since two days ago, with minibar charges
	stay, err := h.book(ctx, s.rooms["101"], ana, -2, 3)
	if err != nil {
		return err
	}
	if _, err := h.Service.CheckIn(ctx, stay.ID, nil); err != nil {
		return err
	}
	for name, qty := range map[string]int{"Mineral water": 2, "Breakfast": 2, "Beer": 1} {
		if _, err := h.Service.RegisterConsumption(ctx, stay.ID, s.products[name], qty); err != nil {
			return err
		}
	}

	// Suite guest in house
	suite, err := h.book(ctx, s.rooms["301"], elena, -1, 4)
	if err != nil {
		return err
	}
	if _, err := h.Service.CheckIn(ctx, suite.ID, nil); err != nil {
		return err
	}

	// Arrivals today
	if _, err := h.book(ctx, s.rooms["201"], bruno, 0, 2); err != nil {
		return err
	}
	if _, err := h.book(ctx, s.rooms["102"], diego, 0, 5); err != nil {
		return err
	}

	// Upcoming stays
	if _, err := h.book(ctx, s.rooms["302"], carla, 5, 9); err != nil {
		return err
	}
	if _, err := h.book(ctx, s.rooms["101"], bruno, 3, 6); err != nil {
		return err
	}

	// History: a finished stay and a cancellation
	past, err := h.book(ctx, s.rooms["202"], diego, -10, -6)
	if err != nil {
		return err
	}
	if _, err := h.Service.CheckIn(ctx, past.ID, nil); err != nil {
		return err
	}
	if _, err := h.Service.RegisterConsumption(ctx, past.ID, s.products["Laundry"], 1); err != nil {
		return err
	}
	if _, err := h.Service.Checkout(ctx, past.ID); err != nil {
		return err
	}
	cancelled, err := h.book(ctx, s.rooms["203"], carla, 1, 4)
	if err != nil {
		return err
	}
	if _, err := h.Service.CancelReservation(ctx, cancelled.ID); err != nil {
		return err
	}

	// Housekeeping and maintenance overrides
	if _, err := h.Service.SetRoomStatus(ctx, s.rooms["103"], booking.RoomCleaning); err != nil {
		return err
	}
	if _, err := h.Service.SetRoomStatus(ctx, s.rooms["105"], booking.RoomMaintenance); err != nil {
		return err
	}
	return nil
}

func (h *Handler) loadEarlyCheckoutScenario(ctx context.Context) error {
	room, err := h.Service.CreateRoom(ctx, booking.Room{
		Number:   "101",
		Category: booking.CategorySimple,
		BaseRate: decimal.NewFromInt(50),
		Status:   booking.RoomAvailable,
	})
	if err != nil {
		return err
	}
	client, err := h.Service.CreateClient(ctx, guests[0])
	if err != nil {
		return err
	}
	res, err := h.book(ctx, room.ID, client.ID, -4, 6)
	if err != nil {
		return err
	}
	_, err = h.Service.CheckIn(ctx, res.ID, nil)
	return err
}
