package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hotel-engine/booking"
	"github.com/warp/hotel-engine/booking/store"
	"github.com/warp/hotel-engine/config"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type testAPI struct {
	t      *testing.T
	router http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	s := store.NewTxMemory()
	svc := booking.NewService(s, booking.ClockAt(booking.MustParseDate("2025-12-01")), nil)
	h := NewHandler(svc, s)
	return &testAPI{t: t, router: NewRouter(h, RouterConfig{})}
}

func (a *testAPI) do(method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (a *testAPI) createRoom(number, rate string) RoomDTO {
	rec := a.do(http.MethodPost, "/api/rooms", map[string]string{
		"number": number, "category": "simple", "base_rate": rate,
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[RoomDTO](a.t, rec)
}

func (a *testAPI) createClient(doc, name string) ClientDTO {
	rec := a.do(http.MethodPost, "/api/clients", CreateClientRequest{DocumentID: doc, FullName: name})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[ClientDTO](a.t, rec)
}

func (a *testAPI) book(room, client, in, out string) *httptest.ResponseRecorder {
	return a.do(http.MethodPost, "/api/reservations", map[string]string{
		"room_id": room, "client_id": client, "check_in": in, "check_out": out,
	})
}

// =============================================================================
// TESTS
// =============================================================================

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/api/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "2025-12-01", body["today"])
}

func TestReservationFlow(t *testing.T) {
	// GIVEN: A room at 50.00 and a client
	// WHEN: A three night stay is booked, checked in and checked out early
	// THEN: Each step answers with the updated reservation

	api := newTestAPI(t)
	room := api.createRoom("101", "50.00")
	client := api.createClient("30111222", "Ana Gómez")

	rec := api.book(room.ID, client.ID, "2025-12-01", "2025-12-04")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decode[ReservationDTO](t, rec)
	assert.Equal(t, "PENDING", res.Status)
	assert.Equal(t, 3, res.Nights)
	assert.True(t, res.Total.Equal(decimal.NewFromInt(150)), res.Total.String())

	rec = api.do(http.MethodPost, "/api/reservations/"+res.ID+"/checkin", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "CHECKED_IN", decode[ReservationDTO](t, rec).Status)

	rec = api.do(http.MethodGet, "/api/rooms?date=2025-12-02", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	board := decode[[]RoomStateDTO](t, rec)
	require.Len(t, board, 1)
	assert.Equal(t, "OCCUPIED", board[0].Status)
	require.NotNil(t, board[0].Current)
	assert.Equal(t, "Ana Gómez", board[0].Current.ClientName)

	rec = api.do(http.MethodPost, "/api/reservations/"+res.ID+"/checkout", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	done := decode[ReservationDTO](t, rec)
	assert.Equal(t, "FINALIZED", done.Status)
	assert.Equal(t, 1, done.Nights)
	assert.True(t, done.Total.Equal(decimal.NewFromInt(50)), done.Total.String())
}

func TestCreateReservation_OverlapIsConflict(t *testing.T) {
	api := newTestAPI(t)
	room := api.createRoom("101", "50.00")
	client := api.createClient("30111222", "Ana Gómez")

	rec := api.book(room.ID, client.ID, "2025-12-01", "2025-12-05")
	require.Equal(t, http.StatusCreated, rec.Code)
	first := decode[ReservationDTO](t, rec)

	rec = api.book(room.ID, client.ID, "2025-12-04", "2025-12-06")

	require.Equal(t, http.StatusConflict, rec.Code)
	body := decode[struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	}](t, rec)
	assert.Equal(t, "conflict", body.Code)
	assert.Equal(t, first.ID, body.Details["existing_reservation_id"])
	assert.Equal(t, room.ID, body.Details["room_id"])
}

func TestErrorStatuses(t *testing.T) {
	api := newTestAPI(t)
	room := api.createRoom("101", "50.00")
	client := api.createClient("30111222", "Ana Gómez")

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"missing reservation", http.MethodGet, "/api/reservations/nope", nil, http.StatusNotFound, "not_found"},
		{"missing room", http.MethodGet, "/api/rooms/nope", nil, http.StatusNotFound, "not_found"},
		{"empty range", http.MethodPost, "/api/reservations", map[string]string{
			"room_id": room.ID, "client_id": client.ID, "check_in": "2025-12-05", "check_out": "2025-12-05",
		}, http.StatusBadRequest, "invalid_range"},
		{"malformed date", http.MethodPost, "/api/availability", map[string]string{
			"check_in": "05/12/2025", "check_out": "2025-12-06",
		}, http.StatusBadRequest, "invalid_range"},
		{"malformed body", http.MethodPost, "/api/clients", "not an object", http.StatusBadRequest, "invalid_input"},
		{"duplicate document", http.MethodPost, "/api/clients", CreateClientRequest{
			DocumentID: "30111222", FullName: "Someone Else",
		}, http.StatusConflict, "conflict"},
		{"unknown status filter", http.MethodGet, "/api/reservations?status=LOST", nil, http.StatusBadRequest, "invalid_input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decode[ErrorResponse](t, rec).Code)
		})
	}
}

func TestCheckIn_RoomInMaintenance(t *testing.T) {
	api := newTestAPI(t)
	room := api.createRoom("101", "50.00")
	client := api.createClient("30111222", "Ana Gómez")
	rec := api.book(room.ID, client.ID, "2025-12-01", "2025-12-03")
	require.Equal(t, http.StatusCreated, rec.Code)
	res := decode[ReservationDTO](t, rec)

	rec = api.do(http.MethodPut, "/api/rooms/"+room.ID+"/status", RoomStatusRequest{Status: "maintenance"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(http.MethodPost, "/api/reservations/"+res.ID+"/checkin", nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "room_not_ready", decode[ErrorResponse](t, rec).Code)
}

func TestReassignTargets(t *testing.T) {
	api := newTestAPI(t)
	from := api.createRoom("101", "50.00")
	free := api.createRoom("102", "60.00")
	broken := api.createRoom("103", "60.00")
	client := api.createClient("30111222", "Ana Gómez")
	rec := api.book(from.ID, client.ID, "2025-12-03", "2025-12-05")
	require.Equal(t, http.StatusCreated, rec.Code)
	res := decode[ReservationDTO](t, rec)
	rec = api.do(http.MethodPut, "/api/rooms/"+broken.ID+"/status", RoomStatusRequest{Status: "cleaning"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodGet, "/api/checkin/rooms?reservation_id="+res.ID, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rooms := decode[[]RoomDTO](t, rec)
	require.Len(t, rooms, 1)
	assert.Equal(t, free.ID, rooms[0].ID)

	rec = api.do(http.MethodGet, "/api/checkin/rooms", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_input", decode[ErrorResponse](t, rec).Code)
}

func TestUpdateRoom_KeepsCheckInStatus(t *testing.T) {
	// GIVEN: A checked-in guest, so the room is OCCUPIED
	// WHEN: Only the rate is edited
	// THEN: The room stays OCCUPIED with the new rate

	api := newTestAPI(t)
	room := api.createRoom("101", "50.00")
	client := api.createClient("30111222", "Ana Gómez")
	rec := api.book(room.ID, client.ID, "2025-12-01", "2025-12-03")
	require.Equal(t, http.StatusCreated, rec.Code)
	res := decode[ReservationDTO](t, rec)
	rec = api.do(http.MethodPost, "/api/reservations/"+res.ID+"/checkin", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodPut, "/api/rooms/"+room.ID, map[string]string{"base_rate": "65.00"})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[RoomDTO](t, rec)
	assert.Equal(t, "OCCUPIED", got.Status)
	assert.Equal(t, "101", got.Number)
	assert.True(t, got.BaseRate.Equal(decimal.NewFromInt(65)), got.BaseRate.String())

	rec = api.do(http.MethodPut, "/api/rooms/nope", map[string]string{"base_rate": "65.00"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConsumptionsAndInvoice(t *testing.T) {
	api := newTestAPI(t)
	room := api.createRoom("101", "87.50")
	client := api.createClient("30111222", "Ana Gómez")
	rec := api.book(room.ID, client.ID, "2025-12-01", "2025-12-04")
	require.Equal(t, http.StatusCreated, rec.Code)
	res := decode[ReservationDTO](t, rec)

	rec = api.do(http.MethodPost, "/api/products", map[string]any{"name": "Water", "price": "2.50"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	water := decode[ProductDTO](t, rec)

	rec = api.do(http.MethodPost, "/api/reservations/"+res.ID+"/consumptions",
		RegisterConsumptionRequest{ProductID: water.ID, Quantity: 3})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(http.MethodGet, "/api/reservations/"+res.ID+"/invoice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	inv := decode[InvoiceDTO](t, rec)
	assert.Equal(t, "101", inv.RoomNumber)
	require.Len(t, inv.Lines, 1)
	assert.Equal(t, "Water", inv.Lines[0].ProductName)
	assert.Equal(t, "262.50", inv.LodgingTotal.StringFixed(2))
	assert.Equal(t, "7.50", inv.ConsumptionTotal.StringFixed(2))
	assert.Equal(t, "270.00", inv.GrandTotal.StringFixed(2))
}

func TestScenarios(t *testing.T) {
	// GIVEN: An empty engine
	// WHEN: The demo hotel is loaded
	// THEN: The board, the arrivals list and the current scenario reflect it

	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/api/scenarios/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", string(bytes.TrimSpace(rec.Body.Bytes())))

	rec = api.do(http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "demo-hotel"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(http.MethodGet, "/api/rooms", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]RoomStateDTO](t, rec), 25)

	rec = api.do(http.MethodGet, "/api/checkin/arrivals", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]ReservationDetailDTO](t, rec), 2)

	rec = api.do(http.MethodGet, "/api/reservations/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]ReservationDetailDTO](t, rec), 2)

	rec = api.do(http.MethodGet, "/api/scenarios/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "demo-hotel", decode[ScenarioDTO](t, rec).ID)

	// Loading again starts from a clean slate.
	rec = api.do(http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "empty-hotel"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = api.do(http.MethodGet, "/api/clients", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]ClientDTO](t, rec))

	rec = api.do(http.MethodPost, "/api/scenarios/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(http.MethodGet, "/api/rooms", nil)
	assert.Empty(t, decode[[]RoomStateDTO](t, rec))
}

func TestLoadScenario_Unknown(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_input", decode[ErrorResponse](t, rec).Code)
}

func TestRateLimit_PassThroughWithoutRedis(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	})

	mw := RateLimit(config.RateLimitConfig{Enabled: true, Capacity: 1, RefillInterval: time.Second}, nil)
	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.True(t, called)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:51234"
	assert.Equal(t, "10.0.0.7", clientIP(req))

	req.RemoteAddr = ""
	assert.Equal(t, "unknown", clientIP(req))
}
