/*
handlers.go - HTTP API handlers for the hotel reservation engine

PURPOSE:
  Exposes booking.Service via REST API. Handles HTTP request/response,
  JSON serialization, and delegates every rule to the booking package.

ENDPOINTS:
  Rooms:
    GET    /api/rooms?date=YYYY-MM-DD    Room board projected on a date
    POST   /api/rooms                    Create room
    GET    /api/rooms/{id}               Room record
    PUT    /api/rooms/{id}               Update room
    PUT    /api/rooms/{id}/status        Staff status override
    DELETE /api/rooms/{id}               Delete room
    POST   /api/availability             Check a room / list free rooms

  Reservations:
    GET    /api/reservations             List (filters: from, to, room_id, client_id, status)
    POST   /api/reservations             Create
    GET    /api/reservations/history     Finalized and cancelled, newest first
    GET    /api/reservations/{id}        Get
    DELETE /api/reservations/{id}        Delete with its consumptions
    POST   /api/reservations/{id}/checkin|checkout|cancel
    PUT    /api/reservations/{id}/room/{roomID}
    GET    /api/reservations/{id}/consumptions
    POST   /api/reservations/{id}/consumptions
    GET    /api/reservations/{id}/invoice

  Front desk:
    GET    /api/checkin/arrivals         Pending arrivals today
    GET    /api/checkin/search?q=        Find pending reservations
    GET    /api/checkin/rooms?reservation_id=  Rooms the stay can be moved to

  Registry:
    /api/clients, /api/products (CRUD), DELETE /api/consumptions/{id}

ERROR HANDLING:
  Domain errors map by kind (booking.KindOf):
  - 400: invalid_range, invalid_state, invalid_input, inactive_product
  - 404: not_found
  - 409: conflict, room_not_ready
  - 500: anything else (details are logged, not returned)

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/warp/hotel-engine/booking"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Resetter wipes a store. Both stores implement it.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *booking.Service
	Store   Resetter

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler. store must be the service's store.
func NewHandler(svc *booking.Service, store Resetter) *Handler {
	return &Handler{Service: svc, Store: store}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"today":  h.Service.Today().String(),
	})
}

// =============================================================================
// ROOM HANDLERS
// =============================================================================

// ListRooms returns the room board for ?date= (default today).
// GET /api/rooms
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	views, err := h.Service.ListRoomsAtDate(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	dtos := make([]RoomStateDTO, len(views))
	for i, v := range views {
		dtos[i] = toRoomStateDTO(v)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateRoom adds a room to the inventory.
// POST /api/rooms
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	room, err := h.Service.CreateRoom(r.Context(), booking.Room{
		Number:   strings.TrimSpace(req.Number),
		Category: booking.RoomCategory(strings.ToUpper(req.Category)),
		BaseRate: req.BaseRate,
		Status:   booking.RoomStatus(strings.ToUpper(req.Status)),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRoomDTO(*room))
}

// GetRoom returns a room record.
// GET /api/rooms/{id}
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.Service.GetRoom(r.Context(), booking.RoomID(chi.URLParam(r, "id")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomDTO(*room))
}

// UpdateRoom changes the fields present in the body.
// PUT /api/rooms/{id}
func (h *Handler) UpdateRoom(w http.ResponseWriter, r *http.Request) {
	var req UpdateRoomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	u := booking.RoomUpdate{BaseRate: req.BaseRate}
	if req.Number != nil {
		number := strings.TrimSpace(*req.Number)
		u.Number = &number
	}
	if req.Category != nil {
		category := booking.RoomCategory(strings.ToUpper(*req.Category))
		u.Category = &category
	}
	if req.Status != nil {
		status := booking.RoomStatus(strings.ToUpper(*req.Status))
		u.Status = &status
	}
	updated, err := h.Service.UpdateRoom(r.Context(), booking.RoomID(chi.URLParam(r, "id")), u)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomDTO(*updated))
}

// SetRoomStatus puts a room into cleaning/maintenance or back in service.
// PUT /api/rooms/{id}/status
func (h *Handler) SetRoomStatus(w http.ResponseWriter, r *http.Request) {
	var req RoomStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	status, err := booking.ParseRoomStatus(strings.ToUpper(req.Status))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	room, err := h.Service.SetRoomStatus(r.Context(), booking.RoomID(chi.URLParam(r, "id")), status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomDTO(*room))
}

// DeleteRoom removes a room with no live reservations.
// DELETE /api/rooms/{id}
func (h *Handler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteRoom(r.Context(), booking.RoomID(chi.URLParam(r, "id"))); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckAvailability checks one room, or just lists free rooms.
// POST /api/availability
func (h *Handler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	var req AvailabilityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	res, err := h.Service.CheckAvailability(r.Context(), booking.RoomID(req.RoomID), req.CheckIn, req.CheckOut)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	dto := AvailabilityDTO{
		RoomID:    string(res.RoomID),
		CheckIn:   res.Start,
		CheckOut:  res.End,
		Nights:    res.Nights,
		FreeRooms: toRoomDTOs(res.FreeRooms),
	}
	if res.RoomID != "" {
		available := res.Available
		dto.Available = &available
		if res.Conflict != nil {
			dto.ConflictID = string(res.Conflict.ID)
		}
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// CLIENT HANDLERS
// =============================================================================

// ListClients returns all clients.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Service.ListClients(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	dtos := make([]ClientDTO, len(clients))
	for i, c := range clients {
		dtos[i] = toClientDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req CreateClientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	c, err := h.Service.CreateClient(r.Context(), booking.Client{
		DocumentID: strings.TrimSpace(req.DocumentID),
		FullName:   strings.TrimSpace(req.FullName),
		Email:      strings.TrimSpace(req.Email),
		Phone:      strings.TrimSpace(req.Phone),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toClientDTO(*c))
}

func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.GetClient(r.Context(), booking.ClientID(chi.URLParam(r, "id")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientDTO(*c))
}

func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	var req UpdateClientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	u := booking.ClientUpdate{
		DocumentID: trimmed(req.DocumentID),
		FullName:   trimmed(req.FullName),
		Email:      trimmed(req.Email),
		Phone:      trimmed(req.Phone),
	}
	updated, err := h.Service.UpdateClient(r.Context(), booking.ClientID(chi.URLParam(r, "id")), u)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientDTO(*updated))
}

func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteClient(r.Context(), booking.ClientID(chi.URLParam(r, "id"))); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RESERVATION HANDLERS
// =============================================================================

// ListReservations supports ?from=&to=&room_id=&client_id=&status=A,B
// GET /api/reservations
func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := booking.ReservationFilter{
		RoomID:   booking.RoomID(q.Get("room_id")),
		ClientID: booking.ClientID(q.Get("client_id")),
	}
	var err error
	if v := q.Get("from"); v != "" {
		if f.From, err = booking.ParseDate(v); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}
	if v := q.Get("to"); v != "" {
		if f.To, err = booking.ParseDate(v); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}
	if v := q.Get("status"); v != "" {
		for _, s := range strings.Split(v, ",") {
			st, err := booking.ParseReservationStatus(strings.ToUpper(strings.TrimSpace(s)))
			if err != nil {
				writeServiceError(w, r, err)
				return
			}
			f.Statuses = append(f.Statuses, st)
		}
	}

	list, err := h.Service.ListReservations(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTOs(list))
}

// CreateReservation books a room.
// POST /api/reservations
func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req CreateReservationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	res, err := h.Service.CreateReservation(r.Context(), booking.CreateRequest{
		RoomID:      booking.RoomID(req.RoomID),
		ClientID:    booking.ClientID(req.ClientID),
		CheckIn:     req.CheckIn,
		CheckOut:    req.CheckOut,
		NightlyRate: req.NightlyRate,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReservationDTO(*res))
}

func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	res, err := h.Service.GetReservation(r.Context(), reservationID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(*res))
}

// History lists finished stays.
// GET /api/reservations/history
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.History(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDetailDTOs(list))
}

func (h *Handler) DeleteReservation(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteReservation(r.Context(), reservationID(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckIn admits the guest. The body is optional.
// POST /api/reservations/{id}/checkin
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req CheckInRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	patch := &booking.ClientPatch{
		FullName: strings.TrimSpace(req.FullName),
		Email:    strings.TrimSpace(req.Email),
		Phone:    strings.TrimSpace(req.Phone),
	}
	res, err := h.Service.CheckIn(r.Context(), reservationID(r), patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(*res))
}

// Checkout closes the stay, re-pricing early departures.
// POST /api/reservations/{id}/checkout
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	res, err := h.Service.Checkout(r.Context(), reservationID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(*res))
}

// Cancel releases a pending booking.
// POST /api/reservations/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	res, err := h.Service.CancelReservation(r.Context(), reservationID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(*res))
}

// ReassignRoom moves a pending booking to another room.
// PUT /api/reservations/{id}/room/{roomID}
func (h *Handler) ReassignRoom(w http.ResponseWriter, r *http.Request) {
	res, err := h.Service.ReassignRoom(r.Context(), reservationID(r), booking.RoomID(chi.URLParam(r, "roomID")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(*res))
}

// =============================================================================
// CONSUMPTION & INVOICE HANDLERS
// =============================================================================

func (h *Handler) ListConsumptions(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListConsumptions(r.Context(), reservationID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	dtos := make([]ConsumptionDTO, len(list))
	for i, c := range list {
		dtos[i] = toConsumptionDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RegisterConsumption charges a product to the reservation.
// POST /api/reservations/{id}/consumptions
func (h *Handler) RegisterConsumption(w http.ResponseWriter, r *http.Request) {
	var req RegisterConsumptionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	c, err := h.Service.RegisterConsumption(r.Context(), reservationID(r), booking.ProductID(req.ProductID), req.Quantity)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toConsumptionDTO(*c))
}

func (h *Handler) DeleteConsumption(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteConsumption(r.Context(), booking.ConsumptionID(chi.URLParam(r, "id"))); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetInvoice returns the folio.
// GET /api/reservations/{id}/invoice
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.Service.GetInvoice(r.Context(), reservationID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceDTO(*inv))
}

// =============================================================================
// FRONT DESK HANDLERS
// =============================================================================

// Arrivals lists today's pending check-ins.
// GET /api/checkin/arrivals
func (h *Handler) Arrivals(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ArrivalsToday(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDetailDTOs(list))
}

// SearchForCheckIn matches pending reservations by id, name or document.
// GET /api/checkin/search?q=
func (h *Handler) SearchForCheckIn(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.SearchForCheckIn(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDetailDTOs(list))
}

// ReassignTargets lists the rooms a pending reservation can be moved to.
// GET /api/checkin/rooms?reservation_id=
func (h *Handler) ReassignTargets(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("reservation_id"))
	if id == "" {
		writeServiceError(w, r, fmt.Errorf("%w: reservation_id is required", booking.ErrInvalidInput))
		return
	}
	rooms, err := h.Service.ReassignTargets(r.Context(), booking.ReservationID(id))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomDTOs(rooms))
}

// =============================================================================
// PRODUCT HANDLERS
// =============================================================================

// ListProducts returns the catalog; ?active=true hides retired products.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	list, err := h.Service.ListProducts(r.Context(), activeOnly)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	dtos := make([]ProductDTO, len(list))
	for i, p := range list {
		dtos[i] = toProductDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	p, err := h.Service.CreateProduct(r.Context(), booking.Product{
		Name:   strings.TrimSpace(req.Name),
		Price:  req.Price,
		Active: active,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductDTO(*p))
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.GetProduct(r.Context(), booking.ProductID(chi.URLParam(r, "id")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(*p))
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req UpdateProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	u := booking.ProductUpdate{Name: trimmed(req.Name), Price: req.Price, Active: req.Active}
	updated, err := h.Service.UpdateProduct(r.Context(), booking.ProductID(chi.URLParam(r, "id")), u)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(*updated))
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteProduct(r.Context(), booking.ProductID(chi.URLParam(r, "id"))); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

// trimmed returns a trimmed copy of an optional string field.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func reservationID(r *http.Request) booking.ReservationID {
	return booking.ReservationID(chi.URLParam(r, "id"))
}

// decodeJSON reads the body into v. Malformed bodies are InvalidInput;
// bad dates keep their InvalidRange kind.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if booking.IsClientError(err) {
			return err
		}
		return fmt.Errorf("%w: invalid request body: %v", booking.ErrInvalidInput, err)
	}
	return nil
}

// decodeOptionalJSON is decodeJSON that accepts an empty body.
func decodeOptionalJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read body: %v", booking.ErrInvalidInput, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		if booking.IsClientError(err) {
			return err
		}
		return fmt.Errorf("%w: invalid request body: %v", booking.ErrInvalidInput, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeServiceError maps a booking error to its status code. Internal
// errors are logged with the request id and reported without details.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	kind := booking.KindOf(err)
	status := kind.HTTPStatus()
	if kind == booking.KindInternal {
		log.Printf("[API] %s %s (request %s): %v", r.Method, r.URL.Path, middleware.GetReqID(r.Context()), err)
		writeJSON(w, status, ErrorResponse{Error: "Internal server error", Code: string(kind)})
		return
	}

	resp := ErrorResponse{Error: err.Error(), Code: string(kind)}
	var conflict *booking.ConflictError
	var notReady *booking.RoomNotReadyError
	var invalid *booking.InvalidStateError
	switch {
	case errors.As(err, &conflict):
		resp.Details = map[string]string{
			"room_id":                 string(conflict.RoomID),
			"check_in":                conflict.CheckIn.String(),
			"check_out":               conflict.CheckOut.String(),
			"existing_reservation_id": string(conflict.ExistingID),
		}
	case errors.As(err, &notReady):
		resp.Details = map[string]string{"room_number": notReady.Number, "room_status": string(notReady.Status)}
	case errors.As(err, &invalid):
		resp.Details = map[string]string{"current_status": string(invalid.Current)}
	}
	writeJSON(w, status, resp)
}
