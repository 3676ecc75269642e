/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the booking domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

WIRE FORMAT:
  - Field names are snake_case
  - Dates are "YYYY-MM-DD" (booking.Date)
  - Money is a decimal string ("150.00" style); requests accept numbers too

VALIDATION:
  Validation is done in the booking package, not in DTOs. DTOs are pure
  data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/hotel-engine/booking"
)

// =============================================================================
// ROOMS
// =============================================================================

// RoomDTO represents a room in API responses.
type RoomDTO struct {
	ID       string          `json:"id"`
	Number   string          `json:"number"`
	Category string          `json:"category"`
	BaseRate decimal.Decimal `json:"base_rate"`
	Status   string          `json:"status"`
}

type CreateRoomRequest struct {
	Number   string          `json:"number"`
	Category string          `json:"category"`
	BaseRate decimal.Decimal `json:"base_rate"`
	Status   string          `json:"status,omitempty"`
}

// UpdateRoomRequest changes only the fields that are present.
type UpdateRoomRequest struct {
	Number   *string          `json:"number,omitempty"`
	Category *string          `json:"category,omitempty"`
	BaseRate *decimal.Decimal `json:"base_rate,omitempty"`
	Status   *string          `json:"status,omitempty"`
}

type RoomStatusRequest struct {
	Status string `json:"status"`
}

// StayDTO is a reservation summary shown on a room card.
type StayDTO struct {
	ReservationID string       `json:"reservation_id"`
	CheckIn       booking.Date `json:"check_in"`
	CheckOut      booking.Date `json:"check_out"`
	ClientName    string       `json:"client_name"`
	Status        string       `json:"status"`
}

// RoomStateDTO is a room projected on a date.
type RoomStateDTO struct {
	RoomDTO
	Date         booking.Date `json:"date"`
	ManualStatus string       `json:"manual_status"`
	Current      *StayDTO     `json:"current"`
	Upcoming     []StayDTO    `json:"upcoming"`
}

type AvailabilityRequest struct {
	RoomID   string       `json:"room_id,omitempty"`
	CheckIn  booking.Date `json:"check_in"`
	CheckOut booking.Date `json:"check_out"`
}

type AvailabilityDTO struct {
	RoomID     string       `json:"room_id,omitempty"`
	CheckIn    booking.Date `json:"check_in"`
	CheckOut   booking.Date `json:"check_out"`
	Nights     int          `json:"nights"`
	Available  *bool        `json:"available,omitempty"`
	ConflictID string       `json:"conflict_reservation_id,omitempty"`
	FreeRooms  []RoomDTO    `json:"free_rooms"`
}

// =============================================================================
// CLIENTS
// =============================================================================

type ClientDTO struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
}

type CreateClientRequest struct {
	DocumentID string `json:"document_id"`
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
}

type UpdateClientRequest struct {
	DocumentID *string `json:"document_id,omitempty"`
	FullName   *string `json:"full_name,omitempty"`
	Email      *string `json:"email,omitempty"`
	Phone      *string `json:"phone,omitempty"`
}

// =============================================================================
// RESERVATIONS
// =============================================================================

type ReservationDTO struct {
	ID           string          `json:"id"`
	RoomID       string          `json:"room_id"`
	ClientID     string          `json:"client_id"`
	CheckIn      booking.Date    `json:"check_in"`
	CheckOut     booking.Date    `json:"check_out"`
	Nights       int             `json:"nights"`
	Total        decimal.Decimal `json:"total"`
	Status       string          `json:"status"`
	CheckedInAt  *time.Time      `json:"checked_in_at,omitempty"`
	CheckedOutAt *time.Time      `json:"checked_out_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ReservationDetailDTO adds client and room data for lists.
type ReservationDetailDTO struct {
	ReservationDTO
	ClientName     string `json:"client_name"`
	ClientDocument string `json:"client_document"`
	ClientEmail    string `json:"client_email"`
	ClientPhone    string `json:"client_phone"`
	RoomNumber     string `json:"room_number"`
}

type CreateReservationRequest struct {
	RoomID      string           `json:"room_id"`
	ClientID    string           `json:"client_id"`
	CheckIn     booking.Date     `json:"check_in"`
	CheckOut    booking.Date     `json:"check_out"`
	NightlyRate *decimal.Decimal `json:"nightly_rate,omitempty"`
}

// CheckInRequest carries optional client contact corrections.
type CheckInRequest struct {
	FullName string `json:"full_name,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// =============================================================================
// CONSUMPTIONS & INVOICE
// =============================================================================

type ConsumptionDTO struct {
	ID            string          `json:"id"`
	ReservationID string          `json:"reservation_id"`
	ProductID     string          `json:"product_id"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Date          booking.Date    `json:"date"`
}

type RegisterConsumptionRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type InvoiceLineDTO struct {
	ConsumptionID string          `json:"consumption_id"`
	ProductID     string          `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Date          booking.Date    `json:"date"`
}

type InvoiceDTO struct {
	ReservationID    string           `json:"reservation_id"`
	Status           string           `json:"status"`
	RoomNumber       string           `json:"room_number"`
	ClientName       string           `json:"client_name"`
	CheckIn          booking.Date     `json:"check_in"`
	CheckOut         booking.Date     `json:"check_out"`
	Nights           int              `json:"nights"`
	NightlyRate      decimal.Decimal  `json:"nightly_rate"`
	LodgingTotal     decimal.Decimal  `json:"lodging_total"`
	Lines            []InvoiceLineDTO `json:"lines"`
	ConsumptionTotal decimal.Decimal  `json:"consumption_total"`
	GrandTotal       decimal.Decimal  `json:"grand_total"`
}

// =============================================================================
// PRODUCTS
// =============================================================================

type ProductDTO struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
	Active bool            `json:"active"`
}

type CreateProductRequest struct {
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
	Active *bool           `json:"active,omitempty"`
}

type UpdateProductRequest struct {
	Name   *string          `json:"name,omitempty"`
	Price  *decimal.Decimal `json:"price,omitempty"`
	Active *bool            `json:"active,omitempty"`
}

// =============================================================================
// SCENARIOS & ERRORS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toRoomDTO(r booking.Room) RoomDTO {
	return RoomDTO{
		ID:       string(r.ID),
		Number:   r.Number,
		Category: string(r.Category),
		BaseRate: r.BaseRate,
		Status:   string(r.Status),
	}
}

func toRoomDTOs(rooms []booking.Room) []RoomDTO {
	out := make([]RoomDTO, len(rooms))
	for i, r := range rooms {
		out[i] = toRoomDTO(r)
	}
	return out
}

func toStayDTO(s booking.StaySummary) StayDTO {
	return StayDTO{
		ReservationID: string(s.ReservationID),
		CheckIn:       s.CheckIn,
		CheckOut:      s.CheckOut,
		ClientName:    s.ClientName,
		Status:        string(s.Status),
	}
}

func toRoomStateDTO(v booking.RoomView) RoomStateDTO {
	dto := RoomStateDTO{
		RoomDTO:      toRoomDTO(v.Room),
		Date:         v.Date,
		ManualStatus: string(v.Room.Status),
		Upcoming:     make([]StayDTO, len(v.Upcoming)),
	}
	dto.Status = string(v.Status)
	if v.Current != nil {
		cur := toStayDTO(*v.Current)
		dto.Current = &cur
	}
	for i, s := range v.Upcoming {
		dto.Upcoming[i] = toStayDTO(s)
	}
	return dto
}

func toClientDTO(c booking.Client) ClientDTO {
	return ClientDTO{
		ID:         string(c.ID),
		DocumentID: c.DocumentID,
		FullName:   c.FullName,
		Email:      c.Email,
		Phone:      c.Phone,
	}
}

func toReservationDTO(r booking.Reservation) ReservationDTO {
	return ReservationDTO{
		ID:           string(r.ID),
		RoomID:       string(r.RoomID),
		ClientID:     string(r.ClientID),
		CheckIn:      r.CheckIn,
		CheckOut:     r.CheckOut,
		Nights:       r.Nights(),
		Total:        r.Total,
		Status:       string(r.Status),
		CheckedInAt:  r.CheckedInAt,
		CheckedOutAt: r.CheckedOutAt,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func toReservationDTOs(list []booking.Reservation) []ReservationDTO {
	out := make([]ReservationDTO, len(list))
	for i, r := range list {
		out[i] = toReservationDTO(r)
	}
	return out
}

func toReservationDetailDTOs(list []booking.ReservationDetail) []ReservationDetailDTO {
	out := make([]ReservationDetailDTO, len(list))
	for i, d := range list {
		out[i] = ReservationDetailDTO{
			ReservationDTO: toReservationDTO(d.Reservation),
			ClientName:     d.ClientName,
			ClientDocument: d.ClientDocument,
			ClientEmail:    d.ClientEmail,
			ClientPhone:    d.ClientPhone,
			RoomNumber:     d.RoomNumber,
		}
	}
	return out
}

func toConsumptionDTO(c booking.Consumption) ConsumptionDTO {
	return ConsumptionDTO{
		ID:            string(c.ID),
		ReservationID: string(c.ReservationID),
		ProductID:     string(c.ProductID),
		Quantity:      c.Quantity,
		UnitPrice:     c.UnitPrice,
		Subtotal:      c.Subtotal(),
		Date:          c.Date,
	}
}

func toInvoiceDTO(inv booking.Invoice) InvoiceDTO {
	dto := InvoiceDTO{
		ReservationID:    string(inv.ReservationID),
		Status:           string(inv.Status),
		RoomNumber:       inv.RoomNumber,
		ClientName:       inv.ClientName,
		CheckIn:          inv.CheckIn,
		CheckOut:         inv.CheckOut,
		Nights:           inv.Nights,
		NightlyRate:      inv.NightlyRate,
		LodgingTotal:     inv.LodgingTotal,
		Lines:            make([]InvoiceLineDTO, len(inv.Lines)),
		ConsumptionTotal: inv.ConsumptionTotal,
		GrandTotal:       inv.GrandTotal,
	}
	for i, l := range inv.Lines {
		dto.Lines[i] = InvoiceLineDTO{
			ConsumptionID: string(l.ConsumptionID),
			ProductID:     string(l.ProductID),
			ProductName:   l.ProductName,
			Quantity:      l.Quantity,
			UnitPrice:     l.UnitPrice,
			Subtotal:      l.Subtotal,
			Date:          l.Date,
		}
	}
	return dto
}

func toProductDTO(p booking.Product) ProductDTO {
	return ProductDTO{ID: string(p.ID), Name: p.Name, Price: p.Price, Active: p.Active}
}
