package booking

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// BILLING AGGREGATOR
// =============================================================================

// DeletedProductName replaces the name of a product removed from the catalog.
const DeletedProductName = "Deleted product"

type InvoiceLine struct {
	ConsumptionID ConsumptionID
	ProductID     ProductID
	ProductName   string
	Quantity      int
	UnitPrice     decimal.Decimal
	Subtotal      decimal.Decimal
	Date          Date
}

// Invoice is the guest's folio: the lodging charge plus every consumption.
type Invoice struct {
	ReservationID    ReservationID
	Status           ReservationStatus
	RoomNumber       string
	ClientName       string
	CheckIn          Date
	CheckOut         Date
	Nights           int
	NightlyRate      decimal.Decimal
	LodgingTotal     decimal.Decimal
	Lines            []InvoiceLine
	ConsumptionTotal decimal.Decimal
	GrandTotal       decimal.Decimal
}

// RegisterConsumption records quantity units of a product against a
// reservation at the product's current price.
func (m *Manager) RegisterConsumption(ctx context.Context, tx Store, id ReservationID, productID ProductID, quantity int) (*Consumption, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidInput, quantity)
	}
	if _, err := mustReservation(ctx, tx, id); err != nil {
		return nil, err
	}
	product, err := mustProduct(ctx, tx, productID)
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, fmt.Errorf("%w: %s", ErrInactiveProduct, product.Name)
	}

	c := Consumption{
		ID:            ConsumptionID(NewID()),
		ReservationID: id,
		ProductID:     product.ID,
		Quantity:      quantity,
		UnitPrice:     product.Price,
		Date:          m.today(),
	}
	if err := tx.SaveConsumption(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to save consumption: %w", err)
	}
	return &c, nil
}

// BuildInvoice totals a reservation. Lines use the unit price captured at
// registration, so later catalog changes never alter a folio.
func BuildInvoice(ctx context.Context, r Reader, id ReservationID) (*Invoice, error) {
	res, err := mustReservation(ctx, r, id)
	if err != nil {
		return nil, err
	}

	nights := res.Nights()
	if nights < 1 {
		nights = 1
	}
	inv := &Invoice{
		ReservationID:    res.ID,
		Status:           res.Status,
		CheckIn:          res.CheckIn,
		CheckOut:         res.CheckOut,
		Nights:           nights,
		NightlyRate:      NightlyRate(res.Total, nights).Round(MoneyPlaces),
		LodgingTotal:     res.Total,
		Lines:            []InvoiceLine{},
		ConsumptionTotal: decimal.Zero,
	}

	if room, err := r.GetRoom(ctx, res.RoomID); err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	} else if room != nil {
		inv.RoomNumber = room.Number
	}
	names := newClientNames(r)
	if inv.ClientName, err = names.name(ctx, res.ClientID); err != nil {
		return nil, err
	}

	consumptions, err := r.ListConsumptions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list consumptions: %w", err)
	}
	products := make(map[ProductID]string)
	for _, c := range consumptions {
		name, ok := products[c.ProductID]
		if !ok {
			p, err := r.GetProduct(ctx, c.ProductID)
			if err != nil {
				return nil, fmt.Errorf("failed to get product: %w", err)
			}
			name = DeletedProductName
			if p != nil {
				name = p.Name
			}
			products[c.ProductID] = name
		}
		line := InvoiceLine{
			ConsumptionID: c.ID,
			ProductID:     c.ProductID,
			ProductName:   name,
			Quantity:      c.Quantity,
			UnitPrice:     c.UnitPrice,
			Subtotal:      c.Subtotal(),
			Date:          c.Date,
		}
		inv.Lines = append(inv.Lines, line)
		inv.ConsumptionTotal = inv.ConsumptionTotal.Add(line.Subtotal)
	}

	inv.GrandTotal = inv.LodgingTotal.Add(inv.ConsumptionTotal)
	return inv, nil
}
