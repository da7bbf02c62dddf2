package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/rigforge/internal/domain/identity"
)

// Sentinel errors for order operations.
var (
	ErrNotFound       = errors.New("order not found")
	ErrEmptyCart      = errors.New("cart is empty")
	ErrInvalidAddress = errors.New("shipping address incomplete")
	// ErrCartChanged is returned when a checked-out cart line was removed or
	// re-quantified before the order was stored.
	ErrCartChanged = errors.New("cart changed during checkout")
)

// Status is the fulfilment state of an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusBuilding   Status = "building"
	StatusTesting    Status = "testing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// PaymentStatus is the payment state of an order. Payments are settled
// elsewhere; new orders are always pending.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Address is where an order ships to.
type Address struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

func (a Address) complete() bool {
	return a.Name != "" && a.Address != "" && a.City != "" && a.ZipCode != "" && a.Country != ""
}

// Item is an immutable snapshot of a cart line at checkout.
type Item struct {
	Kind     string          `json:"type"`
	ItemID   string          `json:"itemId"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Order is a placed order.
type Order struct {
	ID              string
	Number          string
	UserID          identity.UserID
	Items           []Item
	Subtotal        decimal.Decimal
	Tax             decimal.Decimal
	Shipping        decimal.Decimal
	Total           decimal.Decimal
	Status          Status
	PaymentStatus   PaymentStatus
	ShippingAddress Address
	PaymentMethod   string
	CreatedAt       time.Time
}

// PlacedEvent is published once an order has been stored.
type PlacedEvent struct {
	OrderID   string          `json:"orderId"`
	Number    string          `json:"orderNumber"`
	UserID    string          `json:"userId"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
	PlacedAt  time.Time       `json:"placedAt"`
}

// TopicPlaced is the event topic for PlacedEvent.
const TopicPlaced = "order.placed"

// CartLine is a cart line consumed by an order, at the quantity ordered.
type CartLine struct {
	ID       string
	Quantity int
}

// Repository persists orders.
type Repository interface {
	// Create stores o together with its PlacedEvent and removes the consumed
	// cart lines atomically. It returns ErrCartChanged, storing nothing, when
	// any line is gone or its quantity differs.
	Create(ctx context.Context, o *Order, ev PlacedEvent, lines []CartLine) error
	// GetByNumber returns ErrNotFound for unknown numbers.
	GetByNumber(ctx context.Context, number string) (*Order, error)
	ListByUser(ctx context.Context, user identity.UserID) ([]Order, error)
}
