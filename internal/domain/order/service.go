package order

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/rigforge/internal/domain/cart"
	"github.com/xenking/rigforge/internal/domain/identity"
)

// Cart is the part of the cart aggregator needed at checkout.
type Cart interface {
	ItemsWithDetails(ctx context.Context, user identity.UserID) ([]cart.ItemWithDetails, error)
}

// PlaceOrderRequest holds checkout input.
type PlaceOrderRequest struct {
	ShippingAddress Address
	PaymentMethod   string
}

// Service turns carts into orders.
type Service struct {
	carts  Cart
	orders Repository
	now    func() time.Time
}

// NewService creates an order Service.
func NewService(carts Cart, orders Repository) *Service {
	return &Service{
		carts:  carts,
		orders: orders,
		now:    time.Now,
	}
}

// PlaceOrder snapshots the user's cart into a pending order and stores it,
// removing exactly the snapshotted lines. Lines added meanwhile stay in the
// cart.
func (s *Service) PlaceOrder(ctx context.Context, user identity.UserID, req PlaceOrderRequest) (*Order, error) {
	if err := user.Require(); err != nil {
		return nil, err
	}
	if !req.ShippingAddress.complete() {
		return nil, ErrInvalidAddress
	}

	lines, err := s.carts.ItemsWithDetails(ctx, user)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	items := make([]Item, len(lines))
	plain := make([]cart.Item, len(lines))
	consumed := make([]CartLine, len(lines))
	for i, l := range lines {
		name := l.Detail.Name()
		if name == "" {
			name = "unknown item"
		}
		items[i] = Item{
			Kind:     l.Ref.Kind().String(),
			ItemID:   l.Ref.ID(),
			Name:     name,
			Quantity: l.Quantity,
			Price:    l.Price,
		}
		plain[i] = l.Item
		consumed[i] = CartLine{ID: l.ID, Quantity: l.Quantity}
	}
	totals := cart.Sum(plain)
	sum := cart.Summarize(totals)

	now := s.now().UTC()
	id := uuid.New()
	o := &Order{
		ID:              id.String(),
		Number:          newNumber(now, id),
		UserID:          user,
		Items:           items,
		Subtotal:        sum.Subtotal,
		Tax:             sum.Tax,
		Shipping:        sum.Shipping,
		Total:           sum.Total,
		Status:          StatusPending,
		PaymentStatus:   PaymentPending,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		CreatedAt:       now,
	}
	ev := PlacedEvent{
		OrderID:   o.ID,
		Number:    o.Number,
		UserID:    user.String(),
		Total:     o.Total,
		ItemCount: totals.ItemCount,
		PlacedAt:  now,
	}
	if err := s.orders.Create(ctx, o, ev, consumed); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	return o, nil
}

// Get returns the user's order by number.
func (s *Service) Get(ctx context.Context, user identity.UserID, number string) (*Order, error) {
	if err := user.Require(); err != nil {
		return nil, err
	}
	o, err := s.orders.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if o.UserID != user {
		return nil, ErrNotFound
	}
	return o, nil
}

// List returns the user's orders, newest first.
func (s *Service) List(ctx context.Context, user identity.UserID) ([]Order, error) {
	if user.Anonymous() {
		return []Order{}, nil
	}
	return s.orders.ListByUser(ctx, user)
}

// newNumber formats a human-facing order number: RF-YYYYMMDD-XXXXXXXX.
func newNumber(t time.Time, id uuid.UUID) string {
	suffix := strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
	return "RF-" + t.Format("20060102") + "-" + suffix
}
