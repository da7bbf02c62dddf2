package memory

import (
	"context"
	"sync"

	"github.com/xenking/rigforge/internal/domain/identity"
	"github.com/xenking/rigforge/internal/domain/order"
)

var _ order.Repository = (*Orders)(nil)

// Orders is an in-memory order.Repository that also records published
// events.
type Orders struct {
	mu     sync.RWMutex
	carts  *Cart
	orders []order.Order
	events []order.PlacedEvent
}

// NewOrders returns an empty Orders that consumes checked-out lines from
// carts.
func NewOrders(carts *Cart) *Orders {
	return &Orders{carts: carts}
}

func (o *Orders) Create(_ context.Context, ord *order.Order, ev order.PlacedEvent, lines []order.CartLine) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.carts.consume(ord.UserID, lines); err != nil {
		return err
	}
	o.orders = append(o.orders, *ord)
	o.events = append(o.events, ev)
	return nil
}

func (o *Orders) GetByNumber(_ context.Context, number string) (*order.Order, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for _, ord := range o.orders {
		if ord.Number == number {
			return &ord, nil
		}
	}
	return nil, order.ErrNotFound
}

// ListByUser returns the user's orders, newest first.
func (o *Orders) ListByUser(_ context.Context, user identity.UserID) ([]order.Order, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := []order.Order{}
	for i := len(o.orders) - 1; i >= 0; i-- {
		if o.orders[i].UserID == user {
			out = append(out, o.orders[i])
		}
	}
	return out, nil
}

// Events returns the recorded PlacedEvents.
func (o *Orders) Events() []order.PlacedEvent {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]order.PlacedEvent, len(o.events))
	copy(out, o.events)
	return out
}
