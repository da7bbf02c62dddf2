package memory

import (
	"context"
	"sync"

	"github.com/xenking/rigforge/internal/domain/cart"
	"github.com/xenking/rigforge/internal/domain/identity"
	"github.com/xenking/rigforge/internal/domain/order"
)

var _ cart.Repository = (*Cart)(nil)

// Cart is an in-memory cart.Repository. Items keep insertion order.
type Cart struct {
	mu    sync.Mutex
	order []string
	items map[string]cart.Item
}

// NewCart returns an empty Cart.
func NewCart() *Cart {
	return &Cart{items: make(map[string]cart.Item)}
}

func (c *Cart) Get(_ context.Context, id string) (*cart.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[id]
	if !ok {
		return nil, cart.ErrNotFound
	}
	return &item, nil
}

func (c *Cart) ListByUser(_ context.Context, user identity.UserID) ([]cart.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := []cart.Item{}
	for _, id := range c.order {
		if item, ok := c.items[id]; ok && item.UserID == user {
			out = append(out, item)
		}
	}
	return out, nil
}

func (c *Cart) FindByRef(_ context.Context, user identity.UserID, ref cart.ItemRef) (*cart.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range c.order {
		if item, ok := c.items[id]; ok && item.UserID == user && item.Ref == ref {
			return &item, nil
		}
	}
	return nil, cart.ErrNotFound
}

// Insert stores item. On a reference collision the quantities are merged and
// item.ID is replaced with the existing line's ID.
func (c *Cart) Insert(_ context.Context, item *cart.Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range c.order {
		existing := c.items[id]
		if existing.UserID == item.UserID && existing.Ref == item.Ref {
			existing.Quantity += item.Quantity
			c.items[id] = existing
			item.ID = id
			return nil
		}
	}
	c.items[item.ID] = *item
	c.order = append(c.order, item.ID)
	return nil
}

func (c *Cart) AddQuantity(_ context.Context, id string, delta int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[id]
	if !ok {
		return cart.ErrNotFound
	}
	item.Quantity += delta
	c.items[id] = item
	return nil
}

func (c *Cart) SetQuantity(_ context.Context, id string, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[id]
	if !ok {
		return cart.ErrNotFound
	}
	item.Quantity = quantity
	c.items[id] = item
	return nil
}

func (c *Cart) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[id]; !ok {
		return cart.ErrNotFound
	}
	c.remove(id)
	return nil
}

// consume deletes the user's lines if every one is present at the given
// quantity, and deletes nothing otherwise.
func (c *Cart) consume(user identity.UserID, lines []order.CartLine) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, l := range lines {
		item, ok := c.items[l.ID]
		if !ok || item.UserID != user || item.Quantity != l.Quantity {
			return order.ErrCartChanged
		}
	}
	for _, l := range lines {
		c.remove(l.ID)
	}
	return nil
}

func (c *Cart) remove(id string) {
	delete(c.items, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// Len returns the number of stored items across all users.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
