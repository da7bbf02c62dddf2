package order_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/rigforge/internal/domain/cart"
	"github.com/xenking/rigforge/internal/domain/catalog"
	"github.com/xenking/rigforge/internal/domain/identity"
	"github.com/xenking/rigforge/internal/domain/order"
	"github.com/xenking/rigforge/internal/storage/memory"
)

const buyer identity.UserID = "alice"

// interleavingOrders runs before against the cart right before the order is
// stored, standing in for a request that lands mid-checkout.
type interleavingOrders struct {
	*memory.Orders
	before func(ctx context.Context)
}

func (r *interleavingOrders) Create(ctx context.Context, o *order.Order, ev order.PlacedEvent, lines []order.CartLine) error {
	if r.before != nil {
		r.before(ctx)
	}
	return r.Orders.Create(ctx, o, ev, lines)
}

type checkout struct {
	carts  *cart.Service
	items  *memory.Cart
	orders *interleavingOrders
	svc    *order.Service
}

func newCheckout() *checkout {
	items := memory.NewCart()
	cat := memory.NewCatalog()
	cat.AddProduct(catalog.Product{ID: "gpu", Name: "RTX", Price: decimal.NewFromInt(1100)})
	cat.AddProduct(catalog.Product{ID: "late", Name: "Late", Price: decimal.NewFromInt(15)})
	carts := cart.NewService(items, cat, cat, memory.NewBuilds())
	orders := &interleavingOrders{Orders: memory.NewOrders(items)}
	return &checkout{
		carts:  carts,
		items:  items,
		orders: orders,
		svc:    order.NewService(carts, orders),
	}
}

func shipTo() order.PlaceOrderRequest {
	return order.PlaceOrderRequest{ShippingAddress: order.Address{
		Name: "Alice", Address: "1 Main St", City: "Springfield", ZipCode: "12345", Country: "US",
	}}
}

func TestPlaceOrder_KeepsLinesAddedDuringCheckout(t *testing.T) {
	c := newCheckout()
	ctx := t.Context()

	_, err := c.carts.AddToCart(ctx, buyer, cart.ProductRef("gpu"), 1, decimal.NewFromInt(1100))
	require.NoError(t, err)
	c.orders.before = func(ctx context.Context) {
		_, err := c.carts.AddToCart(ctx, buyer, cart.ProductRef("late"), 1, decimal.NewFromInt(15))
		require.NoError(t, err)
	}

	o, err := c.svc.PlaceOrder(ctx, buyer, shipTo())
	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "gpu", o.Items[0].ItemID)

	items, err := c.carts.Items(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, cart.ProductRef("late"), items[0].Ref)
}

func TestPlaceOrder_QuantityChangedDuringCheckout(t *testing.T) {
	c := newCheckout()
	ctx := t.Context()

	id, err := c.carts.AddToCart(ctx, buyer, cart.ProductRef("gpu"), 1, decimal.NewFromInt(1100))
	require.NoError(t, err)
	c.orders.before = func(ctx context.Context) {
		require.NoError(t, c.carts.UpdateQuantity(ctx, buyer, id, 3))
	}

	_, err = c.svc.PlaceOrder(ctx, buyer, shipTo())
	require.ErrorIs(t, err, order.ErrCartChanged)

	orders, err := c.svc.List(ctx, buyer)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Empty(t, c.orders.Events())

	items, err := c.carts.Items(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)

	// A retry sees the new quantity and goes through.
	c.orders.before = nil
	o, err := c.svc.PlaceOrder(ctx, buyer, shipTo())
	require.NoError(t, err)
	assert.Equal(t, 3, o.Items[0].Quantity)
	assert.Zero(t, c.items.Len())
}
