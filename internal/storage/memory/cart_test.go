package memory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/rigforge/internal/domain/cart"
	"github.com/xenking/rigforge/internal/domain/order"
)

func TestCart_InsertMergesSameRef(t *testing.T) {
	c := NewCart()
	ctx := t.Context()

	first := &cart.Item{ID: "line-1", UserID: "alice", Ref: cart.ProductRef("fan"), Quantity: 1, Price: decimal.NewFromInt(20)}
	require.NoError(t, c.Insert(ctx, first))

	dup := &cart.Item{ID: "line-2", UserID: "alice", Ref: cart.ProductRef("fan"), Quantity: 2, Price: decimal.NewFromInt(25)}
	require.NoError(t, c.Insert(ctx, dup))
	assert.Equal(t, "line-1", dup.ID)

	other := &cart.Item{ID: "line-3", UserID: "bob", Ref: cart.ProductRef("fan"), Quantity: 1}
	require.NoError(t, c.Insert(ctx, other))

	got, err := c.Get(ctx, "line-1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, 2, c.Len())

	_, err = c.Get(ctx, "line-2")
	require.ErrorIs(t, err, cart.ErrNotFound)
}

func TestCart_DeleteMissing(t *testing.T) {
	c := NewCart()
	ctx := t.Context()

	require.ErrorIs(t, c.Delete(ctx, "nope"), cart.ErrNotFound)

	require.NoError(t, c.Insert(ctx, &cart.Item{ID: "line-1", UserID: "alice", Ref: cart.ProductRef("fan"), Quantity: 1}))
	require.NoError(t, c.Delete(ctx, "line-1"))
	require.ErrorIs(t, c.Delete(ctx, "line-1"), cart.ErrNotFound)
	require.ErrorIs(t, c.AddQuantity(ctx, "line-1", 1), cart.ErrNotFound)
	require.ErrorIs(t, c.SetQuantity(ctx, "line-1", 1), cart.ErrNotFound)
}

func TestCart_Consume(t *testing.T) {
	c := NewCart()
	ctx := t.Context()
	for _, it := range []*cart.Item{
		{ID: "a", UserID: "alice", Ref: cart.ProductRef("gpu"), Quantity: 1},
		{ID: "b", UserID: "alice", Ref: cart.ProductRef("fan"), Quantity: 2},
		{ID: "c", UserID: "bob", Ref: cart.ProductRef("fan"), Quantity: 1},
	} {
		require.NoError(t, c.Insert(ctx, it))
	}

	tests := []struct {
		name  string
		lines []order.CartLine
	}{
		{name: "stale quantity", lines: []order.CartLine{{ID: "a", Quantity: 1}, {ID: "b", Quantity: 1}}},
		{name: "missing line", lines: []order.CartLine{{ID: "a", Quantity: 1}, {ID: "gone", Quantity: 1}}},
		{name: "foreign line", lines: []order.CartLine{{ID: "a", Quantity: 1}, {ID: "c", Quantity: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, c.consume("alice", tt.lines), order.ErrCartChanged)
			assert.Equal(t, 3, c.Len(), "nothing removed")
		})
	}

	require.NoError(t, c.consume("alice", []order.CartLine{{ID: "a", Quantity: 1}}))
	left, err := c.ListByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "b", left[0].ID)
}
