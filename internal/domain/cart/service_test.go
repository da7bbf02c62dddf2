package cart_test

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/rigforge/internal/domain/build"
	"github.com/xenking/rigforge/internal/domain/cart"
	"github.com/xenking/rigforge/internal/domain/catalog"
	"github.com/xenking/rigforge/internal/domain/identity"
	"github.com/xenking/rigforge/internal/storage/memory"
)

const (
	alice identity.UserID = "alice"
	bob   identity.UserID = "bob"
)

type fixture struct {
	svc    *cart.Service
	items  *memory.Cart
	cat    *memory.Catalog
	builds *memory.Builds
}

func newFixture() *fixture {
	f := &fixture{
		items:  memory.NewCart(),
		cat:    memory.NewCatalog(),
		builds: memory.NewBuilds(),
	}
	f.cat.AddProduct(catalog.Product{ID: "gpu", Name: "RTX", Price: decimal.NewFromInt(1100)})
	f.cat.AddProduct(catalog.Product{ID: "fan", Name: "Fan", Price: decimal.NewFromInt(20)})
	f.cat.AddPrebuilt(catalog.PrebuiltConfig{ID: "pb", Name: "Starter", Tier: catalog.TierEntry, Price: decimal.NewFromInt(999)})
	f.svc = cart.NewService(f.items, f.cat, f.cat, f.builds)
	return f
}

func price(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestAddToCart_MergesSameRef(t *testing.T) {
	f := newFixture()
	ctx := t.Context()

	id1, err := f.svc.AddToCart(ctx, alice, cart.ProductRef("fan"), 1, price(20))
	require.NoError(t, err)
	id2, err := f.svc.AddToCart(ctx, alice, cart.ProductRef("fan"), 2, price(25))
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	items, err := f.svc.Items(ctx, alice)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	assert.True(t, items[0].Price.Equal(price(20)), "first price wins")
}

func TestAddToCart_DistinctRefs(t *testing.T) {
	f := newFixture()
	ctx := t.Context()

	_, err := f.svc.AddToCart(ctx, alice, cart.ProductRef("x"), 1, price(1))
	require.NoError(t, err)
	_, err = f.svc.AddToCart(ctx, alice, cart.PrebuiltRef("x"), 1, price(1))
	require.NoError(t, err)
	_, err = f.svc.AddToCart(ctx, bob, cart.ProductRef("x"), 1, price(1))
	require.NoError(t, err)

	assert.Equal(t, 3, f.items.Len())
}

func TestAddToCart_Validation(t *testing.T) {
	f := newFixture()
	ctx := t.Context()

	_, err := f.svc.AddToCart(ctx, "", cart.ProductRef("fan"), 1, price(20))
	require.ErrorIs(t, err, identity.ErrUnauthenticated)

	_, err = f.svc.AddToCart(ctx, alice, cart.ItemRef{}, 1, price(20))
	require.ErrorIs(t, err, cart.ErrInvalidItemRef)

	_, err = f.svc.AddToCart(ctx, alice, cart.ProductRef("fan"), 0, price(20))
	require.ErrorIs(t, err, cart.ErrInvalidQuantity)

	_, err = f.svc.AddToCart(ctx, alice, cart.ProductRef("fan"), 1, price(-1))
	require.ErrorIs(t, err, cart.ErrInvalidPrice)

	assert.Zero(t, f.items.Len())
}

func TestUpdateQuantity(t *testing.T) {
	f := newFixture()
	ctx := t.Context()

	id, err := f.svc.AddToCart(ctx, alice, cart.ProductRef("fan"), 1, price(20))
	require.NoError(t, err)

	require.NoError(t, f.svc.UpdateQuantity(ctx, alice, id, 5))
	totals, err := f.svc.Totals(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 5, totals.ItemCount)
	assert.True(t, totals.Subtotal.Equal(price(100)))

	require.ErrorIs(t, f.svc.UpdateQuantity(ctx, bob, id, 1), cart.ErrNotFound)
	require.ErrorIs(t, f.svc.UpdateQuantity(ctx, "", id, 1), identity.ErrUnauthenticated)
	require.ErrorIs(t, f.svc.UpdateQuantity(ctx, alice, "missing", 1), cart.ErrNotFound)

	require.NoError(t, f.svc.UpdateQuantity(ctx, alice, id, 0))
	assert.Zero(t, f.items.Len())
}

func TestRemoveItem(t *testing.T) {
	f := newFixture()
	ctx := t.Context()

	id, err := f.svc.AddToCart(ctx, alice, cart.ProductRef("fan"), 1, price(20))
	require.NoError(t, err)

	require.ErrorIs(t, f.svc.RemoveItem(ctx, bob, id), cart.ErrNotFound)
	assert.Equal(t, 1, f.items.Len())

	require.NoError(t, f.svc.RemoveItem(ctx, alice, id))
	assert.Zero(t, f.items.Len())

	require.ErrorIs(t, f.svc.RemoveItem(ctx, alice, id), cart.ErrNotFound)
}

func TestClear(t *testing.T) {
	f := newFixture()
	ctx := t.Context()

	require.NoError(t, f.svc.Clear(ctx, alice), "clearing an empty cart")

	for _, ref := range []cart.ItemRef{cart.ProductRef("fan"), cart.ProductRef("gpu"), cart.PrebuiltRef("pb")} {
		_, err := f.svc.AddToCart(ctx, alice, ref, 1, price(1))
		require.NoError(t, err)
	}
	_, err := f.svc.AddToCart(ctx, bob, cart.ProductRef("fan"), 1, price(1))
	require.NoError(t, err)

	require.NoError(t, f.svc.Clear(ctx, alice))
	items, err := f.svc.Items(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 1, f.items.Len(), "other carts untouched")

	require.ErrorIs(t, f.svc.Clear(ctx, ""), identity.ErrUnauthenticated)
}

// staleList serves a cart listing captured before concurrent deletes.
type staleList struct {
	*memory.Cart
	snapshot []cart.Item
}

func (s *staleList) ListByUser(_ context.Context, _ identity.UserID) ([]cart.Item, error) {
	return s.snapshot, nil
}

func TestClear_LineAlreadyRemoved(t *testing.T) {
	f := newFixture()
	ctx := t.Context()

	gone, err := f.svc.AddToCart(ctx, alice, cart.ProductRef("fan"), 1, price(20))
	require.NoError(t, err)
	_, err = f.svc.AddToCart(ctx, alice, cart.ProductRef("gpu"), 1, price(1100))
	require.NoError(t, err)

	snapshot, err := f.items.ListByUser(ctx, alice)
	require.NoError(t, err)
	require.NoError(t, f.svc.RemoveItem(ctx, alice, gone))

	svc := cart.NewService(&staleList{Cart: f.items, snapshot: snapshot}, f.cat, f.cat, f.builds)
	require.NoError(t, svc.Clear(ctx, alice))
	assert.Zero(t, f.items.Len())
}

func TestAnonymousReads(t *testing.T) {
	f := newFixture()
	ctx := t.Context()

	items, err := f.svc.Items(ctx, "")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	totals, err := f.svc.Totals(ctx, "")
	require.NoError(t, err)
	assert.True(t, totals.Subtotal.IsZero())
	assert.Zero(t, totals.ItemCount)

	details, err := f.svc.ItemsWithDetails(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, details)
}

func TestTotals_CheckoutMath(t *testing.T) {
	f := newFixture()
	ctx := t.Context()

	_, err := f.svc.AddToCart(ctx, alice, cart.ProductRef("gpu"), 1, price(1100))
	require.NoError(t, err)

	totals, err := f.svc.Totals(ctx, alice)
	require.NoError(t, err)
	s := cart.Summarize(totals)
	assert.Equal(t, "88.00", s.Tax.StringFixed(2))
	assert.Equal(t, "0.00", s.Shipping.StringFixed(2))
	assert.Equal(t, "1188.00", s.Total.StringFixed(2))
}

func TestTotals(t *testing.T) {
	f := newFixture()
	ctx := t.Context()

	_, err := f.svc.AddToCart(ctx, alice, cart.ProductRef("fan"), 1, price(500))
	require.NoError(t, err)
	_, err = f.svc.AddToCart(ctx, alice, cart.PrebuiltRef("pb"), 2, price(300))
	require.NoError(t, err)

	totals, err := f.svc.Totals(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "1100.00", totals.Subtotal.StringFixed(2))
	assert.Equal(t, 3, totals.ItemCount)

	s := cart.Summarize(totals)
	assert.Equal(t, "88.00", s.Tax.StringFixed(2))
	assert.Equal(t, "0.00", s.Shipping.StringFixed(2))
	assert.Equal(t, "1188.00", s.Total.StringFixed(2))
}

func TestItemsWithDetails(t *testing.T) {
	f := newFixture()
	ctx := t.Context()

	require.NoError(t, f.builds.Create(ctx, &build.CustomBuild{ID: "b1", UserID: alice, Name: "My rig"}))

	for _, ref := range []cart.ItemRef{
		cart.ProductRef("gpu"),
		cart.PrebuiltRef("pb"),
		cart.CustomBuildRef("b1"),
		cart.ProductRef("fan"),
	} {
		_, err := f.svc.AddToCart(ctx, alice, ref, 1, price(1))
		require.NoError(t, err)
	}
	f.cat.DeleteProduct("fan")

	details, err := f.svc.ItemsWithDetails(ctx, alice)
	require.NoError(t, err)
	require.Len(t, details, 4)

	assert.Equal(t, "RTX", details[0].Detail.Name())
	assert.NotNil(t, details[0].Detail.Product)
	assert.Equal(t, "Starter", details[1].Detail.Name())
	assert.NotNil(t, details[1].Detail.Prebuilt)
	assert.Equal(t, "My rig", details[2].Detail.Name())
	assert.NotNil(t, details[2].Detail.Build)

	assert.Equal(t, cart.Detail{}, details[3].Detail, "dangling reference")
	assert.Equal(t, "fan", details[3].Ref.ID())
}

type failingCatalog struct {
	*memory.Catalog
}

func (failingCatalog) Product(context.Context, string) (*catalog.Product, error) {
	return nil, errors.New("connection refused")
}

func TestItemsWithDetails_StoreError(t *testing.T) {
	f := newFixture()
	ctx := t.Context()
	_, err := f.svc.AddToCart(ctx, alice, cart.ProductRef("gpu"), 1, price(1))
	require.NoError(t, err)

	svc := cart.NewService(f.items, failingCatalog{f.cat}, f.cat, f.builds)
	_, err = svc.ItemsWithDetails(ctx, alice)
	require.Error(t, err)
}

func completeSelection() build.Selection {
	sel := build.NewSelection()
	specs := map[build.Slot]catalog.Specifications{
		build.SlotCPU:         {Socket: "AM5"},
		build.SlotMotherboard: {Socket: "AM5"},
		build.SlotGPU:         {Power: 200},
		build.SlotPSU:         {Power: 650},
	}
	for _, info := range build.Slots() {
		if !info.Required {
			continue
		}
		sel.Select(info.Slot, &catalog.Product{
			ID:    "p-" + string(info.Slot),
			Price: price(100),
			Specs: specs[info.Slot],
		})
	}
	return sel
}

func TestAddBuild(t *testing.T) {
	f := newFixture()
	ctx := t.Context()

	ids, err := f.svc.AddBuild(ctx, alice, completeSelection())
	require.NoError(t, err)
	assert.Len(t, ids, 7)

	totals, err := f.svc.Totals(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 7, totals.ItemCount)
	assert.True(t, totals.Subtotal.Equal(price(700)))
}

func TestAddBuild_NotSubmittable(t *testing.T) {
	f := newFixture()
	ctx := t.Context()

	sel := completeSelection()
	sel.Clear(build.SlotCase)
	sel.Select(build.SlotCPU, &catalog.Product{ID: "cpu-intel", Price: price(1), Specs: catalog.Specifications{Socket: "LGA1700"}})

	_, err := f.svc.AddBuild(ctx, alice, sel)
	var notReady *cart.BuildNotSubmittableError
	require.ErrorAs(t, err, &notReady)
	assert.Equal(t, []build.Slot{build.SlotCase}, notReady.Missing)
	assert.Equal(t, []string{build.IssueSocketMismatch}, notReady.Issues)
	assert.Contains(t, err.Error(), "missing case")
	assert.Zero(t, f.items.Len())

	_, err = f.svc.AddBuild(ctx, "", completeSelection())
	require.ErrorIs(t, err, identity.ErrUnauthenticated)
}
