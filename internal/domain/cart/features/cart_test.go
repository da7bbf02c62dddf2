package features

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/rigforge/internal/domain/cart"
	"github.com/xenking/rigforge/internal/domain/catalog"
	"github.com/xenking/rigforge/internal/domain/identity"
	"github.com/xenking/rigforge/internal/storage/memory"
)

type cartContext struct {
	catalog *memory.Catalog
	svc     *cart.Service
	err     error
}

func (c *cartContext) reset() {
	c.catalog = memory.NewCatalog()
	c.svc = cart.NewService(memory.NewCart(), c.catalog, c.catalog, memory.NewBuilds())
	c.err = nil
}

func (c *cartContext) theCatalogHasProduct(id, name, price string) error {
	d, err := decimal.NewFromString(price)
	if err != nil {
		return err
	}
	c.catalog.AddProduct(catalog.Product{ID: id, Name: name, Type: catalog.TypeComponent, Price: d, InStock: true})
	return nil
}

func (c *cartContext) theCatalogHasPrebuilt(id, name, price string) error {
	d, err := decimal.NewFromString(price)
	if err != nil {
		return err
	}
	c.catalog.AddPrebuilt(catalog.PrebuiltConfig{ID: id, Name: name, Tier: catalog.TierMid, Price: d, InStock: true})
	return nil
}

func (c *cartContext) thePriceChanges(id, price string) error {
	p, err := c.catalog.Product(context.Background(), id)
	if err != nil {
		return err
	}
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return err
	}
	c.catalog.AddProduct(*p)
	return nil
}

// currentPrice resolves the server-side price of ref.
func (c *cartContext) currentPrice(ctx context.Context, ref cart.ItemRef) (decimal.Decimal, error) {
	switch ref.Kind() {
	case cart.RefProduct:
		p, err := c.catalog.Product(ctx, ref.ID())
		if err != nil {
			return decimal.Zero, err
		}
		return p.Price, nil
	case cart.RefPrebuilt:
		p, err := c.catalog.Prebuilt(ctx, ref.ID())
		if err != nil {
			return decimal.Zero, err
		}
		return p.Price, nil
	}
	return decimal.Zero, errors.Errorf("unsupported reference %s", ref)
}

func (c *cartContext) add(user identity.UserID, qty int, kind, id string) error {
	ctx := context.Background()
	k, ok := cart.ParseRefKind(kind)
	if !ok {
		return errors.Errorf("unknown kind %q", kind)
	}
	ref, err := cart.NewItemRef(k, id)
	if err != nil {
		return err
	}
	price, err := c.currentPrice(ctx, ref)
	if err != nil {
		return err
	}
	_, c.err = c.svc.AddToCart(ctx, user, ref, qty, price)
	return nil
}

func (c *cartContext) userAdds(user string, qty int, kind, id string) error {
	if err := c.add(identity.UserID(user), qty, kind, id); err != nil {
		return err
	}
	if c.err != nil && qty > 0 {
		return c.err
	}
	return nil
}

func (c *cartContext) anonymousAdds(qty int, kind, id string) error {
	return c.add("", qty, kind, id)
}

func (c *cartContext) userSetsQuantity(user, kind, id string, qty int) error {
	ctx := context.Background()
	items, err := c.svc.Items(ctx, identity.UserID(user))
	if err != nil {
		return err
	}
	for _, item := range items {
		if item.Ref.Kind().String() == kind && item.Ref.ID() == id {
			return c.svc.UpdateQuantity(ctx, identity.UserID(user), item.ID, qty)
		}
	}
	return errors.Errorf("%s has no line for %s %s", user, kind, id)
}

func (c *cartContext) userClears(user string) error {
	return c.svc.Clear(context.Background(), identity.UserID(user))
}

func (c *cartContext) cartHas(user string, lines int, items int) error {
	ctx := context.Background()
	got, err := c.svc.Items(ctx, identity.UserID(user))
	if err != nil {
		return err
	}
	if len(got) != lines {
		return fmt.Errorf("expected %d lines, got %d", lines, len(got))
	}
	totals, err := c.svc.Totals(ctx, identity.UserID(user))
	if err != nil {
		return err
	}
	if totals.ItemCount != items {
		return fmt.Errorf("expected %d items, got %d", items, totals.ItemCount)
	}
	return nil
}

func (c *cartContext) cartTotals(user, subtotal, tax, shipping, total string) error {
	totals, err := c.svc.Totals(context.Background(), identity.UserID(user))
	if err != nil {
		return err
	}
	s := cart.Summarize(totals)
	for _, check := range []struct {
		name string
		want string
		got  decimal.Decimal
	}{
		{"subtotal", subtotal, s.Subtotal},
		{"tax", tax, s.Tax},
		{"shipping", shipping, s.Shipping},
		{"total", total, s.Total},
	} {
		if got := check.got.StringFixed(2); got != check.want {
			return fmt.Errorf("expected %s %s, got %s", check.name, check.want, got)
		}
	}
	return nil
}

func (c *cartContext) cartLists(user, names string) error {
	details, err := c.svc.ItemsWithDetails(context.Background(), identity.UserID(user))
	if err != nil {
		return err
	}
	got := make([]string, len(details))
	for i, d := range details {
		got[i] = d.Detail.Name()
	}
	if joined := strings.Join(got, ", "); joined != names {
		return fmt.Errorf("expected %q, got %q", names, joined)
	}
	return nil
}

func (c *cartContext) cartIsEmpty(user string) error {
	return c.cartHas(user, 0, 0)
}

func (c *cartContext) rejectedAs(msg string) error {
	if c.err == nil {
		return errors.New("expected the request to fail but it succeeded")
	}
	if !strings.Contains(c.err.Error(), msg) {
		return fmt.Errorf("expected error containing %q, got %q", msg, c.err.Error())
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &cartContext{}

	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^the catalog has product "([^"]*)" named "([^"]*)" priced ([\d.]+)$`, tc.theCatalogHasProduct)
	ctx.Step(`^the catalog has prebuilt "([^"]*)" named "([^"]*)" priced ([\d.]+)$`, tc.theCatalogHasPrebuilt)

	// When steps
	ctx.Step(`^the price of product "([^"]*)" changes to ([\d.]+)$`, tc.thePriceChanges)
	ctx.Step(`^"([^"]*)" adds (\d+) of (product|prebuilt|custom) "([^"]*)"$`, tc.userAdds)
	ctx.Step(`^an anonymous shopper adds (\d+) of (product|prebuilt|custom) "([^"]*)"$`, tc.anonymousAdds)
	ctx.Step(`^"([^"]*)" sets the quantity of (product|prebuilt|custom) "([^"]*)" to (\d+)$`, tc.userSetsQuantity)
	ctx.Step(`^"([^"]*)" clears the cart$`, tc.userClears)

	// Then steps
	ctx.Step(`^the cart of "([^"]*)" has (\d+) lines? and (\d+) items?$`, tc.cartHas)
	ctx.Step(`^the cart of "([^"]*)" totals ([\d.]+) subtotal, ([\d.]+) tax, ([\d.]+) shipping and ([\d.]+) total$`, tc.cartTotals)
	ctx.Step(`^the cart of "([^"]*)" lists "([^"]*)"$`, tc.cartLists)
	ctx.Step(`^the cart of "([^"]*)" is empty$`, tc.cartIsEmpty)
	ctx.Step(`^the request is rejected as "([^"]*)"$`, tc.rejectedAs)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"cart.feature"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
