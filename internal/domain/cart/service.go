package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/rigforge/internal/domain/build"
	"github.com/xenking/rigforge/internal/domain/catalog"
	"github.com/xenking/rigforge/internal/domain/identity"
)

// BuildNotSubmittableError is returned when a custom build is added to the
// cart while incomplete or incompatible.
type BuildNotSubmittableError struct {
	Missing []build.Slot
	Issues  []string
}

func (e *BuildNotSubmittableError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		names := make([]string, len(e.Missing))
		for i, s := range e.Missing {
			names[i] = string(s)
		}
		parts = append(parts, "missing "+strings.Join(names, ", "))
	}
	parts = append(parts, e.Issues...)
	return fmt.Sprintf("build cannot be submitted: %s", strings.Join(parts, "; "))
}

// Service is the cart aggregator for all users. Every operation takes the
// caller explicitly.
type Service struct {
	items     Repository
	products  catalog.ProductReader
	prebuilts catalog.PrebuiltReader
	builds    BuildReader
	now       func() time.Time
}

// NewService creates a cart Service.
func NewService(
	items Repository,
	products catalog.ProductReader,
	prebuilts catalog.PrebuiltReader,
	builds BuildReader,
) *Service {
	return &Service{
		items:     items,
		products:  products,
		prebuilts: prebuilts,
		builds:    builds,
		now:       time.Now,
	}
}

// AddToCart merges quantity into the user's line for ref, or creates the line
// with price as its snapshot. An existing line keeps its original price.
// It returns the ID of the affected line.
func (s *Service) AddToCart(ctx context.Context, user identity.UserID, ref ItemRef, quantity int, price decimal.Decimal) (string, error) {
	if err := user.Require(); err != nil {
		return "", err
	}
	if !ref.Valid() {
		return "", ErrInvalidItemRef
	}
	if quantity <= 0 {
		return "", ErrInvalidQuantity
	}
	if price.IsNegative() {
		return "", ErrInvalidPrice
	}

	existing, err := s.items.FindByRef(ctx, user, ref)
	switch {
	case err == nil:
		if err := s.items.AddQuantity(ctx, existing.ID, quantity); err != nil {
			return "", errors.Wrapf(err, "increment %s", existing.ID)
		}
		return existing.ID, nil
	case errors.Is(err, ErrNotFound):
	default:
		return "", errors.Wrapf(err, "find %s", ref)
	}

	item := &Item{
		ID:        uuid.New().String(),
		UserID:    user,
		Ref:       ref,
		Quantity:  quantity,
		Price:     price,
		CreatedAt: s.now().UTC(),
	}
	if err := s.items.Insert(ctx, item); err != nil {
		return "", errors.Wrapf(err, "insert %s", ref)
	}
	return item.ID, nil
}

// AddBuild adds every part of a submittable selection as a product line.
func (s *Service) AddBuild(ctx context.Context, user identity.UserID, sel build.Selection) ([]string, error) {
	if err := user.Require(); err != nil {
		return nil, err
	}
	if !build.CanSubmit(sel) {
		return nil, &BuildNotSubmittableError{
			Missing: sel.Missing(),
			Issues:  build.CheckCompatibility(sel),
		}
	}

	var ids []string
	for _, slot := range sel.Filled() {
		p := sel.Get(slot)
		id, err := s.AddToCart(ctx, user, ProductRef(p.ID), 1, p.Price)
		if err != nil {
			return ids, errors.Wrapf(err, "add %s", slot)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// owned loads an item and checks it belongs to user.
func (s *Service) owned(ctx context.Context, user identity.UserID, id string) (*Item, error) {
	item, err := s.items.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.UserID != user {
		return nil, ErrNotFound
	}
	return item, nil
}

// UpdateQuantity sets the quantity of the user's line. A non-positive
// quantity removes the line.
func (s *Service) UpdateQuantity(ctx context.Context, user identity.UserID, id string, quantity int) error {
	if err := user.Require(); err != nil {
		return err
	}
	item, err := s.owned(ctx, user, id)
	if err != nil {
		return err
	}
	if quantity <= 0 {
		return s.items.Delete(ctx, item.ID)
	}
	return s.items.SetQuantity(ctx, item.ID, quantity)
}

// RemoveItem deletes the user's line.
func (s *Service) RemoveItem(ctx context.Context, user identity.UserID, id string) error {
	if err := user.Require(); err != nil {
		return err
	}
	item, err := s.owned(ctx, user, id)
	if err != nil {
		return err
	}
	return s.items.Delete(ctx, item.ID)
}

// Clear deletes every line of the user's cart. Lines removed concurrently
// count as cleared.
func (s *Service) Clear(ctx context.Context, user identity.UserID) error {
	if err := user.Require(); err != nil {
		return err
	}
	items, err := s.items.ListByUser(ctx, user)
	if err != nil {
		return errors.Wrap(err, "list cart")
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, item := range items {
		g.Go(func() error {
			err := s.items.Delete(gctx, item.ID)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return errors.Wrapf(err, "delete %s", item.ID)
			}
			return nil
		})
	}
	return g.Wait()
}

// Items returns the user's lines. Anonymous users have an empty cart.
func (s *Service) Items(ctx context.Context, user identity.UserID) ([]Item, error) {
	if user.Anonymous() {
		return []Item{}, nil
	}
	return s.items.ListByUser(ctx, user)
}

// Totals sums the user's cart. Anonymous users get zero totals.
func (s *Service) Totals(ctx context.Context, user identity.UserID) (Totals, error) {
	items, err := s.Items(ctx, user)
	if err != nil {
		return Totals{}, errors.Wrap(err, "list cart")
	}
	return Sum(items), nil
}

// Sum aggregates items.
func Sum(items []Item) Totals {
	t := Totals{Subtotal: decimal.Zero}
	for _, item := range items {
		t.Subtotal = t.Subtotal.Add(item.LineTotal())
		t.ItemCount += item.Quantity
	}
	return t
}

// ItemsWithDetails returns the user's lines joined with the records they
// reference. Lookups run concurrently; a dangling reference yields an empty
// Detail while any other failure fails the call.
func (s *Service) ItemsWithDetails(ctx context.Context, user identity.UserID) ([]ItemWithDetails, error) {
	items, err := s.Items(ctx, user)
	if err != nil {
		return nil, errors.Wrap(err, "list cart")
	}

	out := make([]ItemWithDetails, len(items))
	g, gctx := errgroup.WithContext(ctx)
	for i, item := range items {
		g.Go(func() error {
			d, err := s.detail(gctx, item.Ref)
			if err != nil {
				return errors.Wrapf(err, "resolve %s", item.Ref)
			}
			out[i] = ItemWithDetails{Item: item, Detail: d}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) detail(ctx context.Context, ref ItemRef) (Detail, error) {
	var (
		d   Detail
		err error
	)
	switch ref.Kind() {
	case RefProduct:
		d.Product, err = s.products.Product(ctx, ref.ID())
	case RefPrebuilt:
		d.Prebuilt, err = s.prebuilts.Prebuilt(ctx, ref.ID())
	case RefCustomBuild:
		d.Build, err = s.builds.Get(ctx, ref.ID())
	}
	if errors.Is(err, catalog.ErrNotFound) || errors.Is(err, build.ErrNotFound) {
		return Detail{}, nil
	}
	return d, err
}
