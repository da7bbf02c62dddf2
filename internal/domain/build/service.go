package build

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/rigforge/internal/domain/catalog"
	"github.com/xenking/rigforge/internal/domain/identity"
)

// Service resolves product picks into selections and manages saved builds.
type Service struct {
	products catalog.ProductReader
	builds   Repository
	now      func() time.Time
}

// NewService creates a build Service.
func NewService(products catalog.ProductReader, builds Repository) *Service {
	return &Service{
		products: products,
		builds:   builds,
		now:      time.Now,
	}
}

// Resolve loads the picked products concurrently and places them into their
// slots. Empty product IDs leave the slot empty.
func (s *Service) Resolve(ctx context.Context, picks map[Slot]string) (Selection, error) {
	type pick struct {
		slot Slot
		id   string
	}
	for slot := range picks {
		if !slot.Valid() {
			return Selection{}, errors.Wrapf(ErrInvalidSlot, "%q", slot)
		}
	}
	var todo []pick
	for _, info := range slots {
		if id := picks[info.Slot]; id != "" {
			todo = append(todo, pick{slot: info.Slot, id: id})
		}
	}

	found := make([]*catalog.Product, len(todo))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range todo {
		g.Go(func() error {
			product, err := s.products.Product(gctx, p.id)
			if errors.Is(err, catalog.ErrNotFound) {
				return &ComponentNotFoundError{Slot: p.slot, ProductID: p.id}
			}
			if err != nil {
				return errors.Wrapf(err, "get %s %s", p.slot, p.id)
			}
			found[i] = product
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Selection{}, err
	}

	sel := NewSelection()
	for i, p := range todo {
		sel.Select(p.slot, found[i])
	}
	return sel, nil
}

// Save persists sel as a named build owned by user, recording the current
// price and compatibility issues.
func (s *Service) Save(ctx context.Context, user identity.UserID, name string, public bool, sel Selection) (*CustomBuild, error) {
	if err := user.Require(); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	components := make(map[Slot]string)
	for _, slot := range sel.Filled() {
		components[slot] = sel.Get(slot).ID
	}

	b := &CustomBuild{
		ID:         uuid.New().String(),
		UserID:     user,
		Name:       name,
		Components: components,
		TotalPrice: TotalPrice(sel).Round(2),
		Public:     public,
		Issues:     CheckCompatibility(sel),
		CreatedAt:  s.now().UTC(),
	}
	if err := s.builds.Create(ctx, b); err != nil {
		return nil, errors.Wrap(err, "create build")
	}
	return b, nil
}

// Get returns a build visible to user: their own, or any public one.
func (s *Service) Get(ctx context.Context, user identity.UserID, id string) (*CustomBuild, error) {
	b, err := s.builds.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.Public && b.UserID != user {
		return nil, ErrNotFound
	}
	return b, nil
}

// List returns the builds saved by user. Anonymous users have none.
func (s *Service) List(ctx context.Context, user identity.UserID) ([]CustomBuild, error) {
	if user.Anonymous() {
		return []CustomBuild{}, nil
	}
	return s.builds.ListByUser(ctx, user)
}

// Load resolves a saved build back into a selection using current catalog
// data.
func (s *Service) Load(ctx context.Context, b *CustomBuild) (Selection, error) {
	return s.Resolve(ctx, b.Components)
}
