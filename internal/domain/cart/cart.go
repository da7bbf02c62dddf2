// Package cart maintains per-user shopping carts and computes order-ready
// totals.
package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/rigforge/internal/domain/build"
	"github.com/xenking/rigforge/internal/domain/catalog"
	"github.com/xenking/rigforge/internal/domain/identity"
)

// Sentinel errors for cart operations.
var (
	ErrNotFound        = errors.New("cart item not found")
	ErrInvalidItemRef  = errors.New("item reference must name exactly one product, prebuilt config or custom build")
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
	ErrInvalidPrice    = errors.New("price must not be negative")
)

// RefKind discriminates the item reference union.
type RefKind uint8

const (
	RefProduct RefKind = iota + 1
	RefPrebuilt
	RefCustomBuild
)

func (k RefKind) String() string {
	switch k {
	case RefProduct:
		return "product"
	case RefPrebuilt:
		return "prebuilt"
	case RefCustomBuild:
		return "custom"
	default:
		return fmt.Sprintf("RefKind(%d)", uint8(k))
	}
}

// ParseRefKind is the inverse of RefKind.String.
func ParseRefKind(s string) (RefKind, bool) {
	switch s {
	case "product":
		return RefProduct, true
	case "prebuilt":
		return RefPrebuilt, true
	case "custom":
		return RefCustomBuild, true
	}
	return 0, false
}

// ItemRef points a line item at exactly one sellable record.
type ItemRef struct {
	kind RefKind
	id   string
}

// NewItemRef validates kind and id.
func NewItemRef(kind RefKind, id string) (ItemRef, error) {
	if id == "" {
		return ItemRef{}, ErrInvalidItemRef
	}
	switch kind {
	case RefProduct, RefPrebuilt, RefCustomBuild:
		return ItemRef{kind: kind, id: id}, nil
	}
	return ItemRef{}, ErrInvalidItemRef
}

// ProductRef references a catalog product.
func ProductRef(id string) ItemRef { return ItemRef{kind: RefProduct, id: id} }

// PrebuiltRef references a pre-built configuration.
func PrebuiltRef(id string) ItemRef { return ItemRef{kind: RefPrebuilt, id: id} }

// CustomBuildRef references a saved custom build.
func CustomBuildRef(id string) ItemRef { return ItemRef{kind: RefCustomBuild, id: id} }

// Kind reports which table the reference points into.
func (r ItemRef) Kind() RefKind { return r.kind }

// ID returns the referenced product, pre-built or custom build ID.
func (r ItemRef) ID() string { return r.id }

// Valid reports whether r was built by one of the constructors with a
// non-empty id.
func (r ItemRef) Valid() bool {
	_, err := NewItemRef(r.kind, r.id)
	return err == nil
}

func (r ItemRef) String() string { return r.kind.String() + ":" + r.id }

// Item is a cart line.
type Item struct {
	ID       string
	UserID   identity.UserID
	Ref      ItemRef
	Quantity int
	// Price is the unit price captured when the line was first added.
	Price     decimal.Decimal
	CreatedAt time.Time
}

// LineTotal is Price × Quantity.
func (i Item) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Detail is the record an item refers to. At most one field is set; all are
// nil when the reference dangles.
type Detail struct {
	Product  *catalog.Product
	Prebuilt *catalog.PrebuiltConfig
	Build    *build.CustomBuild
}

// Name returns the display name of the referenced record, or "".
func (d Detail) Name() string {
	switch {
	case d.Product != nil:
		return d.Product.Name
	case d.Prebuilt != nil:
		return d.Prebuilt.Name
	case d.Build != nil:
		return d.Build.Name
	}
	return ""
}

// ItemWithDetails is a cart line joined with what it refers to.
type ItemWithDetails struct {
	Item
	Detail Detail
}

// Totals aggregates a cart.
type Totals struct {
	Subtotal  decimal.Decimal
	ItemCount int
}

// Repository is the cart item store.
type Repository interface {
	// Get returns ErrNotFound when no item has the given ID.
	Get(ctx context.Context, id string) (*Item, error)
	ListByUser(ctx context.Context, user identity.UserID) ([]Item, error)
	// FindByRef returns the user's item with the identical reference, or
	// ErrNotFound.
	FindByRef(ctx context.Context, user identity.UserID, ref ItemRef) (*Item, error)
	Insert(ctx context.Context, item *Item) error
	// AddQuantity atomically increments the stored quantity by delta.
	AddQuantity(ctx context.Context, id string, delta int) error
	SetQuantity(ctx context.Context, id string, quantity int) error
	Delete(ctx context.Context, id string) error
}

// BuildReader resolves saved custom builds for item details.
type BuildReader interface {
	Get(ctx context.Context, id string) (*build.CustomBuild, error)
}
