// Package build implements the custom PC configurator: the compatibility and
// pricing engine over a slot selection, and saved custom builds.
package build

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/rigforge/internal/domain/identity"
)

// ErrNotFound is returned when a saved build does not exist or is not visible
// to the caller.
var ErrNotFound = errors.New("custom build not found")

// ErrInvalidSlot is returned for slot names outside the configurator.
var ErrInvalidSlot = errors.New("unknown build slot")

// ErrEmptyName is returned when saving a build without a name.
var ErrEmptyName = errors.New("build name required")

// ComponentNotFoundError indicates a picked product does not exist.
type ComponentNotFoundError struct {
	Slot      Slot
	ProductID string
}

func (e *ComponentNotFoundError) Error() string {
	return fmt.Sprintf("component %s for slot %s not found", e.ProductID, e.Slot)
}

// CustomBuild is a selection saved by a user.
type CustomBuild struct {
	ID         string
	UserID     identity.UserID
	Name       string
	Components map[Slot]string
	TotalPrice decimal.Decimal
	Public     bool
	Issues     []string
	CreatedAt  time.Time
}

// Repository persists saved custom builds.
type Repository interface {
	Create(ctx context.Context, b *CustomBuild) error
	// Get returns ErrNotFound when no build has the given ID.
	Get(ctx context.Context, id string) (*CustomBuild, error)
	ListByUser(ctx context.Context, user identity.UserID) ([]CustomBuild, error)
}
