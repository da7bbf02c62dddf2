package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/xenking/rigforge/internal/domain/build"
	"github.com/xenking/rigforge/internal/domain/identity"
)

var _ build.Repository = (*Builds)(nil)

// Builds is an in-memory build.Repository.
type Builds struct {
	mu     sync.RWMutex
	builds []build.CustomBuild
}

// NewBuilds returns an empty Builds.
func NewBuilds() *Builds {
	return &Builds{}
}

func (b *Builds) Create(_ context.Context, cb *build.CustomBuild) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	stored := *cb
	stored.Components = maps.Clone(cb.Components)
	stored.Issues = slices.Clone(cb.Issues)
	b.builds = append(b.builds, stored)
	return nil
}

func (b *Builds) Get(_ context.Context, id string) (*build.CustomBuild, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, cb := range b.builds {
		if cb.ID == id {
			return &cb, nil
		}
	}
	return nil, build.ErrNotFound
}

func (b *Builds) ListByUser(_ context.Context, user identity.UserID) ([]build.CustomBuild, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := []build.CustomBuild{}
	for _, cb := range b.builds {
		if cb.UserID == user {
			out = append(out, cb)
		}
	}
	return out, nil
}
