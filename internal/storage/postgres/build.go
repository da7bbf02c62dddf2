package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/rigforge/internal/domain/build"
	"github.com/xenking/rigforge/internal/domain/identity"
)

const (
	buildColumns = `id, user_id, name, components, total_price, is_public, issues, created_at`

	insertBuildSQL = `INSERT INTO custom_builds (` + buildColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	getBuildSQL = `SELECT ` + buildColumns + ` FROM custom_builds WHERE id = $1`

	listBuildsSQL = `SELECT ` + buildColumns + ` FROM custom_builds WHERE user_id = $1 ORDER BY created_at DESC`
)

var _ build.Repository = (*BuildRepository)(nil)

// BuildRepository implements build.Repository backed by PostgreSQL.
type BuildRepository struct {
	pool *pgxpool.Pool
}

// NewBuildRepository returns a BuildRepository that uses the given pool.
func NewBuildRepository(pool *pgxpool.Pool) *BuildRepository {
	return &BuildRepository{pool: pool}
}

func (r *BuildRepository) Create(ctx context.Context, b *build.CustomBuild) error {
	components := make(map[string]string, len(b.Components))
	for slot, id := range b.Components {
		components[string(slot)] = id
	}
	issues := b.Issues
	if issues == nil {
		issues = []string{}
	}
	_, err := r.pool.Exec(ctx, insertBuildSQL,
		b.ID, b.UserID.String(), b.Name, components, b.TotalPrice, b.Public, issues, b.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "create build %q", b.ID)
	}
	return nil
}

func (r *BuildRepository) Get(ctx context.Context, id string) (*build.CustomBuild, error) {
	rows, err := r.pool.Query(ctx, getBuildSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get build %q", id)
	}
	b, err := pgx.CollectExactlyOneRow(rows, scanBuild)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, build.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get build %q", id)
	}
	return &b, nil
}

// ListByUser returns the user's builds, newest first.
func (r *BuildRepository) ListByUser(ctx context.Context, user identity.UserID) ([]build.CustomBuild, error) {
	rows, err := r.pool.Query(ctx, listBuildsSQL, user.String())
	if err != nil {
		return nil, errors.Wrap(err, "list builds")
	}
	return pgx.CollectRows(rows, scanBuild)
}

func scanBuild(row pgx.CollectableRow) (build.CustomBuild, error) {
	var (
		b          build.CustomBuild
		user       string
		components map[string]string
	)
	err := row.Scan(&b.ID, &user, &b.Name, &components, &b.TotalPrice, &b.Public, &b.Issues, &b.CreatedAt)
	if err != nil {
		return b, err
	}
	b.UserID = identity.UserID(user)
	b.Components = make(map[build.Slot]string, len(components))
	for slot, id := range components {
		b.Components[build.Slot(slot)] = id
	}
	return b, nil
}
