package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/rigforge/internal/domain/cart"
	"github.com/xenking/rigforge/internal/domain/identity"
)

const (
	cartColumns = `id, user_id, ref_kind, ref_id, quantity, price_at_add, created_at`

	getCartItemSQL = `SELECT ` + cartColumns + ` FROM cart_items WHERE id = $1`

	listCartItemsSQL = `SELECT ` + cartColumns + ` FROM cart_items WHERE user_id = $1 ORDER BY created_at, id`

	findCartItemSQL = `SELECT ` + cartColumns + ` FROM cart_items
		WHERE user_id = $1 AND ref_kind = $2 AND ref_id = $3`

	// A concurrent add of the same reference merges into the existing row;
	// the first captured price is kept.
	insertCartItemSQL = `INSERT INTO cart_items (id, user_id, ref_kind, ref_id, quantity, price_at_add, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, ref_kind, ref_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING id`

	addCartQuantitySQL = `UPDATE cart_items SET quantity = quantity + $2 WHERE id = $1`

	setCartQuantitySQL = `UPDATE cart_items SET quantity = $2 WHERE id = $1`

	deleteCartItemSQL = `DELETE FROM cart_items WHERE id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

func (r *CartRepository) Get(ctx context.Context, id string) (*cart.Item, error) {
	rows, err := r.pool.Query(ctx, getCartItemSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get cart item %q", id)
	}
	return collectCartItem(rows)
}

// ListByUser returns the user's items in insertion order.
func (r *CartRepository) ListByUser(ctx context.Context, user identity.UserID) ([]cart.Item, error) {
	rows, err := r.pool.Query(ctx, listCartItemsSQL, user.String())
	if err != nil {
		return nil, errors.Wrap(err, "list cart items")
	}
	return pgx.CollectRows(rows, scanCartItem)
}

func (r *CartRepository) FindByRef(ctx context.Context, user identity.UserID, ref cart.ItemRef) (*cart.Item, error) {
	rows, err := r.pool.Query(ctx, findCartItemSQL, user.String(), ref.Kind().String(), ref.ID())
	if err != nil {
		return nil, errors.Wrapf(err, "find cart item %s", ref)
	}
	return collectCartItem(rows)
}

// Insert stores item. On a reference collision the quantities are merged and
// item.ID is replaced with the existing row's ID.
func (r *CartRepository) Insert(ctx context.Context, item *cart.Item) error {
	var id string
	err := r.pool.QueryRow(ctx, insertCartItemSQL,
		item.ID, item.UserID.String(), item.Ref.Kind().String(), item.Ref.ID(),
		item.Quantity, item.Price, item.CreatedAt,
	).Scan(&id)
	if err != nil {
		return errors.Wrapf(err, "insert cart item %s", item.Ref)
	}
	item.ID = id
	return nil
}

func (r *CartRepository) AddQuantity(ctx context.Context, id string, delta int) error {
	return r.exec(ctx, addCartQuantitySQL, id, delta)
}

func (r *CartRepository) SetQuantity(ctx context.Context, id string, quantity int) error {
	return r.exec(ctx, setCartQuantitySQL, id, quantity)
}

func (r *CartRepository) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, deleteCartItemSQL, id)
}

func (r *CartRepository) exec(ctx context.Context, sql, id string, args ...any) error {
	tag, err := r.pool.Exec(ctx, sql, append([]any{id}, args...)...)
	if err != nil {
		return errors.Wrapf(err, "update cart item %q", id)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrNotFound
	}
	return nil
}

func collectCartItem(rows pgx.Rows) (*cart.Item, error) {
	item, err := pgx.CollectExactlyOneRow(rows, scanCartItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotFound
		}
		return nil, errors.Wrap(err, "scan cart item")
	}
	return &item, nil
}

func scanCartItem(row pgx.CollectableRow) (cart.Item, error) {
	var (
		it    cart.Item
		user  string
		kind  string
		refID string
	)
	if err := row.Scan(&it.ID, &user, &kind, &refID, &it.Quantity, &it.Price, &it.CreatedAt); err != nil {
		return it, err
	}
	k, ok := cart.ParseRefKind(kind)
	if !ok {
		return it, errors.Errorf("unknown ref kind %q", kind)
	}
	ref, err := cart.NewItemRef(k, refID)
	if err != nil {
		return it, err
	}
	it.UserID = identity.UserID(user)
	it.Ref = ref
	return it, nil
}
