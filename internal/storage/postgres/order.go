package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/rigforge/internal/domain/identity"
	"github.com/xenking/rigforge/internal/domain/order"
)

const (
	orderColumns = `id, order_number, user_id, items, subtotal, tax, shipping, total,
		status, payment_status, shipping_address, payment_method, created_at`

	insertOrderSQL = `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	getOrderByNumberSQL = `SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1`

	listOrdersSQL = `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	insertOutboxSQL = `INSERT INTO outbox (event_id, topic, key, payload) VALUES ($1, $2, $3, $4)`

	consumeCartLineSQL = `DELETE FROM cart_items WHERE id = $1 AND user_id = $2 AND quantity = $3`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order, queues its PlacedEvent keyed by order ID in the
// outbox and deletes the consumed cart lines, all in one transaction. Items and
// address are serialized to JSON for the JSONB columns.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order, ev order.PlacedEvent, lines []order.CartLine) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return errors.Wrap(err, "marshal order items")
	}
	addressJSON, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return errors.Wrap(err, "marshal shipping address")
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshal placed event")
	}

	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, l := range lines {
			tag, err := tx.Exec(ctx, consumeCartLineSQL, l.ID, o.UserID.String(), l.Quantity)
			if err != nil {
				return errors.Wrapf(err, "consume cart line %q", l.ID)
			}
			if tag.RowsAffected() == 0 {
				return order.ErrCartChanged
			}
		}

		_, err := tx.Exec(ctx, insertOrderSQL,
			o.ID, o.Number, o.UserID.String(), itemsJSON, o.Subtotal, o.Tax, o.Shipping, o.Total,
			string(o.Status), string(o.PaymentStatus), addressJSON, o.PaymentMethod, o.CreatedAt,
		)
		if err != nil {
			return errors.Wrapf(err, "create order %q", o.Number)
		}
		if _, err := tx.Exec(ctx, insertOutboxSQL, uuid.NewString(), order.TopicPlaced, o.ID, payload); err != nil {
			return errors.Wrapf(err, "queue event for order %q", o.Number)
		}
		return nil
	})
}

func (r *OrderRepository) GetByNumber(ctx context.Context, number string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByNumberSQL, number)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %q", number)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %q", number)
	}
	return &o, nil
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, user identity.UserID) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL, user.String())
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return pgx.CollectRows(rows, scanOrder)
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o                 order.Order
		user              string
		status, payStatus string
		itemsJSON         []byte
		addressJSON       []byte
	)
	err := row.Scan(
		&o.ID, &o.Number, &user, &itemsJSON, &o.Subtotal, &o.Tax, &o.Shipping, &o.Total,
		&status, &payStatus, &addressJSON, &o.PaymentMethod, &o.CreatedAt,
	)
	if err != nil {
		return o, err
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return o, errors.Wrapf(err, "unmarshal items of %q", o.Number)
	}
	if err := json.Unmarshal(addressJSON, &o.ShippingAddress); err != nil {
		return o, errors.Wrapf(err, "unmarshal address of %q", o.Number)
	}
	o.UserID = identity.UserID(user)
	o.Status = order.Status(status)
	o.PaymentStatus = order.PaymentStatus(payStatus)
	return o, nil
}
