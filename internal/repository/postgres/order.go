package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/storefront-labs/orderengine/internal/domain"
	"github.com/storefront-labs/orderengine/internal/repository"
	"github.com/storefront-labs/orderengine/pkg/database"
	apperrors "github.com/storefront-labs/orderengine/pkg/errors"
)

// orderSelect loads an order with its items aggregated into one JSONB
// column, avoiding a second query per order.
const orderSelect = `
		SELECT
			o.id, o.user_id, o.status, o.shipping_info, o.payment_info,
			o.items_price, o.tax_price, o.shipping_price, o.total_price,
			o.shipped_stock_applied, o.paid_at, o.shipped_at, o.delivered_at,
			o.version, o.created_at, o.updated_at,
			COALESCE((
				SELECT JSONB_AGG(
					JSONB_BUILD_OBJECT(
						'id', oi.id,
						'order_id', oi.order_id,
						'product_id', oi.product_id,
						'name', oi.name,
						'price', oi.price,
						'quantity', oi.quantity
					) ORDER BY oi.position
				)
				FROM order_items oi
				WHERE oi.order_id = o.id
			), '[]'::jsonb) AS items
		FROM orders o`

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	db     database.DBTX
	tracer *database.QueryTracer
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(db database.DBTX, tracer *database.QueryTracer) *OrderRepository {
	return &OrderRepository{db: db, tracer: tracer}
}

// Create inserts a new order and its items atomically. Inside a store
// transaction the nested Begin becomes a savepoint.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) (err error) {
	orderQuery := `
		INSERT INTO orders (id, user_id, status, shipping_info, payment_info,
			items_price, tax_price, shipping_price, total_price, shipped_stock_applied,
			paid_at, shipped_at, delivered_at, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	ctx, end := r.tracer.Trace(ctx, "orders.Create", orderQuery)
	defer func() { end(err) }()

	shippingJSON, err := json.Marshal(o.ShippingInfo)
	if err != nil {
		return fmt.Errorf("marshal shipping info: %w", err)
	}
	paymentJSON, err := json.Marshal(o.PaymentInfo)
	if err != nil {
		return fmt.Errorf("marshal payment info: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return mapError(err, "begin transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx, orderQuery,
		o.ID,
		o.UserID,
		o.Status,
		shippingJSON,
		paymentJSON,
		o.ItemsPrice,
		o.TaxPrice,
		o.ShippingPrice,
		o.TotalPrice,
		o.ShippedStockApplied,
		o.PaidAt,
		o.ShippedAt,
		o.DeliveredAt,
		o.Version,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return mapError(err, "insert order")
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, position, product_id, name, price, quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for i, item := range o.Items {
		_, err = tx.Exec(ctx, itemQuery,
			item.ID,
			item.OrderID,
			i,
			item.ProductID,
			item.Name,
			item.Price,
			item.Quantity,
		)
		if err != nil {
			return mapError(err, "insert order item")
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return mapError(err, "commit transaction")
	}
	return nil
}

// GetByID retrieves an order by its ID, eagerly loading its items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (_ *domain.Order, err error) {
	query := orderSelect + `
		WHERE o.id = $1`

	ctx, end := r.tracer.Trace(ctx, "orders.GetByID", query)
	defer func() { end(err) }()

	o, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, mapError(err, "get order by id")
	}
	return o, nil
}

// GetForUpdate locks the order row, then loads the order. The lock is only
// meaningful inside a store transaction.
func (r *OrderRepository) GetForUpdate(ctx context.Context, id string) (_ *domain.Order, err error) {
	lockQuery := `SELECT id FROM orders WHERE id = $1 FOR UPDATE`

	lockCtx, end := r.tracer.Trace(ctx, "orders.Lock", lockQuery)
	var locked string
	err = r.db.QueryRow(lockCtx, lockQuery, id).Scan(&locked)
	end(err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, mapError(err, "lock order")
	}

	return r.GetByID(ctx, id)
}

// List returns orders matching the filter, newest first.
func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) (_ []domain.Order, err error) {
	where, args := buildOrderWhere(filter)
	query := orderSelect + where + `
		ORDER BY o.created_at DESC, o.id`

	ctx, end := r.tracer.Trace(ctx, "orders.List", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "list orders")
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, mapError(err, "scan order")
		}
		orders = append(orders, *o)
	}
	if err = rows.Err(); err != nil {
		return nil, mapError(err, "iterate orders")
	}
	return orders, nil
}

// UpdateStatus persists the lifecycle fields, guarded by the order version.
func (r *OrderRepository) UpdateStatus(ctx context.Context, o *domain.Order) (err error) {
	query := `
		UPDATE orders
		SET status = $2, shipped_stock_applied = $3, shipped_at = $4,
			delivered_at = $5, updated_at = $6, version = version + 1
		WHERE id = $1 AND version = $7
		RETURNING version`

	ctx, end := r.tracer.Trace(ctx, "orders.UpdateStatus", query)
	defer func() { end(err) }()

	var version int
	err = r.db.QueryRow(ctx, query,
		o.ID,
		o.Status,
		o.ShippedStockApplied,
		o.ShippedAt,
		o.DeliveredAt,
		o.UpdatedAt,
		o.Version,
	).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("update order status: %w",
				apperrors.Conflict(fmt.Sprintf("order %s was modified concurrently", o.ID)))
		}
		return mapError(err, "update order status")
	}

	o.Version = version
	return nil
}

// Delete removes an order. Items are removed by the foreign key cascade.
func (r *OrderRepository) Delete(ctx context.Context, id string) (err error) {
	query := `DELETE FROM orders WHERE id = $1`

	ctx, end := r.tracer.Trace(ctx, "orders.Delete", query)
	defer func() { end(err) }()

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return mapError(err, "delete order")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("order", id)
	}
	return nil
}

// Summarize aggregates the matching orders in a single statement.
func (r *OrderRepository) Summarize(ctx context.Context, filter repository.OrderFilter) (_ domain.OrderSummary, err error) {
	where, args := buildOrderWhere(filter)
	query := `
		SELECT
			COALESCE(SUM(o.total_price), 0),
			COUNT(*),
			COUNT(*) FILTER (WHERE o.status IN ('Processing', 'Shipped')),
			COUNT(*) FILTER (WHERE o.status = 'Delivered')
		FROM orders o` + where

	ctx, end := r.tracer.Trace(ctx, "orders.Summarize", query)
	defer func() { end(err) }()

	var s domain.OrderSummary
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&s.TotalAmount,
		&s.TotalOrders,
		&s.PendingOrders,
		&s.DeliveredOrders,
	)
	if err != nil {
		return domain.OrderSummary{}, mapError(err, "summarize orders")
	}
	return s, nil
}

func buildOrderWhere(filter repository.OrderFilter) (string, []any) {
	var (
		conditions []string
		args       []any
	)

	add := func(cond string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.UserID != nil {
		add("o.user_id = $%d", *filter.UserID)
	}
	if filter.Status != nil {
		add("o.status = $%d", *filter.Status)
	}
	if filter.From != nil {
		add("o.created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("o.created_at < $%d", *filter.To)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return "\n\t\tWHERE " + strings.Join(conditions, " AND "), args
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o            domain.Order
		shippingJSON []byte
		paymentJSON  []byte
		itemsJSON    []byte
	)

	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.Status,
		&shippingJSON,
		&paymentJSON,
		&o.ItemsPrice,
		&o.TaxPrice,
		&o.ShippingPrice,
		&o.TotalPrice,
		&o.ShippedStockApplied,
		&o.PaidAt,
		&o.ShippedAt,
		&o.DeliveredAt,
		&o.Version,
		&o.CreatedAt,
		&o.UpdatedAt,
		&itemsJSON,
	)
	if err != nil {
		return nil, err
	}

	if len(shippingJSON) > 0 {
		if err := json.Unmarshal(shippingJSON, &o.ShippingInfo); err != nil {
			return nil, fmt.Errorf("unmarshal shipping info: %w", err)
		}
	}
	if len(paymentJSON) > 0 {
		if err := json.Unmarshal(paymentJSON, &o.PaymentInfo); err != nil {
			return nil, fmt.Errorf("unmarshal payment info: %w", err)
		}
	}

	o.Items = []domain.OrderItem{}
	if len(itemsJSON) > 0 {
		if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
			return nil, fmt.Errorf("unmarshal order items: %w", err)
		}
	}

	return &o, nil
}
