package postgres

import (
	"context"

	"github.com/storefront-labs/orderengine/internal/domain"
	"github.com/storefront-labs/orderengine/pkg/database"
)

// RentalRepository implements repository.RentalRepository using PostgreSQL.
type RentalRepository struct {
	db     database.DBTX
	tracer *database.QueryTracer
}

// NewRentalRepository creates a new PostgreSQL-backed rental repository.
func NewRentalRepository(db database.DBTX, tracer *database.QueryTracer) *RentalRepository {
	return &RentalRepository{db: db, tracer: tracer}
}

func (r *RentalRepository) Create(ctx context.Context, o *domain.RentalOrder) (err error) {
	query := `
		INSERT INTO rental_orders (id, product_id, user_id, price, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	ctx, end := r.tracer.Trace(ctx, "rentals.Create", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query, o.ID, o.ProductID, o.UserID, o.Price, o.Status, o.CreatedAt)
	if err != nil {
		return mapError(err, "insert rental order")
	}
	return nil
}

func (r *RentalRepository) List(ctx context.Context) (_ []domain.RentalOrder, err error) {
	query := `
		SELECT id, product_id, user_id, price, status, created_at
		FROM rental_orders
		ORDER BY created_at DESC, id`

	ctx, end := r.tracer.Trace(ctx, "rentals.List", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, mapError(err, "list rental orders")
	}
	defer rows.Close()

	orders := []domain.RentalOrder{}
	for rows.Next() {
		var o domain.RentalOrder
		if err = rows.Scan(&o.ID, &o.ProductID, &o.UserID, &o.Price, &o.Status, &o.CreatedAt); err != nil {
			return nil, mapError(err, "scan rental order")
		}
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, mapError(err, "iterate rental orders")
	}
	return orders, nil
}
