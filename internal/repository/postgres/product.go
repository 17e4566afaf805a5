package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/storefront-labs/orderengine/internal/domain"
	"github.com/storefront-labs/orderengine/pkg/database"
	apperrors "github.com/storefront-labs/orderengine/pkg/errors"
)

const productColumns = `id, user_id, name, description, category, price, stock,
			is_for_sale, is_rentable, rental_price, rental_period, rental_status,
			ratings, num_of_reviews, reviews, version, created_at, updated_at`

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	db     database.DBTX
	tracer *database.QueryTracer
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(db database.DBTX, tracer *database.QueryTracer) *ProductRepository {
	return &ProductRepository{db: db, tracer: tracer}
}

// Create inserts a new product.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (err error) {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	ctx, end := r.tracer.Trace(ctx, "products.Create", query)
	defer func() { end(err) }()

	reviewsJSON, err := marshalReviews(p.Reviews)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query,
		p.ID,
		p.UserID,
		p.Name,
		p.Description,
		p.Category,
		p.Price,
		p.Stock,
		p.IsForSale,
		p.IsRentable,
		p.RentalPrice,
		p.RentalPeriod,
		p.RentalStatus,
		p.Ratings,
		p.NumOfReviews,
		reviewsJSON,
		p.Version,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return mapError(err, "insert product")
	}
	return nil
}

// GetByID retrieves a product with its reviews.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (_ *domain.Product, err error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	ctx, end := r.tracer.Trace(ctx, "products.GetByID", query)
	defer func() { end(err) }()

	p, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, mapError(err, "get product by id")
	}
	return p, nil
}

// DecrementStock subtracts quantity in one UPDATE so concurrent decrements
// never lose an update. When the guarded UPDATE matches no row a follow-up
// read tells a missing product from insufficient stock.
func (r *ProductRepository) DecrementStock(ctx context.Context, id string, quantity int, allowNegative bool) (_ int, err error) {
	query := `
		UPDATE products
		SET stock = stock - $2, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND ($3 OR stock >= $2)
		RETURNING stock`

	ctx, end := r.tracer.Trace(ctx, "products.DecrementStock", query)
	defer func() { end(err) }()

	var stock int
	err = r.db.QueryRow(ctx, query, id, quantity, allowNegative).Scan(&stock)
	if err == nil {
		return stock, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, mapError(err, "decrement stock")
	}

	err = r.db.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, id).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.NotFound("product", id)
		}
		return 0, mapError(err, "read stock")
	}
	return 0, apperrors.InsufficientStock(id, stock, quantity)
}

// SaveReviews writes the review set and derived rating fields if nobody
// else wrote the product since expectedVersion was read.
func (r *ProductRepository) SaveReviews(ctx context.Context, p *domain.Product, expectedVersion int) (err error) {
	query := `
		UPDATE products
		SET reviews = $2, ratings = $3, num_of_reviews = $4, updated_at = $5,
			version = version + 1
		WHERE id = $1 AND version = $6
		RETURNING version`

	ctx, end := r.tracer.Trace(ctx, "products.SaveReviews", query)
	defer func() { end(err) }()

	reviewsJSON, err := marshalReviews(p.Reviews)
	if err != nil {
		return err
	}

	var version int
	err = r.db.QueryRow(ctx, query,
		p.ID,
		reviewsJSON,
		p.Ratings,
		p.NumOfReviews,
		p.UpdatedAt,
		expectedVersion,
	).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("save reviews: %w",
				apperrors.Conflict(fmt.Sprintf("product %s was modified concurrently", p.ID)))
		}
		return mapError(err, "save reviews")
	}

	p.Version = version
	return nil
}

// UpdateRentalStatus sets the rental status and returns the updated product.
func (r *ProductRepository) UpdateRentalStatus(ctx context.Context, id, status string) (_ *domain.Product, err error) {
	query := `
		UPDATE products
		SET rental_status = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns

	ctx, end := r.tracer.Trace(ctx, "products.UpdateRentalStatus", query)
	defer func() { end(err) }()

	p, err := scanProduct(r.db.QueryRow(ctx, query, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, mapError(err, "update rental status")
	}
	return p, nil
}

// ListRentable returns every rentable product, newest first.
func (r *ProductRepository) ListRentable(ctx context.Context) (_ []domain.Product, err error) {
	query := `SELECT ` + productColumns + `
		FROM products
		WHERE is_rentable
		ORDER BY created_at DESC, id`

	ctx, end := r.tracer.Trace(ctx, "products.ListRentable", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, mapError(err, "list rentable products")
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, mapError(err, "scan product")
		}
		products = append(products, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, mapError(err, "iterate products")
	}
	return products, nil
}

func marshalReviews(reviews []domain.Review) ([]byte, error) {
	if reviews == nil {
		reviews = []domain.Review{}
	}
	b, err := json.Marshal(reviews)
	if err != nil {
		return nil, fmt.Errorf("marshal reviews: %w", err)
	}
	return b, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p           domain.Product
		reviewsJSON []byte
	)

	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.Description,
		&p.Category,
		&p.Price,
		&p.Stock,
		&p.IsForSale,
		&p.IsRentable,
		&p.RentalPrice,
		&p.RentalPeriod,
		&p.RentalStatus,
		&p.Ratings,
		&p.NumOfReviews,
		&reviewsJSON,
		&p.Version,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Reviews = []domain.Review{}
	if len(reviewsJSON) > 0 {
		if err := json.Unmarshal(reviewsJSON, &p.Reviews); err != nil {
			return nil, fmt.Errorf("unmarshal reviews: %w", err)
		}
	}
	return &p, nil
}
