package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/storefront-labs/orderengine/internal/repository"
	"github.com/storefront-labs/orderengine/pkg/database"
)

// Store implements repository.Store on PostgreSQL. Repositories obtained
// from a Store returned by WithinTx run inside that transaction.
type Store struct {
	db     database.DBTX
	pool   database.TxStarter
	tracer *database.QueryTracer
}

// NewStore creates a store over the pool. tracer may be nil.
func NewStore(pool database.TxStarter, tracer *database.QueryTracer) *Store {
	return &Store{db: pool, pool: pool, tracer: tracer}
}

func (s *Store) Orders() repository.OrderRepository {
	return &OrderRepository{db: s.db, tracer: s.tracer}
}

func (s *Store) Products() repository.ProductRepository {
	return &ProductRepository{db: s.db, tracer: s.tracer}
}

func (s *Store) Rentals() repository.RentalRepository {
	return &RentalRepository{db: s.db, tracer: s.tracer}
}

// WithinTx runs fn in a READ COMMITTED transaction. Row locks taken with
// GetForUpdate are held until fn returns. A call on a store that is already
// transactional joins the running transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	if s.pool == nil {
		return fn(ctx, s)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return mapError(err, "begin transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(ctx, &Store{db: tx, tracer: s.tracer}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return mapError(err, "commit transaction")
	}
	return nil
}

var _ repository.Store = (*Store)(nil)
