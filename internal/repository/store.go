package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/stockcheckout/internal/db"
	"github.com/nikolayk812/stockcheckout/internal/port"
)

// Store is the Postgres implementation of port.Store. WithinTx runs in a single
// database transaction, so a failed reserve phase leaves no stock decremented.
type Store struct {
	dbtx db.DBTX

	catalog *catalogRepository
	carts   *cartRepository
	orders  *orderRepository
	outbox  *outboxRepository
}

func NewStore(pool *pgxpool.Pool) *Store {
	return newStore(pool)
}

func newStore(dbtx db.DBTX) *Store {
	return &Store{
		dbtx:    dbtx,
		catalog: &catalogRepository{dbtx: dbtx, q: db.New(dbtx)},
		carts:   &cartRepository{dbtx: dbtx, q: db.New(dbtx)},
		orders:  &orderRepository{dbtx: dbtx, q: db.New(dbtx)},
		outbox:  &outboxRepository{q: db.New(dbtx)},
	}
}

func (s *Store) Catalog() port.CatalogRepository {
	return s.catalog
}

func (s *Store) Carts() port.CartRepository {
	return s.carts
}

func (s *Store) Orders() port.OrderRepository {
	return s.orders
}

func (s *Store) Outbox() port.OutboxRepository {
	return s.outbox
}

func (s *Store) WithinTx(ctx context.Context, fn func(port.Store) error) error {
	_, err := withTx(ctx, s.dbtx, func(tx pgx.Tx) (struct{}, error) {
		return struct{}{}, fn(newStore(tx))
	})
	return err
}

func (s *Store) Transactional() bool {
	return true
}
