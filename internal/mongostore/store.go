package mongostore

import (
	"context"

	"github.com/nikolayk812/stockcheckout/internal/port"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store is the MongoDB implementation of port.Store. Every single-document write is atomic,
// but writes spanning documents are not grouped: WithinTx runs fn directly and callers
// compensate partial work themselves.
type Store struct {
	catalog *catalogRepository
	carts   *cartRepository
	orders  *orderRepository
	outbox  *outboxRepository
}

func NewStore(db *mongo.Database) *Store {
	orders := db.Collection(ordersCollection)

	return &Store{
		catalog: &catalogRepository{collection: db.Collection(productsCollection)},
		carts:   &cartRepository{collection: db.Collection(cartsCollection)},
		orders:  &orderRepository{collection: orders, counters: db.Collection(countersCollection)},
		outbox:  &outboxRepository{collection: orders},
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

func (s *Store) WithinTx(_ context.Context, fn func(port.Store) error) error {
	return fn(s)
}

func (s *Store) Transactional() bool {
	return false
}
