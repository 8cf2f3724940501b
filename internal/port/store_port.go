package port

import "context"

type Store interface {
	Catalog() CatalogRepository
	Carts() CartRepository
	Orders() OrderRepository
	Outbox() OutboxRepository

	// WithinTx runs fn against a Store whose writes commit or roll back together.
	// When Transactional reports false, fn runs directly and partial writes stay visible.
	WithinTx(ctx context.Context, fn func(Store) error) error

	Transactional() bool
}
