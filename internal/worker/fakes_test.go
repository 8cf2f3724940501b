package worker_test

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/nikolayk812/stockcheckout/internal/domain"
	"github.com/segmentio/kafka-go"
)

type fakeOutbox struct {
	mu       sync.Mutex
	events   []domain.OrderEvent
	fetchErr error
	markErr  error
}

func (f *fakeOutbox) FetchPending(_ context.Context, limit int) ([]domain.OrderEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fetchErr != nil {
		return nil, f.fetchErr
	}

	var pending []domain.OrderEvent
	for _, e := range f.events {
		if e.SentAt == nil && len(pending) < limit {
			pending = append(pending, e)
		}
	}
	return pending, nil
}

func (f *fakeOutbox) MarkSent(_ context.Context, eventID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.markErr != nil {
		return f.markErr
	}

	i := slices.IndexFunc(f.events, func(e domain.OrderEvent) bool { return e.ID == eventID })
	if i >= 0 && f.events[i].SentAt == nil {
		now := time.Now()
		f.events[i].SentAt = &now
	}
	return nil
}

func (f *fakeOutbox) pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, e := range f.events {
		if e.SentAt == nil {
			n++
		}
	}
	return n
}

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) written() []kafka.Message {
	f.mu.Lock()
	defer f.mu.Unlock()

	return slices.Clone(f.messages)
}

type fakeCarts struct {
	mu      sync.Mutex
	befores []time.Time
	deleted int64
	err     error
}

func (f *fakeCarts) GetCart(context.Context, string) (domain.Cart, error) {
	return domain.Cart{}, domain.ErrCartNotFound
}

func (f *fakeCarts) SaveCart(context.Context, domain.Cart) error { return nil }

func (f *fakeCarts) DeleteCart(context.Context, string) error { return nil }

func (f *fakeCarts) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return 0, f.err
	}
	f.befores = append(f.befores, before)
	return f.deleted, nil
}

func (f *fakeCarts) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.befores)
}
