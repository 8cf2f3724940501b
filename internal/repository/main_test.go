package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/nikolayk812/stockcheckout/internal/domain"
	"github.com/nikolayk812/stockcheckout/internal/migrations"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/text/currency"
)

// startPostgres runs a throwaway Postgres container with all migrations applied.
func startPostgres(ctx context.Context) (testcontainers.Container, string, error) {
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("postgres.Run: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return container, "", fmt.Errorf("container.ConnectionString: %w", err)
	}

	if err := migrations.Up(connStr); err != nil {
		return container, "", fmt.Errorf("migrations.Up: %w", err)
	}

	return container, connStr, nil
}

func fakeProduct() domain.Product {
	sizes := []domain.Size{domain.SizeXS, domain.SizeS, domain.SizeM, domain.SizeL, domain.SizeXL}

	var variants []domain.Variant
	for i := 0; i < gofakeit.Number(1, 4); i++ {
		variants = append(variants, domain.Variant{
			SKU:             fmt.Sprintf("%s-%d", gofakeit.LetterN(8), i),
			Size:            sizes[gofakeit.Number(0, len(sizes)-1)],
			Color:           gofakeit.Color(),
			StockQuantity:   gofakeit.Number(1, 50),
			PriceAdjustment: decimal.NewFromInt(int64(gofakeit.Number(0, 5))),
		})
	}

	return domain.Product{
		ID:          uuid.MustParse(gofakeit.UUID()),
		Title:       gofakeit.ProductName(),
		Slug:        gofakeit.LetterN(16),
		BasePrice:   decimal.NewFromFloat(gofakeit.Price(10, 100)).Round(2),
		Variants:    variants,
		IsPublished: true,
	}
}

func fakeAddress() domain.ShippingAddress {
	return domain.ShippingAddress{
		FullName:     gofakeit.Name(),
		AddressLine1: gofakeit.Street(),
		AddressLine2: lo.ToPtr(gofakeit.Word()),
		City:         gofakeit.City(),
		State:        gofakeit.State(),
		ZipCode:      gofakeit.Zip(),
		Country:      gofakeit.CountryAbr(),
	}
}

func fakeOrderItem() domain.OrderItem {
	return domain.OrderItem{
		ProductID:  uuid.MustParse(gofakeit.UUID()),
		VariantSKU: gofakeit.LetterN(8),
		Title:      gofakeit.ProductName(),
		Size:       domain.SizeM,
		Color:      gofakeit.Color(),
		UnitPrice:  decimal.NewFromFloat(gofakeit.Price(1, 100)).Round(2),
		Quantity:   gofakeit.Number(1, 3),
	}
}

func fakeOrder() domain.Order {
	var items []domain.OrderItem
	for i := 0; i < gofakeit.Number(1, 4); i++ {
		items = append(items, fakeOrderItem())
	}

	o := domain.Order{
		OwnerID:         gofakeit.UUID(),
		Items:           items,
		ShippingAddress: fakeAddress(),
		Status:          domain.OrderStatusPending,
		PaymentIntentID: "pi_" + gofakeit.LetterN(24),
	}
	o.Total = domain.NewMoney(o.ItemsTotal(), currency.USD)

	return o
}

func assertOrder(t *testing.T, expected, actual domain.Order) {
	t.Helper()

	currencyComparer := cmp.Comparer(func(x, y currency.Unit) bool {
		return x.String() == y.String()
	})

	opts := cmp.Options{
		cmpopts.IgnoreFields(domain.Order{}, "CreatedAt", "UpdatedAt"),
		cmpopts.EquateEmpty(),
		currencyComparer,
	}

	diff := cmp.Diff(expected, actual, opts)
	assert.Empty(t, diff)

	assert.False(t, actual.CreatedAt.IsZero())
	assert.False(t, actual.UpdatedAt.IsZero())
	assert.NotEqual(t, uuid.Nil, actual.ID)
}

func assertProduct(t *testing.T, expected, actual domain.Product) {
	t.Helper()

	opts := cmp.Options{
		cmpopts.IgnoreFields(domain.Product{}, "CreatedAt", "UpdatedAt"),
		cmpopts.EquateEmpty(),
	}

	diff := cmp.Diff(expected, actual, opts)
	assert.Empty(t, diff)
}
