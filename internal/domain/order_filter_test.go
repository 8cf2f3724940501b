package domain_test

import (
	"testing"
	"time"

	"github.com/nikolayk812/stockcheckout/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderFilter_Validate(t *testing.T) {
	now := time.Now()
	earlier := now.Add(-time.Hour)

	require.Error(t, domain.OrderFilter{}.Validate())
	require.NoError(t, domain.OrderFilter{OwnerIDs: []string{"u"}}.Validate())
	require.Error(t, domain.OrderFilter{Statuses: []domain.OrderStatus{"LOST"}}.Validate())
	require.Error(t, domain.OrderFilter{CreatedAt: &domain.TimeRange{}}.Validate())
	require.Error(t, domain.OrderFilter{CreatedAt: &domain.TimeRange{Before: &earlier, After: &now}}.Validate())
	require.NoError(t, domain.OrderFilter{CreatedAt: &domain.TimeRange{Before: &now, After: &earlier}}.Validate())
}

func TestOrderFilter_Matches(t *testing.T) {
	o := validOrder()
	o.CreatedAt = time.Now()
	before := o.CreatedAt.Add(time.Minute)
	after := o.CreatedAt.Add(-time.Minute)

	assert.True(t, domain.OrderFilter{OwnerIDs: []string{"user-1"}}.Matches(o))
	assert.True(t, domain.OrderFilter{PaymentIntentIDs: []string{"pi_1"}, Statuses: []domain.OrderStatus{domain.OrderStatusPending}}.Matches(o))
	assert.False(t, domain.OrderFilter{OwnerIDs: []string{"user-1"}, Statuses: []domain.OrderStatus{domain.OrderStatusPaid}}.Matches(o))
	assert.True(t, domain.OrderFilter{CreatedAt: &domain.TimeRange{Before: &before, After: &after}}.Matches(o))
	assert.False(t, domain.OrderFilter{CreatedAt: &domain.TimeRange{Before: &after}}.Matches(o))
}
