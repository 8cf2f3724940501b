package domain

import "errors"

type OrderStatus string

// remember to add new statuses to the validOrderStatuses map
const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusRefunded  OrderStatus = "REFUNDED"
)

var validOrderStatuses = map[OrderStatus]struct{}{
	OrderStatusPending:   {},
	OrderStatusPaid:      {},
	OrderStatusShipped:   {},
	OrderStatusCancelled: {},
	OrderStatusRefunded:  {},
}

// target status -> statuses it may be reached from
var orderStatusPredecessors = map[OrderStatus][]OrderStatus{
	OrderStatusPaid:      {OrderStatusPending},
	OrderStatusCancelled: {OrderStatusPending},
	OrderStatusShipped:   {OrderStatusPaid},
	OrderStatusRefunded:  {OrderStatusPaid, OrderStatusShipped},
}

func ToOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if _, ok := validOrderStatuses[status]; ok {
		return status, nil
	}

	return "", errors.New("invalid order status")
}

func OrderStatuses() []OrderStatus {
	result := make([]OrderStatus, 0, len(validOrderStatuses))
	for status := range validOrderStatuses {
		result = append(result, status)
	}
	return result
}

// Predecessors lists the statuses an order must be in to move to s.
func (s OrderStatus) Predecessors() []OrderStatus {
	return orderStatusPredecessors[s]
}

func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	for _, from := range to.Predecessors() {
		if from == s {
			return true
		}
	}
	return false
}

func (s OrderStatus) String() string {
	return string(s)
}
