package services

import (
	"context"

	"github.com/fictshop/payment-webhooks/internal/application"
	"github.com/fictshop/payment-webhooks/internal/domain"
)

// OrderLocator resolves a notification's transaction id to zero or one
// existing order.
type OrderLocator struct {
	orders application.OrderRepository
}

func NewOrderLocator(orders application.OrderRepository) *OrderLocator {
	return &OrderLocator{orders: orders}
}

// Find returns the order correlated with the transaction id, or (nil, nil)
// when none exists yet.
func (s *OrderLocator) Find(ctx context.Context, transactionID string) (*domain.Order, error) {
	return s.orders.FindByTransactionID(ctx, transactionID)
}
