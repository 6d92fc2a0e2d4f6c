package postgres

import (
	"github.com/fictshop/payment-webhooks/internal/domain"
)

// toDomainOrder: maps db model to domain entity
func toDomainOrder(m OrderModel, invoices []InvoiceModel) *domain.Order {
	order := domain.ReconstituteOrder(
		m.ID,
		m.IncrementID,
		m.TransactionID,
		domain.OrderStatus(m.Status),
		m.GrandTotal,
		m.TotalDue,
		m.TotalPaid,
		m.Currency,
		m.CustomerEmail,
		m.EmailSent,
		m.CreatedAt,
		m.UpdatedAt,
	)
	for _, inv := range invoices {
		order.Invoices = append(order.Invoices, domain.Invoice{
			ID:         inv.ID,
			OrderID:    inv.OrderID,
			State:      domain.InvoiceState(inv.State),
			GrandTotal: inv.GrandTotal,
			CreatedAt:  inv.CreatedAt,
		})
	}
	return order
}

func toDomainQuote(m QuoteModel) *domain.Quote {
	return &domain.Quote{
		ID:                m.ID,
		ReservedOrderID:   m.ReservedOrderID,
		CustomerEmail:     m.CustomerEmail,
		PaymentMethodCode: m.PaymentMethodCode,
		GrandTotal:        m.GrandTotal,
		Currency:          m.Currency,
		IsActive:          m.IsActive,
		CreatedAt:         m.CreatedAt,
	}
}
