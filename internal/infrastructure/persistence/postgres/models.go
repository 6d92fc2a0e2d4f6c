package postgres

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderModel struct {
	ID            string
	IncrementID   string
	TransactionID string
	Status        string
	GrandTotal    decimal.Decimal
	TotalDue      decimal.Decimal
	TotalPaid     decimal.Decimal
	Currency      string
	CustomerEmail string
	EmailSent     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type InvoiceModel struct {
	ID         string
	OrderID    string
	State      string
	GrandTotal decimal.Decimal
	CreatedAt  time.Time
}

type QuoteModel struct {
	ID                string
	ReservedOrderID   string
	CustomerEmail     string
	PaymentMethodCode string
	GrandTotal        decimal.Decimal
	Currency          string
	IsActive          bool
	CreatedAt         time.Time
}
