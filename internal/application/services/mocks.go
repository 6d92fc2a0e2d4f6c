package services

import (
	"context"
	"sync"
	"time"

	"github.com/fictshop/payment-webhooks/internal/application"
	"github.com/fictshop/payment-webhooks/internal/domain"
)

// MockOrderRepository is an in-memory OrderRepository keyed by transaction
// id. Reads hand out copies so mutations discarded by a rolled-back unit of
// work never leak into the store.
type MockOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order

	CreateFn        func(ctx context.Context, order *domain.Order) error
	FindFn          func(ctx context.Context, transactionID string) (*domain.Order, error)
	FindForUpdateFn func(ctx context.Context, transactionID string) (*domain.Order, error)
	UpdateFn        func(ctx context.Context, order *domain.Order) error
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{orders: make(map[string]*domain.Order)}
}

func cloneOrder(o *domain.Order) *domain.Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Invoices = append([]domain.Invoice(nil), o.Invoices...)
	clone.Transactions = append([]domain.PaymentTransaction(nil), o.Transactions...)
	clone.StatusHistory = append([]domain.StatusComment(nil), o.StatusHistory...)
	return &clone
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, order)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.orders[order.TransactionID]; exists {
		return application.ErrDuplicateOrder
	}
	m.orders[order.TransactionID] = cloneOrder(order)
	return nil
}

func (m *MockOrderRepository) FindByTransactionID(ctx context.Context, transactionID string) (*domain.Order, error) {
	if m.FindFn != nil {
		return m.FindFn(ctx, transactionID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneOrder(m.orders[transactionID]), nil
}

func (m *MockOrderRepository) FindByTransactionIDForUpdate(ctx context.Context, transactionID string) (*domain.Order, error) {
	if m.FindForUpdateFn != nil {
		return m.FindForUpdateFn(ctx, transactionID)
	}
	return m.FindByTransactionID(ctx, transactionID)
}

func (m *MockOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, order)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.TransactionID] = cloneOrder(order)
	return nil
}

// Seed stores an order directly, bypassing the duplicate check.
func (m *MockOrderRepository) Seed(order *domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.TransactionID] = cloneOrder(order)
}

func (m *MockOrderRepository) snapshot() map[string]*domain.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make(map[string]*domain.Order, len(m.orders))
	for k, v := range m.orders {
		snap[k] = cloneOrder(v)
	}
	return snap
}

func (m *MockOrderRepository) restore(snap map[string]*domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = snap
}

// MockQuoteRepository is an in-memory QuoteRepository.
type MockQuoteRepository struct {
	mu     sync.RWMutex
	quotes map[string]*domain.Quote

	FindByIDFn   func(ctx context.Context, id string) (*domain.Quote, error)
	DeactivateFn func(ctx context.Context, id string) error
}

func NewMockQuoteRepository() *MockQuoteRepository {
	return &MockQuoteRepository{quotes: make(map[string]*domain.Quote)}
}

func (m *MockQuoteRepository) FindByID(ctx context.Context, id string) (*domain.Quote, error) {
	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	quote, ok := m.quotes[id]
	if !ok {
		return nil, nil
	}
	clone := *quote
	return &clone, nil
}

func (m *MockQuoteRepository) Deactivate(ctx context.Context, id string) error {
	if m.DeactivateFn != nil {
		return m.DeactivateFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if quote, ok := m.quotes[id]; ok {
		quote.IsActive = false
	}
	return nil
}

func (m *MockQuoteRepository) Seed(quote *domain.Quote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[quote.ID] = quote
}

// MockLedgerRepository is an in-memory processed-event ledger.
type MockLedgerRepository struct {
	mu     sync.RWMutex
	events map[string]*domain.ProcessedPaymentEvent

	AppendFn func(ctx context.Context, event *domain.ProcessedPaymentEvent) error
	ExistsFn func(ctx context.Context, paymentReferenceID string) (bool, error)
}

func NewMockLedgerRepository() *MockLedgerRepository {
	return &MockLedgerRepository{events: make(map[string]*domain.ProcessedPaymentEvent)}
}

func (m *MockLedgerRepository) Append(ctx context.Context, event *domain.ProcessedPaymentEvent) error {
	if m.AppendFn != nil {
		return m.AppendFn(ctx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.events[event.PaymentReferenceID]; exists {
		return application.ErrDuplicateEvent
	}
	stored := *event
	stored.CreatedAt = time.Now()
	m.events[event.PaymentReferenceID] = &stored
	return nil
}

func (m *MockLedgerRepository) Exists(ctx context.Context, paymentReferenceID string) (bool, error) {
	if m.ExistsFn != nil {
		return m.ExistsFn(ctx, paymentReferenceID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.events[paymentReferenceID]
	return exists, nil
}

func (m *MockLedgerRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}

func (m *MockLedgerRepository) snapshot() map[string]*domain.ProcessedPaymentEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make(map[string]*domain.ProcessedPaymentEvent, len(m.events))
	for k, v := range m.events {
		stored := *v
		snap[k] = &stored
	}
	return snap
}

func (m *MockLedgerRepository) restore(snap map[string]*domain.ProcessedPaymentEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = snap
}

// MockNotifier records dispatched mails and can be told to fail.
type MockNotifier struct {
	mu sync.Mutex

	OrderConfirmationErr error
	InvoiceErr           error

	OrderConfirmations []string
	Invoices           []string
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) SendOrderConfirmation(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.OrderConfirmationErr != nil {
		return m.OrderConfirmationErr
	}
	m.OrderConfirmations = append(m.OrderConfirmations, order.ID)
	return nil
}

func (m *MockNotifier) SendInvoice(ctx context.Context, order *domain.Order, invoice *domain.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InvoiceErr != nil {
		return m.InvoiceErr
	}
	m.Invoices = append(m.Invoices, invoice.ID)
	return nil
}

// MockUnitOfWork runs the function against the in-memory repositories and
// restores their state when the function fails, mimicking a rollback.
type MockUnitOfWork struct {
	// serializes "transactions" the way row locks do in Postgres.
	mu sync.Mutex

	Orders *MockOrderRepository
	Quotes *MockQuoteRepository
	Ledger *MockLedgerRepository
}

func NewMockUnitOfWork() *MockUnitOfWork {
	return &MockUnitOfWork{
		Orders: NewMockOrderRepository(),
		Quotes: NewMockQuoteRepository(),
		Ledger: NewMockLedgerRepository(),
	}
}

func (m *MockUnitOfWork) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos application.TxRepositories) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	orderSnap := m.Orders.snapshot()
	ledgerSnap := m.Ledger.snapshot()

	err := fn(ctx, application.TxRepositories{
		Orders: m.Orders,
		Quotes: m.Quotes,
		Ledger: m.Ledger,
	})
	if err != nil {
		m.Orders.restore(orderSnap)
		m.Ledger.restore(ledgerSnap)
	}
	return err
}
