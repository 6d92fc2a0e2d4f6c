package handlers_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/fictshop/payment-webhooks/internal/application/services"
	"github.com/fictshop/payment-webhooks/internal/config"
	"github.com/fictshop/payment-webhooks/internal/domain"
	"github.com/fictshop/payment-webhooks/internal/gateway"
	"github.com/fictshop/payment-webhooks/internal/interfaces/rest/handlers"
)

const testSecret = "shop-secret"

type mockLocator struct {
	FindFn func(ctx context.Context, transactionID string) (*domain.Order, error)
}

func (m *mockLocator) Find(ctx context.Context, transactionID string) (*domain.Order, error) {
	if m.FindFn != nil {
		return m.FindFn(ctx, transactionID)
	}
	return nil, nil
}

type mockMaterializer struct {
	MaterializeFn func(ctx context.Context, n *domain.Notification) (*domain.Order, error)
	calls         int
}

func (m *mockMaterializer) Materialize(ctx context.Context, n *domain.Notification) (*domain.Order, error) {
	m.calls++
	if m.MaterializeFn != nil {
		return m.MaterializeFn(ctx, n)
	}
	return &domain.Order{ID: "order-1", TransactionID: n.TransactionID, Status: domain.StatusProcessing}, nil
}

type mockReconciler struct {
	ReconcileFn func(ctx context.Context, order *domain.Order, n *domain.Notification) (services.ReconcileOutcome, error)
	calls       int
}

func (m *mockReconciler) Reconcile(ctx context.Context, order *domain.Order, n *domain.Notification) (services.ReconcileOutcome, error) {
	m.calls++
	if m.ReconcileFn != nil {
		return m.ReconcileFn(ctx, order, n)
	}
	return services.ReconcileApplied, nil
}

type mockAudit struct {
	mu      sync.Mutex
	records []string

	RecordErr error
}

func (m *mockAudit) Record(ctx context.Context, channel domain.Channel, transactionID string, rawFields map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RecordErr != nil {
		return m.RecordErr
	}
	m.records = append(m.records, transactionID)
	return nil
}

func (m *mockAudit) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (m *mockAudit) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

type handlerFixture struct {
	handlers     *handlers.Handlers
	locator      *mockLocator
	materializer *mockMaterializer
	reconciler   *mockReconciler
	audit        *mockAudit
}

func newHandlerFixture() *handlerFixture {
	f := &handlerFixture{
		locator:      &mockLocator{},
		materializer: &mockMaterializer{},
		reconciler:   &mockReconciler{},
		audit:        &mockAudit{},
	}
	f.handlers = handlers.NewHandlers(
		f.locator,
		f.materializer,
		f.reconciler,
		f.audit,
		config.SecurityConfig{SharedSecret: testSecret},
		config.ShopConfig{
			BaseURL:       "http://shop.example.com",
			RedirectRoute: "/payment/redirect",
			CartRoute:     "/checkout/cart",
		},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return f
}

func signedHash(transactionID string) string {
	return gateway.ComputeSecurityHash(testSecret, transactionID)
}
