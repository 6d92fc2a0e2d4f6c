package handlers_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fictshop/payment-webhooks/internal/application/services"
	"github.com/fictshop/payment-webhooks/internal/domain"
	"github.com/stretchr/testify/assert"
)

func pushDocument(paymentCode, result string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Response version="1.0">
  <Transaction mode="LIVE">
    <Identification>
      <TransactionID>txn-100</TransactionID>
      <UniqueID>uniq-push-1</UniqueID>
      <ReferenceID>ref-1</ReferenceID>
    </Identification>
    <Processing>
      <Result>%s</Result>
      <Status code="90">NEW</Status>
    </Processing>
    <Payment code="%s">
      <Presentation>
        <Amount>60.00</Amount>
        <Currency>EUR</Currency>
      </Presentation>
    </Payment>
  </Transaction>
</Response>`, result, paymentCode)
}

func postPush(f *handlerFixture, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/push", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/xml")
	rec := httptest.NewRecorder()
	f.handlers.HandlePush(rec, req)
	return rec
}

func TestHandlePush(t *testing.T) {
	t.Run("receipt for an existing order is reconciled", func(t *testing.T) {
		f := newHandlerFixture()
		f.locator.FindFn = func(ctx context.Context, transactionID string) (*domain.Order, error) {
			return &domain.Order{ID: "order-1", TransactionID: transactionID, Status: domain.StatusProcessing}, nil
		}

		rec := postPush(f, pushDocument("PP.RC", "ACK"))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 0, f.materializer.calls)
		assert.Equal(t, 1, f.reconciler.calls)
		assert.Equal(t, 1, f.audit.Len())
	})

	t.Run("receipt without an order materializes it first", func(t *testing.T) {
		f := newHandlerFixture()

		rec := postPush(f, pushDocument("PP.RC", "ACK"))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, f.materializer.calls)
		assert.Equal(t, 1, f.reconciler.calls)
	})

	t.Run("debit notification creates the order but moves no money", func(t *testing.T) {
		f := newHandlerFixture()

		rec := postPush(f, pushDocument("DD.DB", "ACK"))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, f.materializer.calls)
		assert.Equal(t, 0, f.reconciler.calls)
	})

	t.Run("refund notification is audited and skipped", func(t *testing.T) {
		f := newHandlerFixture()

		rec := postPush(f, pushDocument("DD.RF", "ACK"))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 0, f.materializer.calls)
		assert.Equal(t, 0, f.reconciler.calls)
		assert.Equal(t, 1, f.audit.Len())
	})

	t.Run("failed payment is audited and skipped", func(t *testing.T) {
		f := newHandlerFixture()

		rec := postPush(f, pushDocument("PP.RC", "NOK"))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 0, f.materializer.calls)
		assert.Equal(t, 0, f.reconciler.calls)
		assert.Equal(t, 1, f.audit.Len())
	})

	t.Run("non-post request is acknowledged and ignored", func(t *testing.T) {
		f := newHandlerFixture()

		req := httptest.NewRequest(http.MethodGet, "/webhooks/push", nil)
		rec := httptest.NewRecorder()
		f.handlers.HandlePush(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 0, f.audit.Len())
	})

	t.Run("unparseable document is acknowledged and dropped", func(t *testing.T) {
		f := newHandlerFixture()

		rec := postPush(f, "<Response><unclosed>")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 0, f.audit.Len())
		assert.Equal(t, 0, f.materializer.calls)
	})

	t.Run("already processed payment event is acknowledged", func(t *testing.T) {
		f := newHandlerFixture()
		f.locator.FindFn = func(ctx context.Context, transactionID string) (*domain.Order, error) {
			return &domain.Order{ID: "order-1", TransactionID: transactionID}, nil
		}
		f.reconciler.ReconcileFn = func(ctx context.Context, order *domain.Order, n *domain.Notification) (services.ReconcileOutcome, error) {
			return services.ReconcileAlreadyProcessed, nil
		}

		rec := postPush(f, pushDocument("PP.RC", "ACK"))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("persist failure asks the sender to redeliver", func(t *testing.T) {
		f := newHandlerFixture()
		f.locator.FindFn = func(ctx context.Context, transactionID string) (*domain.Order, error) {
			return &domain.Order{ID: "order-1", TransactionID: transactionID}, nil
		}
		f.reconciler.ReconcileFn = func(ctx context.Context, order *domain.Order, n *domain.Notification) (services.ReconcileOutcome, error) {
			return "", domain.NewPersistFailedError(errors.New("connection reset"))
		}

		rec := postPush(f, pushDocument("PP.RC", "ACK"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("lookup failure asks the sender to redeliver", func(t *testing.T) {
		f := newHandlerFixture()
		f.locator.FindFn = func(ctx context.Context, transactionID string) (*domain.Order, error) {
			return nil, errors.New("connection reset")
		}

		rec := postPush(f, pushDocument("PP.RC", "ACK"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("storage failure during order creation asks the sender to redeliver", func(t *testing.T) {
		f := newHandlerFixture()
		f.materializer.MaterializeFn = func(ctx context.Context, n *domain.Notification) (*domain.Order, error) {
			return nil, domain.NewPersistFailedError(errors.New("connection reset"))
		}

		rec := postPush(f, pushDocument("PP.RC", "ACK"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, 0, f.reconciler.calls)
	})

	t.Run("materialization failure is acknowledged without retry", func(t *testing.T) {
		f := newHandlerFixture()
		f.materializer.MaterializeFn = func(ctx context.Context, n *domain.Notification) (*domain.Order, error) {
			return nil, domain.NewQuoteNotFoundError(n.TransactionID)
		}

		rec := postPush(f, pushDocument("PP.RC", "ACK"))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 0, f.reconciler.calls)
	})
}
