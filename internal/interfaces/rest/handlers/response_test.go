package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/fictshop/payment-webhooks/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wantRedirectURL = "https://shop.example.com/payment/redirect"

func responseForm(transactionID string) url.Values {
	return url.Values{
		"IDENTIFICATION_TRANSACTIONID": {transactionID},
		"IDENTIFICATION_UNIQUEID":      {"uniq-1"},
		"PAYMENT_CODE":                 {"DD.DB"},
		"PROCESSING_RESULT":            {"ACK"},
		"PROCESSING_STATUS_CODE":       {"90"},
		"PRESENTATION_AMOUNT":          {"100.00"},
		"PRESENTATION_CURRENCY":        {"EUR"},
		"CRITERION_SECRET_HASH":        {signedHash(transactionID)},
	}
}

func postResponse(f *handlerFixture, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/response", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.handlers.HandleResponse(rec, req)
	return rec
}

func TestHandleResponse(t *testing.T) {
	t.Run("successful payment creates the order and returns the redirect url", func(t *testing.T) {
		f := newHandlerFixture()

		rec := postResponse(f, responseForm("txn-100"))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
		assert.Equal(t, wantRedirectURL, rec.Body.String())
		assert.Equal(t, 1, f.materializer.calls)
		assert.Equal(t, 1, f.audit.Len())
	})

	t.Run("existing order is not materialized again", func(t *testing.T) {
		f := newHandlerFixture()
		f.locator.FindFn = func(ctx context.Context, transactionID string) (*domain.Order, error) {
			return &domain.Order{ID: "order-1", TransactionID: transactionID}, nil
		}

		rec := postResponse(f, responseForm("txn-100"))

		assert.Equal(t, wantRedirectURL, rec.Body.String())
		assert.Equal(t, 0, f.materializer.calls)
	})

	t.Run("non-post request redirects straight to the cart", func(t *testing.T) {
		f := newHandlerFixture()

		req := httptest.NewRequest(http.MethodGet, "/webhooks/response", nil)
		rec := httptest.NewRecorder()
		f.handlers.HandleResponse(rec, req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "https://shop.example.com/checkout/cart", rec.Header().Get("Location"))
		assert.Equal(t, 0, f.materializer.calls)
		assert.Equal(t, 0, f.audit.Len())
	})

	t.Run("tampered hash returns the redirect url without touching any order", func(t *testing.T) {
		f := newHandlerFixture()

		form := responseForm("txn-100")
		form.Set("CRITERION_SECRET_HASH", signedHash("txn-999"))
		rec := postResponse(f, form)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, wantRedirectURL, rec.Body.String())
		assert.Equal(t, 0, f.materializer.calls)
		assert.Equal(t, 0, f.reconciler.calls)
		assert.Equal(t, 0, f.audit.Len(), "unauthenticated payloads stay out of the audit trail")
	})

	t.Run("missing hash returns the redirect url without touching any order", func(t *testing.T) {
		f := newHandlerFixture()

		form := responseForm("txn-100")
		form.Del("CRITERION_SECRET_HASH")
		rec := postResponse(f, form)

		assert.Equal(t, wantRedirectURL, rec.Body.String())
		assert.Equal(t, 0, f.materializer.calls)
	})

	t.Run("pending payment still creates the order", func(t *testing.T) {
		f := newHandlerFixture()

		form := responseForm("txn-100")
		form.Set("PROCESSING_STATUS_CODE", "80")
		rec := postResponse(f, form)

		assert.Equal(t, wantRedirectURL, rec.Body.String())
		assert.Equal(t, 1, f.materializer.calls)
	})

	t.Run("error outcome returns the redirect url without creating an order", func(t *testing.T) {
		f := newHandlerFixture()

		form := responseForm("txn-100")
		form.Set("PROCESSING_RESULT", "NOK")
		form.Set("PROCESSING_RETURN", "Transaction declined")
		form.Set("PROCESSING_RETURN_CODE", "100.100.101")
		rec := postResponse(f, form)

		assert.Equal(t, wantRedirectURL, rec.Body.String())
		assert.Equal(t, 0, f.materializer.calls)
		assert.Equal(t, 1, f.audit.Len())
	})

	t.Run("malformed payload still returns the redirect url", func(t *testing.T) {
		f := newHandlerFixture()

		form := responseForm("txn-100")
		form.Del("PROCESSING_RESULT")
		rec := postResponse(f, form)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, wantRedirectURL, rec.Body.String())
		assert.Equal(t, 0, f.materializer.calls)
	})

	t.Run("materialization failure stays behind the redirect url", func(t *testing.T) {
		f := newHandlerFixture()
		f.materializer.MaterializeFn = func(ctx context.Context, n *domain.Notification) (*domain.Order, error) {
			return nil, domain.NewQuoteNotFoundError(n.TransactionID)
		}

		rec := postResponse(f, responseForm("txn-100"))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, wantRedirectURL, rec.Body.String())
	})

	t.Run("lookup failure stays behind the redirect url", func(t *testing.T) {
		f := newHandlerFixture()
		f.locator.FindFn = func(ctx context.Context, transactionID string) (*domain.Order, error) {
			return nil, errors.New("connection reset")
		}

		rec := postResponse(f, responseForm("txn-100"))

		assert.Equal(t, wantRedirectURL, rec.Body.String())
		assert.Equal(t, 0, f.materializer.calls)
	})

	t.Run("audit failure does not block processing", func(t *testing.T) {
		f := newHandlerFixture()
		f.audit.RecordErr = errors.New("disk full")

		rec := postResponse(f, responseForm("txn-100"))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, wantRedirectURL, rec.Body.String())
		assert.Equal(t, 1, f.materializer.calls)
	})
}
