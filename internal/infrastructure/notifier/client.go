// Package notifier reaches the storefront's transactional mail service over
// HTTP. Dispatch is fire-and-forget relative to reconciliation: callers log
// failures and move on.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/fictshop/payment-webhooks/internal/application"
	"github.com/fictshop/payment-webhooks/internal/config"
	"github.com/fictshop/payment-webhooks/internal/domain"
)

type HTTPNotifier struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPNotifier(cfg config.NotifierConfig) application.Notifier {
	return &HTTPNotifier{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.ConnTimeout,
		},
	}
}

type orderConfirmationRequest struct {
	OrderID       string `json:"order_id"`
	IncrementID   string `json:"increment_id"`
	CustomerEmail string `json:"customer_email"`
	GrandTotal    string `json:"grand_total"`
	Currency      string `json:"currency"`
}

type invoiceRequest struct {
	OrderID       string `json:"order_id"`
	InvoiceID     string `json:"invoice_id"`
	CustomerEmail string `json:"customer_email"`
	GrandTotal    string `json:"grand_total"`
	Currency      string `json:"currency"`
}

func (c *HTTPNotifier) SendOrderConfirmation(ctx context.Context, order *domain.Order) error {
	url := fmt.Sprintf("%s/api/v1/mails/order-confirmation", c.baseURL)
	return c.send(ctx, url, orderConfirmationRequest{
		OrderID:       order.ID,
		IncrementID:   order.IncrementID,
		CustomerEmail: order.CustomerEmail,
		GrandTotal:    order.GrandTotal.StringFixed(2),
		Currency:      order.Currency,
	})
}

func (c *HTTPNotifier) SendInvoice(ctx context.Context, order *domain.Order, invoice *domain.Invoice) error {
	url := fmt.Sprintf("%s/api/v1/mails/invoice", c.baseURL)
	return c.send(ctx, url, invoiceRequest{
		OrderID:       order.ID,
		InvoiceID:     invoice.ID,
		CustomerEmail: order.CustomerEmail,
		GrandTotal:    invoice.GrandTotal.StringFixed(2),
		Currency:      order.Currency,
	})
}

func (c *HTTPNotifier) send(ctx context.Context, url string, reqBody any) error {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("error marshalling json: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("notifier returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
