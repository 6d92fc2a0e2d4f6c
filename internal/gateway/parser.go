// Package gateway implements the processor-facing protocol pieces: parsing
// inbound notification payloads and verifying their authenticity hash.
package gateway

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/fictshop/payment-webhooks/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	resultAck = "ACK"
	resultNok = "NOK"

	// the processor parks asynchronous payments under this status code
	// until the money actually arrives.
	statusCodeWaiting = "80"
)

// ParseForm normalizes a form-encoded Response-channel payload into a
// Notification. Every submitted field is preserved in RawFields.
func ParseForm(values url.Values) (*domain.Notification, error) {
	raw := make(map[string]string, len(values))
	for key := range values {
		raw[key] = values.Get(key)
	}
	return fromRawFields(raw, domain.ChannelResponse)
}

// ParsePush parses the processor's native XML push document and flattens it
// into the same Notification shape the Response channel produces. The whole
// document survives in RawFields, not just the interpreted fields.
func ParsePush(body []byte) (*domain.Notification, error) {
	raw, err := flattenPushDocument(body)
	if err != nil {
		return nil, err
	}
	return fromRawFields(raw, domain.ChannelPush)
}

// flattenPushDocument walks the XML token stream and maps every element,
// attribute and named Criterion entry onto the flat SECTION_FIELD key space
// the form channel submits. Elements the typed extraction never reads still
// end up in the map, so the audit row carries the full original document.
func flattenPushDocument(body []byte) (map[string]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))

	var declaredCharset string
	dec.CharsetReader = func(charset string, _ io.Reader) (io.Reader, error) {
		declaredCharset = charset
		return nil, errors.New("unsupported charset")
	}

	raw := make(map[string]string)
	var stack []string
	var text strings.Builder

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return raw, nil
		}
		if err != nil {
			if declaredCharset != "" {
				return nil, domain.NewUnknownEncodingError(declaredCharset)
			}
			return nil, domain.NewMalformedNotificationError(fmt.Sprintf("cannot parse push document: %v", err))
		}

		switch t := tok.(type) {
		case xml.StartElement:
			part := strings.ToUpper(t.Name.Local)
			attrs := t.Attr
			if part == "CRITERION" {
				// <Criterion name="X">v</Criterion> becomes CRITERION_X,
				// the same key the form channel sends it under.
				for i, attr := range t.Attr {
					if strings.EqualFold(attr.Name.Local, "name") {
						part = "CRITERION_" + strings.ToUpper(attr.Value)
						attrs = append(append([]xml.Attr(nil), t.Attr[:i]...), t.Attr[i+1:]...)
						break
					}
				}
			}
			stack = append(stack, part)
			if key := flatKey(stack); key != "" {
				for _, attr := range attrs {
					if attr.Value != "" {
						raw[key+"_"+strings.ToUpper(attr.Name.Local)] = attr.Value
					}
				}
			}
			text.Reset()
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			if value := strings.TrimSpace(text.String()); value != "" {
				if key := flatKey(stack); key != "" {
					raw[key] = value
				}
			}
			text.Reset()
			stack = stack[:len(stack)-1]
		}
	}
}

// flatKey derives the flat field name for the innermost open element. The
// document wrappers are dropped and deeper nesting collapses to the nearest
// section prefix, so Payment/Presentation/Amount becomes PRESENTATION_AMOUNT
// exactly as the form channel names it.
func flatKey(stack []string) string {
	parts := stack
	if len(parts) > 0 && parts[0] == "RESPONSE" {
		parts = parts[1:]
	}
	if len(parts) > 1 && parts[0] == "TRANSACTION" {
		parts = parts[1:]
	}
	if len(parts) == 0 {
		return ""
	}
	last := parts[len(parts)-1]
	if len(parts) == 1 || strings.HasPrefix(last, "CRITERION_") {
		return last
	}
	return parts[len(parts)-2] + "_" + last
}

func fromRawFields(raw map[string]string, channel domain.Channel) (*domain.Notification, error) {
	transactionID := raw[domain.FieldTransactionID]
	if transactionID == "" {
		return nil, domain.NewMissingRequiredFieldError(domain.FieldTransactionID)
	}

	result := raw[domain.FieldResult]
	if result == "" {
		return nil, domain.NewMissingRequiredFieldError(domain.FieldResult)
	}

	amount := decimal.Zero
	if rawAmount := raw[domain.FieldAmount]; rawAmount != "" {
		parsed, err := decimal.NewFromString(rawAmount)
		if err != nil {
			return nil, domain.NewInvalidAmountError(rawAmount)
		}
		amount = parsed
	}

	method, paymentType := domain.SplitPaymentCode(raw[domain.FieldPaymentCode])

	return &domain.Notification{
		TransactionID:      transactionID,
		PaymentReferenceID: raw[domain.FieldUniqueID],
		ParentReferenceID:  raw[domain.FieldReferenceID],
		PaymentMethodCode:  method,
		PaymentTypeCode:    paymentType,
		Outcome:            outcomeFrom(result, raw[domain.FieldStatusCode]),
		Amount:             amount,
		Currency:           raw[domain.FieldCurrency],
		SecurityHash:       raw[domain.FieldSecretHash],
		Channel:            channel,
		RawFields:          raw,
		ReceivedAt:         time.Now(),
	}, nil
}

func outcomeFrom(result, statusCode string) domain.Outcome {
	switch {
	case result == resultNok:
		return domain.OutcomeError
	case result == resultAck && statusCode == statusCodeWaiting:
		return domain.OutcomePending
	default:
		return domain.OutcomeSuccess
	}
}
