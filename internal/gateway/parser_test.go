package gateway_test

import (
	"net/url"
	"testing"

	"github.com/fictshop/payment-webhooks/internal/domain"
	"github.com/fictshop/payment-webhooks/internal/gateway"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() url.Values {
	return url.Values{
		"IDENTIFICATION_TRANSACTIONID": {"txn-100"},
		"IDENTIFICATION_UNIQUEID":      {"uniq-1"},
		"IDENTIFICATION_REFERENCEID":   {"ref-1"},
		"PAYMENT_CODE":                 {"DD.DB"},
		"PROCESSING_RESULT":            {"ACK"},
		"PROCESSING_STATUS_CODE":       {"90"},
		"PRESENTATION_AMOUNT":          {"150.37"},
		"PRESENTATION_CURRENCY":        {"EUR"},
		"CRITERION_SECRET_HASH":        {"abc123"},
	}
}

func TestParseForm(t *testing.T) {
	t.Run("parses a well-formed payload", func(t *testing.T) {
		n, err := gateway.ParseForm(validForm())

		require.NoError(t, err)
		assert.Equal(t, "txn-100", n.TransactionID)
		assert.Equal(t, "uniq-1", n.PaymentReferenceID)
		assert.Equal(t, "ref-1", n.ParentReferenceID)
		assert.Equal(t, "DD", n.PaymentMethodCode)
		assert.Equal(t, "DB", n.PaymentTypeCode)
		assert.Equal(t, domain.OutcomeSuccess, n.Outcome)
		assert.True(t, n.Amount.Equal(decimal.RequireFromString("150.37")))
		assert.Equal(t, "EUR", n.Currency)
		assert.Equal(t, "abc123", n.SecurityHash)
		assert.Equal(t, domain.ChannelResponse, n.Channel)
	})

	t.Run("preserves every submitted field in raw fields", func(t *testing.T) {
		form := validForm()
		form.Set("CRITERION_CUSTOM_FIELD", "anything")

		n, err := gateway.ParseForm(form)

		require.NoError(t, err)
		for key := range form {
			assert.Equal(t, form.Get(key), n.RawFields[key], "field %s", key)
		}
	})

	t.Run("rejects missing transaction id", func(t *testing.T) {
		form := validForm()
		form.Del("IDENTIFICATION_TRANSACTIONID")

		_, err := gateway.ParseForm(form)

		require.Error(t, err)
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeMissingRequiredField))
	})

	t.Run("rejects missing result", func(t *testing.T) {
		form := validForm()
		form.Del("PROCESSING_RESULT")

		_, err := gateway.ParseForm(form)

		require.Error(t, err)
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeMissingRequiredField))
	})

	t.Run("rejects unparseable amount", func(t *testing.T) {
		form := validForm()
		form.Set("PRESENTATION_AMOUNT", "not-a-number")

		_, err := gateway.ParseForm(form)

		require.Error(t, err)
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidAmount))
	})

	t.Run("maps NOK to error outcome", func(t *testing.T) {
		form := validForm()
		form.Set("PROCESSING_RESULT", "NOK")

		n, err := gateway.ParseForm(form)

		require.NoError(t, err)
		assert.Equal(t, domain.OutcomeError, n.Outcome)
	})

	t.Run("maps waiting status to pending outcome", func(t *testing.T) {
		form := validForm()
		form.Set("PROCESSING_STATUS_CODE", "80")

		n, err := gateway.ParseForm(form)

		require.NoError(t, err)
		assert.Equal(t, domain.OutcomePending, n.Outcome)
	})
}

const pushXML = `<?xml version="1.0" encoding="UTF-8"?>
<Response version="1.0">
  <Transaction mode="LIVE" channel="chan-1">
    <Identification>
      <TransactionID>txn-100</TransactionID>
      <UniqueID>uniq-push-1</UniqueID>
      <ReferenceID>ref-1</ReferenceID>
      <ShortID>1234.5678.9012</ShortID>
    </Identification>
    <Processing code="PP.RC.90.00">
      <Result>ACK</Result>
      <Status code="90">NEW</Status>
      <Return code="000.100.112">Request successfully processed</Return>
      <Reason>Transaction succeeded</Reason>
    </Processing>
    <Payment code="PP.RC">
      <Presentation>
        <Amount>60.00</Amount>
        <Currency>EUR</Currency>
      </Presentation>
    </Payment>
    <Account>
      <Holder>Max Mustermann</Holder>
      <Iban>DE89370400440532013000</Iban>
    </Account>
    <Criterion name="SECRET_HASH">cafe01</Criterion>
  </Transaction>
</Response>`

func TestParsePush(t *testing.T) {
	t.Run("parses the processor's XML document", func(t *testing.T) {
		n, err := gateway.ParsePush([]byte(pushXML))

		require.NoError(t, err)
		assert.Equal(t, "txn-100", n.TransactionID)
		assert.Equal(t, "uniq-push-1", n.PaymentReferenceID)
		assert.Equal(t, "ref-1", n.ParentReferenceID)
		assert.Equal(t, "PP", n.PaymentMethodCode)
		assert.Equal(t, "RC", n.PaymentTypeCode)
		assert.Equal(t, domain.OutcomeSuccess, n.Outcome)
		assert.True(t, n.Amount.Equal(decimal.RequireFromString("60.00")))
		assert.Equal(t, "EUR", n.Currency)
		assert.Equal(t, domain.ChannelPush, n.Channel)
	})

	t.Run("flattens the document into canonical raw fields", func(t *testing.T) {
		n, err := gateway.ParsePush([]byte(pushXML))

		require.NoError(t, err)
		assert.Equal(t, "txn-100", n.RawFields[domain.FieldTransactionID])
		assert.Equal(t, "uniq-push-1", n.RawFields[domain.FieldUniqueID])
		assert.Equal(t, "PP.RC", n.RawFields[domain.FieldPaymentCode])
		assert.Equal(t, "ACK", n.RawFields[domain.FieldResult])
		assert.Equal(t, "90", n.RawFields[domain.FieldStatusCode])
		assert.Equal(t, "000.100.112", n.RawFields[domain.FieldReturnCode])
		assert.Equal(t, "60.00", n.RawFields[domain.FieldAmount])
		assert.Equal(t, "EUR", n.RawFields[domain.FieldCurrency])
	})

	t.Run("keeps fields the typed extraction never reads", func(t *testing.T) {
		n, err := gateway.ParsePush([]byte(pushXML))

		require.NoError(t, err)
		assert.Equal(t, "1234.5678.9012", n.RawFields["IDENTIFICATION_SHORTID"])
		assert.Equal(t, "Max Mustermann", n.RawFields["ACCOUNT_HOLDER"])
		assert.Equal(t, "DE89370400440532013000", n.RawFields["ACCOUNT_IBAN"])
		assert.Equal(t, "cafe01", n.RawFields[domain.FieldSecretHash])
		assert.Equal(t, "cafe01", n.SecurityHash)
	})

	t.Run("rejects a document with an unsupported encoding", func(t *testing.T) {
		doc := `<?xml version="1.0" encoding="ISO-8859-1"?>` +
			`<Response version="1.0"><Transaction></Transaction></Response>`

		_, err := gateway.ParsePush([]byte(doc))

		require.Error(t, err)
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeUnknownEncoding))
	})

	t.Run("rejects a broken document", func(t *testing.T) {
		_, err := gateway.ParsePush([]byte("<Response><unclosed>"))

		require.Error(t, err)
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeMalformedNotification))
	})

	t.Run("rejects a document without identification", func(t *testing.T) {
		_, err := gateway.ParsePush([]byte(`<Response version="1.0"><Transaction></Transaction></Response>`))

		require.Error(t, err)
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeMissingRequiredField))
	})
}
