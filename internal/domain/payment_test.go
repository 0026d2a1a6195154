package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPayment_Defaults(t *testing.T) {
	payment := NewPayment(decimal.RequireFromString("345.00"))

	assert.Equal(t, PaymentStatusPending, payment.Status)
	assert.Equal(t, PaymentMethodSimulated, payment.Method)
	assert.Equal(t, "345.00", payment.Amount.StringFixed(2))
	assert.Nil(t, payment.ProcessedAt)
}

func TestMarkCompleted_SetsProcessedAtOnce(t *testing.T) {
	payment := NewPayment(decimal.RequireFromString("100.00"))

	payment.MarkCompleted()
	require.NotNil(t, payment.ProcessedAt)
	first := *payment.ProcessedAt

	payment.MarkCompleted()
	assert.Equal(t, first, *payment.ProcessedAt)
}

func TestMarkFailed(t *testing.T) {
	payment := NewPayment(decimal.RequireFromString("100.00"))

	payment.MarkFailed()
	assert.Equal(t, PaymentStatusFailed, payment.Status)
	assert.NotNil(t, payment.ProcessedAt)
}
