package mq

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventEnvelope(t *testing.T) {
	evt, body, err := NewEvent(EventPaymentApproved, map[string]any{"payment_id": 3, "order_id": 9})
	require.NoError(t, err)
	assert.NotEmpty(t, evt.EventID)

	decoded, err := DecodeEvent(body)
	require.NoError(t, err)
	assert.Equal(t, evt.EventID, decoded.EventID)
	assert.Equal(t, "payment.approved", decoded.Type)

	var payload struct {
		OrderID int64 `json:"order_id"`
	}
	require.NoError(t, json.Unmarshal(decoded.Payload, &payload))
	assert.Equal(t, int64(9), payload.OrderID)
}

func TestDecodeEventRejectsGarbage(t *testing.T) {
	_, err := DecodeEvent([]byte("{not json"))
	assert.Error(t, err)
}

func TestDeadLetterNames(t *testing.T) {
	assert.Equal(t, "agri.exchange.dlx", DeadLetterExchange("agri.exchange"))
	assert.Equal(t, "agri.notifications.dlq", DeadLetterQueue("agri.notifications"))
}
