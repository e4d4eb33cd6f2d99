package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderTransitions(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{OrderStatusPending, OrderStatusConfirmed, true},
		{OrderStatusPending, OrderStatusShipped, true},
		{OrderStatusConfirmed, OrderStatusCancelled, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusConfirmed, true},
		{OrderStatusShipped, OrderStatusCancelled, true},
		{OrderStatusDelivered, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusConfirmed, false},
		{OrderStatusConfirmed, OrderStatusPending, false},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.ok, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
	assert.False(t, OrderStatus("teleported").Valid())
}

func TestDeliveryTransitions(t *testing.T) {
	assert.True(t, DeliveryStatusPending.CanTransitionTo(DeliveryStatusPending))
	assert.True(t, DeliveryStatusInTransit.CanTransitionTo(DeliveryStatusFailed))
	assert.False(t, DeliveryStatusFailed.CanTransitionTo(DeliveryStatusFailed))
	assert.False(t, DeliveryStatusDelivered.CanTransitionTo(DeliveryStatusInTransit))
	assert.True(t, DeliveryStatusFailed.Terminal())
}
