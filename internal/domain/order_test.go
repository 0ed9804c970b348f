package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusCanProgressTo(t *testing.T) {
	assert.True(t, OrderStatusPending.CanProgressTo(OrderStatusInProgress))
	assert.True(t, OrderStatusInProgress.CanProgressTo(OrderStatusCompleted))

	assert.False(t, OrderStatusPending.CanProgressTo(OrderStatusCompleted))
	assert.False(t, OrderStatusCompleted.CanProgressTo(OrderStatusPending))
	assert.False(t, OrderStatusInProgress.CanProgressTo(OrderStatusPending))
}

func TestOrderStatusIsValid(t *testing.T) {
	assert.True(t, OrderStatusPending.IsValid())
	assert.True(t, OrderStatusInProgress.IsValid())
	assert.True(t, OrderStatusCompleted.IsValid())
	assert.False(t, OrderStatus("shipped").IsValid())
}
