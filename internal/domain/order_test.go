package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition_LegalEdges(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{StatusNew, StatusCooking, true},
		{StatusNew, StatusCancelled, true},
		{StatusNew, StatusReady, false},
		{StatusCooking, StatusReady, true},
		{StatusCooking, StatusNew, false},
		{StatusReady, StatusPaymentPending, true},
		{StatusReady, StatusCompleted, true},
		{StatusPaymentPending, StatusPaymentComplete, true},
		{StatusPaymentPending, StatusCompleted, false},
		{StatusPaymentComplete, StatusCompleted, true},
		{StatusPaymentComplete, StatusCancelled, true},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusNew, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusReady.Terminal())
}

func TestActiveForOccupancy(t *testing.T) {
	n := 5
	o := Order{TableNumber: &n, Status: StatusNew, OrderType: OrderDining}
	assert.True(t, o.ActiveForOccupancy())

	o.IsSettled = true
	assert.False(t, o.ActiveForOccupancy())

	o.IsSettled = false
	o.Status = StatusCancelled
	assert.False(t, o.ActiveForOccupancy(), "cancelled dining order frees the table")
}

func TestInActiveView_CancelledTakeawayStaysUntilRefund(t *testing.T) {
	o := Order{Status: StatusCancelled, OrderType: OrderTakeaway, IsPaid: true}
	require.True(t, o.InActiveView(), "cancelled takeaway must stay queued for refund")

	o.RefundStatus = true
	o.IsSettled = true
	assert.False(t, o.InActiveView())

	dining := Order{Status: StatusCancelled, OrderType: OrderDining}
	assert.False(t, dining.InActiveView())
}

func TestAuthoritativeTime(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	completed := created.Add(40 * time.Minute)

	o := Order{Status: StatusCompleted, CreatedAt: created, CompletedAt: &completed}
	assert.Equal(t, completed, o.AuthoritativeTime())

	o.CompletedAt = nil
	assert.Equal(t, created, o.AuthoritativeTime())

	o = Order{Status: StatusCancelled, CreatedAt: created, CompletedAt: &completed}
	assert.Equal(t, created, o.AuthoritativeTime(), "cancelled orders report creation time")
}
