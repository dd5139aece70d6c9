package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableside/internal/activity"
	"tableside/internal/bus"
	"tableside/internal/domain"
	"tableside/internal/logging"
	"tableside/internal/shifts"
	"tableside/internal/store/storetest"
	"tableside/internal/tables"
)

type fixture struct {
	svc    *Service
	shifts *shifts.Service
	tables *tables.Service
	orders *storetest.Orders
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logging.New("session-test")
	b := bus.NewMemory()
	t.Cleanup(func() { _ = b.Close() })
	audit := activity.New(nil, log)

	orders := storetest.NewOrders()
	sh := shifts.New(storetest.NewShifts(), orders, audit, log)
	tb := tables.New(storetest.NewTables(), orders, b, audit, log, 30*time.Minute)
	return &fixture{svc: New(sh, orders, tb), shifts: sh, tables: tb, orders: orders}
}

// A client that believes it has cash in, while the server has no active
// shift, must get a nil shift back and restart the cash-in flow.
func TestRestore_NoActiveShift(t *testing.T) {
	f := newFixture(t)

	snap, err := f.svc.Restore(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, snap.Shift)
	assert.Empty(t, snap.ActiveOrders)
	assert.Empty(t, snap.BlockedTables)
}

// A client with no local shift state adopts the server's active shift
// silently, e.g. after a crash or reload.
func TestRestore_AdoptsServerShift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	opened, err := f.shifts.CashIn(ctx, 1, "asha", 1000)
	require.NoError(t, err)

	snap, err := f.svc.Restore(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, snap.Shift)
	assert.Equal(t, opened.ID, snap.Shift.ID)
	assert.Equal(t, 1000.0, snap.Shift.CashInAmount)
}

func TestRestore_IncludesActiveOrdersAndBlocks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tbl, err := f.tables.Create(ctx, "A1", 4, "admin")
	require.NoError(t, err)
	_, err = f.tables.Block(ctx, tbl.ID, "A1")
	require.NoError(t, err)

	n := tbl.ID
	require.NoError(t, f.orders.Insert(ctx, &domain.Order{
		Code: "ORD_20250301_001", CustomerName: "guest", Status: domain.StatusCooking,
		OrderType: domain.OrderDining, TableNumber: &n,
		Items: []domain.OrderItem{{Name: "Momo", UnitPrice: 100, Quantity: 1}},
		Total: 100, CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}))
	// a settled order must not appear
	require.NoError(t, f.orders.Insert(ctx, &domain.Order{
		Code: "ORD_20250301_002", CustomerName: "done", Status: domain.StatusCompleted,
		OrderType: domain.OrderDining, TableNumber: &n,
		Items: []domain.OrderItem{{Name: "Tea", UnitPrice: 20, Quantity: 1}},
		Total: 20, IsPaid: true, IsSettled: true, PaymentMethod: domain.PayCard,
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}))

	snap, err := f.svc.Restore(ctx, 1)
	require.NoError(t, err)
	require.Len(t, snap.ActiveOrders, 1)
	assert.Equal(t, "ORD_20250301_001", snap.ActiveOrders[0].Code)
	require.Len(t, snap.BlockedTables, 1)
	assert.Equal(t, tbl.ID, snap.BlockedTables[0].TableID)
	require.Len(t, snap.Tables, 1)
	assert.True(t, snap.Tables[0].Occupied)
	assert.True(t, snap.Tables[0].Blocked)
}
