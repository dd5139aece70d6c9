package shifts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableside/internal/activity"
	"tableside/internal/domain"
	"tableside/internal/logging"
	"tableside/internal/store/storetest"
)

func newService(t *testing.T) (*Service, *storetest.Orders) {
	t.Helper()
	log := logging.New("shifts-test")
	orders := storetest.NewOrders()
	return New(storetest.NewShifts(), orders, activity.New(nil, log), log), orders
}

func cashOrder(t *testing.T, orders *storetest.Orders, total float64, createdAt time.Time, refunded bool) {
	t.Helper()
	o := &domain.Order{
		Code: time.Now().Format("ORD_20060102_150405.000000000"), CustomerName: "walk-in",
		Status: domain.StatusCompleted, OrderType: domain.OrderTakeaway,
		Items:  []domain.OrderItem{{Name: "item", UnitPrice: total, Quantity: 1}},
		Total:  total, IsPaid: true, IsSettled: true, PaymentMethod: domain.PayCash,
		RefundStatus: refunded, CreatedAt: createdAt, UpdatedAt: createdAt,
	}
	require.NoError(t, orders.Insert(context.Background(), o))
}

func TestCashInCashOutLifecycle(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	shift, err := svc.CashIn(ctx, 1, "asha", 1000)
	require.NoError(t, err)
	assert.Equal(t, domain.ShiftActive, shift.Status)

	_, err = svc.CashIn(ctx, 1, "asha", 500)
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err), "second cash-in with an active shift")

	res, err := svc.CashOut(ctx, 1, 1400)
	require.NoError(t, err)
	assert.Equal(t, 400.0, res.Difference)
	assert.Equal(t, domain.ShiftCompleted, res.Shift.Status)

	// after cash-out a fresh cash-in succeeds
	_, err = svc.CashIn(ctx, 1, "asha", 800)
	require.NoError(t, err)
}

func TestCashOutWithoutActiveShift(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.CashOut(context.Background(), 42, 100)
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

func TestGetActive(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	shift, err := svc.GetActive(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, shift)

	opened, err := svc.CashIn(ctx, 1, "asha", 500)
	require.NoError(t, err)

	shift, err = svc.GetActive(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, shift)
	assert.Equal(t, opened.ID, shift.ID)
}

func TestShiftsAreIndependentPerCashier(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CashIn(ctx, 1, "asha", 1000)
	require.NoError(t, err)
	_, err = svc.CashIn(ctx, 2, "ravi", 700)
	require.NoError(t, err, "a different cashier opens independently")
}

func TestCurrentBalance_DerivedFromLedger(t *testing.T) {
	svc, orders := newService(t)
	ctx := context.Background()

	shift, err := svc.CashIn(ctx, 1, "asha", 1000)
	require.NoError(t, err)

	// before the shift opened: excluded
	cashOrder(t, orders, 999, shift.CashInTime.Add(-time.Hour), false)
	// during the shift: counted
	cashOrder(t, orders, 300, shift.CashInTime.Add(time.Minute), false)
	cashOrder(t, orders, 200, shift.CashInTime.Add(2*time.Minute), false)
	// refunded during the shift: stays in sales, netted out by the refund
	cashOrder(t, orders, 150, shift.CashInTime.Add(3*time.Minute), true)

	bal, err := svc.CurrentBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 650.0, bal.CashSales)
	assert.Equal(t, 150.0, bal.CashRefunded)
	assert.Equal(t, 1500.0, bal.Total)

	// recomputed on every read, not incremented
	cashOrder(t, orders, 100, shift.CashInTime.Add(4*time.Minute), false)
	bal, err = svc.CurrentBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1600.0, bal.Total)
}

func TestCurrentBalance_RefundNetsToZero(t *testing.T) {
	svc, orders := newService(t)
	ctx := context.Background()

	shift, err := svc.CashIn(ctx, 1, "asha", 1000)
	require.NoError(t, err)

	// paid in cash at creation, then refunded: drawer is back where it started
	cashOrder(t, orders, 300, shift.CashInTime.Add(time.Minute), true)

	bal, err := svc.CurrentBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 300.0, bal.CashSales)
	assert.Equal(t, 300.0, bal.CashRefunded)
	assert.Equal(t, 1000.0, bal.Total)
}

func TestCurrentBalanceRequiresActiveShift(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.CurrentBalance(context.Background(), 7)
	assert.True(t, domain.IsNotFound(err))
}

func TestCashInRejectsNegativeAmount(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.CashIn(context.Background(), 1, "asha", -5)
	assert.True(t, domain.IsValidation(err))
}
