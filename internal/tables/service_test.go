package tables

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
	"tableside/internal/store/storetest"
)

func newService(t *testing.T) (*Service, *storetest.Orders, *bus.MemoryBus) {
	t.Helper()
	b := bus.NewMemory()
	t.Cleanup(func() { _ = b.Close() })
	log := logging.New("tables-test")
	orders := storetest.NewOrders()
	svc := New(storetest.NewTables(), orders, b, activity.New(nil, log), log, 30*time.Minute)
	return svc, orders, b
}

func seedTable(t *testing.T, svc *Service, label string) *domain.Table {
	t.Helper()
	tbl, err := svc.Create(context.Background(), label, 4, "admin")
	require.NoError(t, err)
	return tbl
}

func activeOrderFor(t *testing.T, orders *storetest.Orders, tableNumber int) *domain.Order {
	t.Helper()
	n := tableNumber
	o := &domain.Order{
		Code: "ORD_20250301_001", CustomerName: "guest", Status: domain.StatusNew,
		OrderType: domain.OrderDining, TableNumber: &n,
		Items:     []domain.OrderItem{{Name: "Momo", UnitPrice: 100, Quantity: 1}},
		Total:     100, CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, orders.Insert(context.Background(), o))
	return o
}

func TestBlockAndRelease(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	tbl := seedTable(t, svc, "A3")

	block, err := svc.Block(ctx, tbl.ID, "A3")
	require.NoError(t, err)
	assert.Equal(t, tbl.ID, block.TableID)
	assert.True(t, svc.IsBlocked(tbl.ID))

	svc.Release(ctx, tbl.ID)
	assert.False(t, svc.IsBlocked(tbl.ID))
	assert.Empty(t, svc.Blocks(), "a stale session cannot resurrect a released block")
}

func TestBlockIsIdempotentRefresh(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	tbl := seedTable(t, svc, "A1")

	first, err := svc.Block(ctx, tbl.ID, "A1")
	require.NoError(t, err)

	svc.now = func() time.Time { return first.BlockedAt.Add(time.Minute) }
	second, err := svc.Block(ctx, tbl.ID, "A1")
	require.NoError(t, err)

	assert.True(t, second.BlockedAt.After(first.BlockedAt), "re-block refreshes the timestamp")
	assert.Len(t, svc.Blocks(), 1, "block identity is keyed by table id")
}

func TestBlockUnknownOrUnavailableTable(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Block(ctx, 99, "")
	assert.True(t, domain.IsNotFound(err))

	tbl := seedTable(t, svc, "A2")
	_, err = svc.SetAvailability(ctx, tbl.ID, false, "admin")
	require.NoError(t, err)
	_, err = svc.Block(ctx, tbl.ID, "")
	assert.True(t, domain.IsConflict(err))
}

func TestBlockBroadcasts(t *testing.T) {
	svc, _, b := newService(t)
	ctx := context.Background()
	tbl := seedTable(t, svc, "A5")

	sub, err := b.Subscribe(domain.TopicTables)
	require.NoError(t, err)

	_, err = svc.Block(ctx, tbl.ID, "A5")
	require.NoError(t, err)
	ev := <-sub.C
	assert.Equal(t, domain.EventTableBlocked, ev.Type)
	require.NotNil(t, ev.Block)
	assert.Equal(t, "A5", ev.Block.TableLabel)

	svc.Release(ctx, tbl.ID)
	ev = <-sub.C
	assert.Equal(t, domain.EventTableReleased, ev.Type)
}

func TestReleaseWithoutBlockIsSilent(t *testing.T) {
	svc, _, b := newService(t)
	ctx := context.Background()
	tbl := seedTable(t, svc, "A7")

	sub, err := b.Subscribe(domain.TopicTables)
	require.NoError(t, err)

	svc.Release(ctx, tbl.ID)
	select {
	case ev := <-sub.C:
		t.Fatalf("unexpected %s event for a table that was never blocked", ev.Type)
	default:
	}
}

func TestOccupancyDerivation(t *testing.T) {
	svc, orders, _ := newService(t)
	ctx := context.Background()

	o := activeOrderFor(t, orders, 5)

	occupied, err := svc.IsOccupied(ctx, 5)
	require.NoError(t, err)
	assert.True(t, occupied)

	ok, err := orders.MarkPaid(ctx, o.ID, domain.PayCash)
	require.NoError(t, err)
	require.True(t, ok)

	occupied, err = svc.IsOccupied(ctx, 5)
	require.NoError(t, err)
	assert.False(t, occupied, "settled order frees the table")
}

func TestCancelledDiningFreesTable(t *testing.T) {
	svc, orders, _ := newService(t)
	ctx := context.Background()

	o := activeOrderFor(t, orders, 8)
	ok, err := orders.UpdateStatus(ctx, o.ID, []domain.OrderStatus{domain.StatusNew}, domain.StatusCancelled, false)
	require.NoError(t, err)
	require.True(t, ok)

	occupied, err := svc.IsOccupied(ctx, 8)
	require.NoError(t, err)
	assert.False(t, occupied)
}

func TestSweepSkipsOccupiedTables(t *testing.T) {
	svc, orders, _ := newService(t)
	ctx := context.Background()
	busy := seedTable(t, svc, "B1")
	idle := seedTable(t, svc, "B2")

	_, err := svc.Block(ctx, busy.ID, "B1")
	require.NoError(t, err)
	_, err = svc.Block(ctx, idle.ID, "B2")
	require.NoError(t, err)
	activeOrderFor(t, orders, busy.ID)

	// both blocks are now older than the TTL
	svc.now = func() time.Time { return time.Now().UTC().Add(31 * time.Minute) }
	svc.Sweep(ctx)

	assert.True(t, svc.IsBlocked(busy.ID), "an ordering table is never silently freed")
	assert.False(t, svc.IsBlocked(idle.ID), "stale block without an order expires")
}

func TestTableCRUDEmitsEvents(t *testing.T) {
	svc, _, b := newService(t)
	ctx := context.Background()

	sub, err := b.Subscribe(domain.TopicTables)
	require.NoError(t, err)

	tbl, err := svc.Create(ctx, "C1", 2, "admin")
	require.NoError(t, err)
	ev := <-sub.C
	assert.Equal(t, domain.TableCreated, ev.TableChange)

	_, err = svc.Create(ctx, "C1", 2, "admin")
	assert.True(t, domain.IsConflict(err), "duplicate label")

	_, err = svc.Update(ctx, tbl.ID, "C1-window", 4, "admin")
	require.NoError(t, err)
	ev = <-sub.C
	assert.Equal(t, domain.TableUpdated, ev.TableChange)
	assert.Equal(t, "C1-window", ev.Table.Label)

	_, err = svc.SetAvailability(ctx, tbl.ID, false, "admin")
	require.NoError(t, err)
	ev = <-sub.C
	assert.Equal(t, domain.TableAvailabilityChanged, ev.TableChange)
	assert.False(t, ev.Table.Available)

	require.NoError(t, svc.Delete(ctx, tbl.ID, "admin"))
}

func TestDeleteOccupiedTableRejected(t *testing.T) {
	svc, orders, _ := newService(t)
	ctx := context.Background()
	tbl := seedTable(t, svc, "D1")
	activeOrderFor(t, orders, tbl.ID)

	err := svc.Delete(ctx, tbl.ID, "admin")
	assert.True(t, domain.IsConflict(err))
}

func TestBellAndBillRequests(t *testing.T) {
	svc, _, b := newService(t)
	ctx := context.Background()

	sub, err := b.Subscribe(domain.TopicTables)
	require.NoError(t, err)

	svc.Bell(ctx, 3, "A3")
	ev := <-sub.C
	assert.Equal(t, domain.EventBellRequest, ev.Type)
	require.NotNil(t, ev.Call)
	assert.Equal(t, 3, ev.Call.TableNumber)

	svc.Bill(ctx, 3, "A3")
	ev = <-sub.C
	assert.Equal(t, domain.EventBillRequest, ev.Type)
}
