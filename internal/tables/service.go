// Package tables tracks the physical table roster, the ephemeral customer
// block registry and derived occupancy. Blocks are advisory, last-writer-wins
// state held in process memory; occupancy is always recomputed from the order
// ledger so it cannot drift on missed events.
package tables

import (
	"context"
	"sort"
	"sync"
	"time"

	"tableside/internal/activity"
	"tableside/internal/bus"
	"tableside/internal/domain"
	"tableside/internal/logging"
	"tableside/internal/store"
)

// TableState is the cashier dashboard view of one table.
type TableState struct {
	domain.Table
	Occupied bool               `json:"occupied"`
	Blocked  bool               `json:"blocked"`
	Block    *domain.TableBlock `json:"block,omitempty"`
}

type Service struct {
	tables store.Tables
	orders store.Orders
	bus    bus.Bus
	audit  *activity.Logger
	log    *logging.Logger
	ttl    time.Duration
	now    func() time.Time

	mu     sync.Mutex
	blocks map[int]domain.TableBlock
}

func New(tables store.Tables, orders store.Orders, b bus.Bus, audit *activity.Logger, log *logging.Logger, blockTTL time.Duration) *Service {
	return &Service{
		tables: tables,
		orders: orders,
		bus:    b,
		audit:  audit,
		log:    log,
		ttl:    blockTTL,
		now:    func() time.Time { return time.Now().UTC() },
		blocks: map[int]domain.TableBlock{},
	}
}

// Block registers a customer session viewing the table's menu. Re-blocking
// refreshes the timestamp; there is no session fencing, the last writer wins.
func (s *Service) Block(ctx context.Context, tableID int, label string) (*domain.TableBlock, error) {
	t, err := s.tables.GetByID(ctx, tableID)
	if err != nil {
		return nil, domain.Infra("load table", err)
	}
	if t == nil {
		return nil, domain.NotFoundf("table %d not found", tableID)
	}
	if !t.Available {
		return nil, domain.Conflictf("table %d is not available", tableID)
	}
	if label == "" {
		label = t.Label
	}

	block := domain.TableBlock{TableID: tableID, TableLabel: label, BlockedAt: s.now()}
	s.mu.Lock()
	s.blocks[tableID] = block
	s.mu.Unlock()

	s.publish(ctx, domain.Event{
		Type:       domain.EventTableBlocked,
		OccurredAt: block.BlockedAt,
		Block:      &block,
	})
	return &block, nil
}

// Release clears the block regardless of who set it. Callable by the
// originating session, a cashier, or the janitor; a released table can only
// be re-blocked by a fresh Block call. Releasing an unblocked table is a
// no-op and broadcasts nothing.
func (s *Service) Release(ctx context.Context, tableID int) {
	s.mu.Lock()
	block, had := s.blocks[tableID]
	delete(s.blocks, tableID)
	s.mu.Unlock()

	if !had {
		return
	}
	s.publish(ctx, domain.Event{
		Type:       domain.EventTableReleased,
		OccurredAt: s.now(),
		Block:      &block,
	})
}

func (s *Service) IsBlocked(tableID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blocks[tableID]
	return ok
}

func (s *Service) Blocks() []domain.TableBlock {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.TableBlock, 0, len(s.blocks))
	for _, b := range s.blocks {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TableID < out[j].TableID })
	return out
}

// IsOccupied derives occupancy from the order ledger.
func (s *Service) IsOccupied(ctx context.Context, tableNumber int) (bool, error) {
	occupied, err := s.orders.HasActiveForTable(ctx, tableNumber)
	if err != nil {
		return false, domain.Infra("occupancy check", err)
	}
	return occupied, nil
}

// Sweep drops blocks older than the TTL. A table with an active order is
// never swept: the order is a stronger occupancy signal than the block, and
// a seated, ordering table must not be silently freed.
func (s *Service) Sweep(ctx context.Context) {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var stale []domain.TableBlock
	for id, b := range s.blocks {
		if b.BlockedAt.Before(cutoff) {
			stale = append(stale, s.blocks[id])
		}
	}
	s.mu.Unlock()

	for _, b := range stale {
		occupied, err := s.orders.HasActiveForTable(ctx, b.TableID)
		if err != nil {
			s.log.Fail("sweep_occupancy_check", err, "table_id", b.TableID)
			continue
		}
		if occupied {
			continue
		}
		s.Release(ctx, b.TableID)
		s.log.Action("block_expired", "table_id", b.TableID)
	}
}

// RunJanitor sweeps on an interval until the context ends. Client-owned
// timers remain the primary release path; this is a leak backstop.
func (s *Service) RunJanitor(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Sweep(ctx)
		}
	}
}

// ListState returns the roster with derived occupancy and block state.
func (s *Service) ListState(ctx context.Context) ([]TableState, error) {
	ts, err := s.tables.List(ctx)
	if err != nil {
		return nil, domain.Infra("list tables", err)
	}
	out := make([]TableState, 0, len(ts))
	for _, t := range ts {
		occupied, err := s.orders.HasActiveForTable(ctx, t.ID)
		if err != nil {
			return nil, domain.Infra("occupancy check", err)
		}
		st := TableState{Table: t, Occupied: occupied}
		s.mu.Lock()
		if b, ok := s.blocks[t.ID]; ok {
			st.Blocked = true
			st.Block = &b
		}
		s.mu.Unlock()
		out = append(out, st)
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, label string, capacity int, actorName string) (*domain.Table, error) {
	if label == "" {
		return nil, domain.Validationf("table label is required")
	}
	if capacity <= 0 {
		capacity = 4
	}
	t := &domain.Table{Label: label, Capacity: capacity, Available: true}
	if err := s.tables.Create(ctx, t); err != nil {
		if domain.IsConflict(err) {
			return nil, err
		}
		return nil, domain.Infra("create table", err)
	}
	s.emitTable(ctx, domain.TableCreated, t)
	s.audit.Log("tables", "table_created", actorName, label, "success")
	return t, nil
}

func (s *Service) Update(ctx context.Context, id int, label string, capacity int, actorName string) (*domain.Table, error) {
	t, err := s.tables.GetByID(ctx, id)
	if err != nil {
		return nil, domain.Infra("load table", err)
	}
	if t == nil {
		return nil, domain.NotFoundf("table %d not found", id)
	}
	if label != "" {
		t.Label = label
	}
	if capacity > 0 {
		t.Capacity = capacity
	}
	ok, err := s.tables.Update(ctx, t)
	if err != nil {
		if domain.IsConflict(err) {
			return nil, err
		}
		return nil, domain.Infra("update table", err)
	}
	if !ok {
		return nil, domain.NotFoundf("table %d not found", id)
	}
	s.emitTable(ctx, domain.TableUpdated, t)
	s.audit.Log("tables", "table_updated", actorName, t.Label, "success")
	return t, nil
}

func (s *Service) Delete(ctx context.Context, id int, actorName string) error {
	t, err := s.tables.GetByID(ctx, id)
	if err != nil {
		return domain.Infra("load table", err)
	}
	if t == nil {
		return domain.NotFoundf("table %d not found", id)
	}
	occupied, err := s.IsOccupied(ctx, id)
	if err != nil {
		return err
	}
	if occupied {
		return domain.Conflictf("table %d has an active order", id)
	}
	if _, err := s.tables.Delete(ctx, id); err != nil {
		return domain.Infra("delete table", err)
	}
	s.Release(ctx, id)
	s.emitTable(ctx, domain.TableDeleted, t)
	s.audit.Log("tables", "table_deleted", actorName, t.Label, "success")
	return nil
}

func (s *Service) SetAvailability(ctx context.Context, id int, available bool, actorName string) (*domain.Table, error) {
	ok, err := s.tables.SetAvailability(ctx, id, available)
	if err != nil {
		return nil, domain.Infra("set availability", err)
	}
	if !ok {
		return nil, domain.NotFoundf("table %d not found", id)
	}
	t, err := s.tables.GetByID(ctx, id)
	if err != nil || t == nil {
		return nil, domain.Infra("reload table", err)
	}
	s.emitTable(ctx, domain.TableAvailabilityChanged, t)
	s.audit.Log("tables", "table_availability_changed", actorName, t.Label, "success")
	return t, nil
}

// Bell relays a customer service call to the cashier group.
func (s *Service) Bell(ctx context.Context, tableNumber int, label string) {
	s.publishCall(ctx, domain.EventBellRequest, tableNumber, label)
}

// Bill relays a customer bill request to the cashier group.
func (s *Service) Bill(ctx context.Context, tableNumber int, label string) {
	s.publishCall(ctx, domain.EventBillRequest, tableNumber, label)
}

func (s *Service) publishCall(ctx context.Context, typ domain.EventType, tableNumber int, label string) {
	s.publish(ctx, domain.Event{
		Type:       typ,
		OccurredAt: s.now(),
		Call:       &domain.TableCall{TableNumber: tableNumber, TableLabel: label, RequestedAt: s.now()},
	})
}

func (s *Service) emitTable(ctx context.Context, change domain.TableChange, t *domain.Table) {
	s.publish(ctx, domain.Event{
		Type:        domain.EventTableUpdate,
		OccurredAt:  s.now(),
		TableChange: change,
		Table:       t,
	})
}

func (s *Service) publish(ctx context.Context, ev domain.Event) {
	if err := s.bus.Publish(ctx, domain.TopicTables, ev); err != nil {
		s.log.Fail("event_publish", err, "type", string(ev.Type))
	}
}
