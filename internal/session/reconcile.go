// Package session resolves authoritative state for reconnecting clients.
// Client-cached flags are never trusted: on login and on every dashboard
// mount the client adopts this snapshot wholesale.
package session

import (
	"context"

	"tableside/internal/domain"
	"tableside/internal/shifts"
	"tableside/internal/store"
	"tableside/internal/tables"
)

// Snapshot is the server's answer to "what is true right now". A nil Shift
// means the cashier must re-enter the cash-in flow regardless of local state;
// a non-nil Shift is adopted silently even if the client thought it had none.
type Snapshot struct {
	Shift         *domain.Shift       `json:"shift"`
	ActiveOrders  []domain.Order      `json:"active_orders"`
	BlockedTables []domain.TableBlock `json:"blocked_tables"`
	Tables        []tables.TableState `json:"tables"`
}

type Service struct {
	shifts *shifts.Service
	orders store.Orders
	tables *tables.Service
}

func New(sh *shifts.Service, orders store.Orders, tb *tables.Service) *Service {
	return &Service{shifts: sh, orders: orders, tables: tb}
}

// Restore builds the reconciliation snapshot for a cashier session.
func (s *Service) Restore(ctx context.Context, cashierID int64) (*Snapshot, error) {
	shift, err := s.shifts.GetActive(ctx, cashierID)
	if err != nil {
		return nil, err
	}
	active, err := s.orders.List(ctx, store.OrderFilter{ActiveOnly: true})
	if err != nil {
		return nil, domain.Infra("list active orders", err)
	}
	state, err := s.tables.ListState(ctx)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Shift:         shift,
		ActiveOrders:  active,
		BlockedTables: s.tables.Blocks(),
		Tables:        state,
	}, nil
}
