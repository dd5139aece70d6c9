// Package shifts enforces cashier shift accounting. The running balance is
// derived from the order ledger at read time, never stored as a counter, so
// missed or duplicated events cannot make it drift.
package shifts

import (
	"context"
	"time"

	"tableside/internal/activity"
	"tableside/internal/domain"
	"tableside/internal/logging"
	"tableside/internal/store"
)

// CloseResult surfaces the cash difference computed at cash-out. Historical
// order records are never touched.
type CloseResult struct {
	Shift      domain.Shift `json:"shift"`
	Difference float64      `json:"difference"`
}

// Balance is the authoritative running cash position for an active shift.
type Balance struct {
	Shift        domain.Shift `json:"shift"`
	CashSales    float64      `json:"cash_sales"`
	CashRefunded float64      `json:"cash_refunded"`
	Total        float64      `json:"total"`
}

type Service struct {
	shifts store.Shifts
	orders store.Orders
	audit  *activity.Logger
	log    *logging.Logger
	now    func() time.Time
}

func New(shifts store.Shifts, orders store.Orders, audit *activity.Logger, log *logging.Logger) *Service {
	return &Service{shifts: shifts, orders: orders, audit: audit, log: log,
		now: func() time.Time { return time.Now().UTC() }}
}

// CashIn opens a shift. The store guard rejects a second active shift for
// the same cashier even under concurrent attempts.
func (s *Service) CashIn(ctx context.Context, cashierID int64, username string, amount float64) (*domain.Shift, error) {
	if amount < 0 {
		return nil, domain.Validationf("cash-in amount cannot be negative")
	}
	now := s.now()
	shift := &domain.Shift{
		CashierID:       cashierID,
		CashierUsername: username,
		CashInAmount:    amount,
		CashInTime:      now,
		Status:          domain.ShiftActive,
		ShiftDate:       now.Format("2006-01-02"),
	}
	ok, err := s.shifts.OpenIfNone(ctx, shift)
	if err != nil {
		return nil, domain.Infra("cash in", err)
	}
	if !ok {
		return nil, domain.Conflictf("cashier %s already has an active shift", username)
	}
	s.audit.Log("shifts", "cash_in", username, shift.ShiftDate, "success")
	return shift, nil
}

// CashOut completes the active shift and reports the difference between the
// counted drawer and the opening float.
func (s *Service) CashOut(ctx context.Context, cashierID int64, amount float64) (*CloseResult, error) {
	if amount < 0 {
		return nil, domain.Validationf("cash-out amount cannot be negative")
	}
	shift, err := s.shifts.CloseActive(ctx, cashierID, amount, s.now())
	if err != nil {
		return nil, domain.Infra("cash out", err)
	}
	if shift == nil {
		return nil, domain.NotFoundf("no active shift for cashier %d", cashierID)
	}
	s.audit.Log("shifts", "cash_out", shift.CashierUsername, shift.ShiftDate, "success")
	return &CloseResult{Shift: *shift, Difference: amount - shift.CashInAmount}, nil
}

// GetActive is the authoritative read used for session reconciliation. A nil
// shift means the cashier must go through the cash-in flow; client-cached
// state never overrides this answer.
func (s *Service) GetActive(ctx context.Context, cashierID int64) (*domain.Shift, error) {
	shift, err := s.shifts.GetActive(ctx, cashierID)
	if err != nil {
		return nil, domain.Infra("get active shift", err)
	}
	return shift, nil
}

// CurrentBalance recomputes the drawer position from persisted orders.
func (s *Service) CurrentBalance(ctx context.Context, cashierID int64) (*Balance, error) {
	shift, err := s.GetActive(ctx, cashierID)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, domain.NotFoundf("no active shift for cashier %d", cashierID)
	}
	paid, refunded, err := s.orders.CashTotalsSince(ctx, shift.CashInTime)
	if err != nil {
		return nil, domain.Infra("cash totals", err)
	}
	return &Balance{
		Shift:        *shift,
		CashSales:    paid,
		CashRefunded: refunded,
		Total:        shift.CashInAmount + paid - refunded,
	}, nil
}
