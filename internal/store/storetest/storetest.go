// Package storetest provides in-memory repository implementations with the
// same conditional-write semantics as the Postgres ones, for service tests.
package storetest

import (
	"context"
	"sync"
	"time"

	"tableside/internal/domain"
	"tableside/internal/store"
)

type Orders struct {
	mu   sync.Mutex
	seq  int64
	recs map[int64]*domain.Order
}

func NewOrders() *Orders {
	return &Orders{recs: map[int64]*domain.Order{}}
}

func clone(o *domain.Order) *domain.Order {
	c := *o
	c.Items = append([]domain.OrderItem(nil), o.Items...)
	if o.TableNumber != nil {
		n := *o.TableNumber
		c.TableNumber = &n
	}
	if o.CompletedAt != nil {
		t := *o.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

func (f *Orders) Insert(_ context.Context, o *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	o.ID = f.seq
	f.recs[o.ID] = clone(o)
	return nil
}

func (f *Orders) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.recs[id]; ok {
		return clone(o), nil
	}
	return nil, nil
}

func (f *Orders) GetByCode(_ context.Context, code string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.recs {
		if o.Code == code {
			return clone(o), nil
		}
	}
	return nil, nil
}

func (f *Orders) List(_ context.Context, flt store.OrderFilter) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Order
	for _, o := range f.recs {
		if flt.Status != nil && o.Status != *flt.Status {
			continue
		}
		if flt.OrderType != nil && o.OrderType != *flt.OrderType {
			continue
		}
		if flt.IsPaid != nil && o.IsPaid != *flt.IsPaid {
			continue
		}
		if flt.IsSettled != nil && o.IsSettled != *flt.IsSettled {
			continue
		}
		if flt.TableNumber != nil && (o.TableNumber == nil || *o.TableNumber != *flt.TableNumber) {
			continue
		}
		if flt.ActiveOnly && !o.InActiveView() {
			continue
		}
		out = append(out, *clone(o))
	}
	return out, nil
}

func (f *Orders) CountCreatedSince(_ context.Context, since time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, o := range f.recs {
		if !o.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (f *Orders) UpdateStatus(_ context.Context, id int64, from []domain.OrderStatus, to domain.OrderStatus, setCompletedAt bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.recs[id]
	if !ok {
		return false, nil
	}
	allowed := false
	for _, s := range from {
		if o.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = time.Now().UTC()
	if setCompletedAt && o.CompletedAt == nil {
		t := time.Now().UTC()
		o.CompletedAt = &t
	}
	return true, nil
}

func (f *Orders) MarkPaid(_ context.Context, id int64, method domain.PaymentMethod) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.recs[id]
	if !ok || o.IsPaid {
		return false, nil
	}
	o.IsPaid = true
	o.IsSettled = true
	o.PaymentMethod = method
	o.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (f *Orders) Settle(_ context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.recs[id]
	if !ok || o.IsSettled || !o.IsPaid {
		return false, nil
	}
	o.IsSettled = true
	o.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (f *Orders) MarkRefunded(_ context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.recs[id]
	if !ok || o.Status != domain.StatusCancelled || o.OrderType != domain.OrderTakeaway || o.RefundStatus {
		return false, nil
	}
	o.RefundStatus = true
	o.IsSettled = true
	o.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (f *Orders) HasActiveForTable(_ context.Context, tableNumber int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.recs {
		if o.TableNumber != nil && *o.TableNumber == tableNumber && o.ActiveForOccupancy() {
			return true, nil
		}
	}
	return false, nil
}

func (f *Orders) CashTotalsSince(_ context.Context, since time.Time) (float64, float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var paid, refunded float64
	for _, o := range f.recs {
		if !o.IsPaid || o.PaymentMethod != domain.PayCash || o.CreatedAt.Before(since) {
			continue
		}
		paid += o.Total
		if o.RefundStatus {
			refunded += o.Total
		}
	}
	return paid, refunded, nil
}

type Shifts struct {
	mu   sync.Mutex
	seq  int64
	recs map[int64]*domain.Shift
}

func NewShifts() *Shifts {
	return &Shifts{recs: map[int64]*domain.Shift{}}
}

func (f *Shifts) OpenIfNone(_ context.Context, s *domain.Shift) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sh := range f.recs {
		if sh.CashierID == s.CashierID && sh.Status == domain.ShiftActive {
			return false, nil
		}
	}
	f.seq++
	s.ID = f.seq
	s.Status = domain.ShiftActive
	c := *s
	f.recs[s.ID] = &c
	return true, nil
}

func (f *Shifts) CloseActive(_ context.Context, cashierID int64, amount float64, at time.Time) (*domain.Shift, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sh := range f.recs {
		if sh.CashierID == cashierID && sh.Status == domain.ShiftActive {
			sh.Status = domain.ShiftCompleted
			sh.CashOutAmount = &amount
			t := at
			sh.CashOutTime = &t
			c := *sh
			return &c, nil
		}
	}
	return nil, nil
}

func (f *Shifts) GetActive(_ context.Context, cashierID int64) (*domain.Shift, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sh := range f.recs {
		if sh.CashierID == cashierID && sh.Status == domain.ShiftActive {
			c := *sh
			return &c, nil
		}
	}
	return nil, nil
}

var (
	_ store.Orders = (*Orders)(nil)
	_ store.Shifts = (*Shifts)(nil)
)
