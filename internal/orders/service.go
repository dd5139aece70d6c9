// Package orders implements the order lifecycle state machine. All
// cross-client invariants are enforced through guarded store mutations; the
// broadcast that follows a successful write is best-effort only.
package orders

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tableside/internal/activity"
	"tableside/internal/bus"
	"tableside/internal/domain"
	"tableside/internal/logging"
	"tableside/internal/store"
)

type CreateItem struct {
	ItemRef   string  `json:"item_ref"`
	Name      string  `json:"name" binding:"required"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

type CreateRequest struct {
	CustomerName  string               `json:"customer_name"`
	OrderType     domain.OrderType     `json:"order_type"`
	TableNumber   *int                 `json:"table_number,omitempty"`
	PaymentMethod domain.PaymentMethod `json:"payment_method,omitempty"`
	Items         []CreateItem         `json:"items"`

	// Set by the server layer for cashier-initiated orders; zero values mean
	// a customer session awaiting cashier confirmation.
	CashierID   int64  `json:"-"`
	CashierName string `json:"-"`
}

type Service struct {
	repo  store.Orders
	bus   bus.Bus
	audit *activity.Logger
	log   *logging.Logger
	now   func() time.Time
}

func New(repo store.Orders, b bus.Bus, audit *activity.Logger, log *logging.Logger) *Service {
	return &Service{repo: repo, bus: b, audit: audit, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Create validates the request, snapshots items and total, generates the
// order code and persists the order in status "new".
func (s *Service) Create(ctx context.Context, req CreateRequest) (*domain.Order, error) {
	if req.CustomerName == "" {
		return nil, domain.Validationf("customer name is required")
	}
	if req.OrderType != domain.OrderDining && req.OrderType != domain.OrderTakeaway {
		return nil, domain.Validationf("invalid order type %q", req.OrderType)
	}
	if len(req.Items) == 0 {
		return nil, domain.Validationf("at least one item is required")
	}

	total := 0.0
	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			return nil, domain.Validationf("invalid quantity for item %q", it.Name)
		}
		if it.UnitPrice < 0 {
			return nil, domain.Validationf("invalid price for item %q", it.Name)
		}
		items = append(items, domain.OrderItem{
			ItemRef: it.ItemRef, Name: it.Name, UnitPrice: it.UnitPrice, Quantity: it.Quantity,
		})
		total += float64(it.Quantity) * it.UnitPrice
	}

	now := s.now()
	o := &domain.Order{
		Code:         s.nextCode(ctx, now),
		CustomerName: req.CustomerName,
		Items:        items,
		Status:       domain.StatusNew,
		Total:        total,
		OrderType:    req.OrderType,
		CashierID:    req.CashierID,
		CashierName:  req.CashierName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	switch req.OrderType {
	case domain.OrderDining:
		if req.TableNumber == nil {
			return nil, domain.Validationf("dining order requires a table number")
		}
		n := *req.TableNumber
		o.TableNumber = &n
	case domain.OrderTakeaway:
		if req.TableNumber != nil {
			return nil, domain.Validationf("takeaway order cannot reference a table")
		}
		if req.PaymentMethod != domain.PayCard && req.PaymentMethod != domain.PayCash {
			return nil, domain.Validationf("takeaway order requires a payment method")
		}
		// money changes hands at the counter; settlement still needs an
		// explicit cashier action
		o.IsPaid = true
		o.PaymentMethod = req.PaymentMethod
	}

	if err := s.repo.Insert(ctx, o); err != nil {
		return nil, domain.Infra("create order", err)
	}

	s.emit(ctx, domain.OrderCreated, o)
	s.audit.Log("orders", "order_created", actor(o.CashierName), o.Code, "success")
	return o, nil
}

// nextCode derives the human-readable order code from the creation day and a
// per-day sequence. Collisions under concurrency are tolerated by the unique
// index; callers of Create see them as infra errors and retry manually.
func (s *Service) nextCode(ctx context.Context, now time.Time) string {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	seq, err := s.repo.CountCreatedSince(ctx, midnight)
	if err != nil {
		s.log.Fail("order_sequence", err)
	}
	return fmt.Sprintf("ORD_%s_%03d", now.Format("20060102"), seq+1)
}

func (s *Service) List(ctx context.Context, f store.OrderFilter) ([]domain.Order, error) {
	out, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, domain.Infra("list orders", err)
	}
	return out, nil
}

// GetByRef resolves either the order code (ORD_...) or the storage id.
func (s *Service) GetByRef(ctx context.Context, ref string) (*domain.Order, error) {
	var o *domain.Order
	var err error
	if strings.HasPrefix(ref, "ORD_") {
		o, err = s.repo.GetByCode(ctx, ref)
	} else if id, perr := strconv.ParseInt(ref, 10, 64); perr == nil {
		o, err = s.repo.GetByID(ctx, id)
	} else {
		return nil, domain.Validationf("order reference %q is neither a code nor an id", ref)
	}
	if err != nil {
		return nil, domain.Infra("get order", err)
	}
	if o == nil {
		return nil, domain.NotFoundf("order %s not found", ref)
	}
	return o, nil
}

// UpdateStatus advances the order through the lifecycle. The write is guarded
// by the set of statuses that may legally precede the target, so concurrent
// duplicate transitions fail cleanly instead of double-applying.
func (s *Service) UpdateStatus(ctx context.Context, ref string, to domain.OrderStatus, actorName string) (*domain.Order, error) {
	if !domain.ValidStatus(to) {
		return nil, domain.Validationf("unknown status %q", to)
	}
	o, err := s.GetByRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(o.Status, to) {
		return nil, domain.Conflictf("order %s cannot move %s -> %s", o.Code, o.Status, to)
	}

	froms := legalSources(to)
	ok, err := s.repo.UpdateStatus(ctx, o.ID, froms, to, to == domain.StatusCompleted)
	if err != nil {
		return nil, domain.Infra("update status", err)
	}
	if !ok {
		return nil, domain.Conflictf("order %s changed concurrently; re-fetch and retry", o.Code)
	}

	o, err = s.repo.GetByID(ctx, o.ID)
	if err != nil || o == nil {
		return nil, domain.Infra("reload order", err)
	}
	s.emit(ctx, domain.OrderStatusChanged, o)
	s.audit.Log("orders", "order_status_changed", actor(actorName),
		fmt.Sprintf("%s -> %s", o.Code, to), "success")
	return o, nil
}

// MarkPaid records payment. Payment completion doubles as settlement for this
// flow, so a paid order retires from the active queue.
func (s *Service) MarkPaid(ctx context.Context, ref string, method domain.PaymentMethod, actorName string) (*domain.Order, error) {
	if method != domain.PayCard && method != domain.PayCash {
		return nil, domain.Validationf("invalid payment method %q", method)
	}
	o, err := s.GetByRef(ctx, ref)
	if err != nil {
		return nil, err
	}

	ok, err := s.repo.MarkPaid(ctx, o.ID, method)
	if err != nil {
		return nil, domain.Infra("mark paid", err)
	}
	if !ok {
		return nil, domain.Conflictf("order %s is already paid", o.Code)
	}
	return s.reloadAndEmit(ctx, o.ID, "order_paid", actorName)
}

// Settle clears an already-paid order (e.g. pre-paid takeaway) from the
// active queue without recording a new payment.
func (s *Service) Settle(ctx context.Context, ref string, actorName string) (*domain.Order, error) {
	o, err := s.GetByRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !o.IsPaid {
		return nil, domain.Conflictf("order %s is unpaid; settlement implies payment", o.Code)
	}

	ok, err := s.repo.Settle(ctx, o.ID)
	if err != nil {
		return nil, domain.Infra("settle", err)
	}
	if !ok {
		return nil, domain.Conflictf("order %s is already settled", o.Code)
	}
	return s.reloadAndEmit(ctx, o.ID, "order_settled", actorName)
}

// MarkRefunded reconciles a cancelled pre-paid takeaway order; the refund
// also settles it so it retires to history.
func (s *Service) MarkRefunded(ctx context.Context, ref string, actorName string) (*domain.Order, error) {
	o, err := s.GetByRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	if o.Status != domain.StatusCancelled || o.OrderType != domain.OrderTakeaway {
		return nil, domain.Validationf("refund only applies to cancelled takeaway orders")
	}

	ok, err := s.repo.MarkRefunded(ctx, o.ID)
	if err != nil {
		return nil, domain.Infra("mark refunded", err)
	}
	if !ok {
		return nil, domain.Conflictf("order %s is already refunded", o.Code)
	}
	return s.reloadAndEmit(ctx, o.ID, "order_refunded", actorName)
}

func (s *Service) reloadAndEmit(ctx context.Context, id int64, action, actorName string) (*domain.Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil || o == nil {
		return nil, domain.Infra("reload order", err)
	}
	s.emit(ctx, domain.OrderUpdated, o)
	s.audit.Log("orders", action, actor(actorName), o.Code, "success")
	return o, nil
}

// emit broadcasts the full order snapshot. A failed broadcast never rolls
// back the write; the store remains the source of truth.
func (s *Service) emit(ctx context.Context, change domain.OrderChange, o *domain.Order) {
	ev := domain.Event{
		Type:        domain.EventOrderUpdate,
		OccurredAt:  s.now(),
		OrderChange: change,
		Order:       o,
	}
	if err := s.bus.Publish(ctx, domain.TopicOrders, ev); err != nil {
		s.log.Fail("event_publish", err, "change", string(change), "order", o.Code)
	}
}

func legalSources(to domain.OrderStatus) []domain.OrderStatus {
	all := []domain.OrderStatus{
		domain.StatusNew, domain.StatusCooking, domain.StatusReady,
		domain.StatusPaymentPending, domain.StatusPaymentComplete,
		domain.StatusCompleted, domain.StatusCancelled,
	}
	var out []domain.OrderStatus
	for _, from := range all {
		if domain.CanTransition(from, to) {
			out = append(out, from)
		}
	}
	return out
}

func actor(name string) string {
	if name == "" {
		return "customer"
	}
	return name
}
