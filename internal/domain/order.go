package domain

import "time"

type OrderStatus string

const (
	StatusNew             OrderStatus = "new"
	StatusCooking         OrderStatus = "cooking"
	StatusReady           OrderStatus = "ready"
	StatusPaymentPending  OrderStatus = "payment_pending"
	StatusPaymentComplete OrderStatus = "payment_complete"
	StatusCompleted       OrderStatus = "completed"
	StatusCancelled       OrderStatus = "cancelled"
)

type OrderType string

const (
	OrderDining   OrderType = "dining"
	OrderTakeaway OrderType = "takeaway"
)

type PaymentMethod string

const (
	PayCard PaymentMethod = "card"
	PayCash PaymentMethod = "cash"
)

// OrderItem is a snapshot taken at creation; unit prices never track later
// menu changes.
type OrderItem struct {
	ItemRef   string  `json:"item_ref"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

type Order struct {
	ID            int64         `json:"id"`
	Code          string        `json:"code"`
	CustomerName  string        `json:"customer_name"`
	Items         []OrderItem   `json:"items"`
	Status        OrderStatus   `json:"status"`
	Total         float64       `json:"total"`
	OrderType     OrderType     `json:"order_type"`
	TableNumber   *int          `json:"table_number,omitempty"`
	IsPaid        bool          `json:"is_paid"`
	IsSettled     bool          `json:"is_settled"`
	PaymentMethod PaymentMethod `json:"payment_method,omitempty"`
	CashierID     int64         `json:"cashier_id,omitempty"`
	CashierName   string        `json:"cashier_name,omitempty"`
	RefundStatus  bool          `json:"refund_status"`
	CreatedAt     time.Time     `json:"created_at"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// statusNext holds the legal transition edges. completed and cancelled are
// terminal; payment/settlement evolve on their own axes.
var statusNext = map[OrderStatus][]OrderStatus{
	StatusNew:             {StatusCooking, StatusCancelled},
	StatusCooking:         {StatusReady, StatusCancelled},
	StatusReady:           {StatusPaymentPending, StatusCompleted, StatusCancelled},
	StatusPaymentPending:  {StatusPaymentComplete, StatusCancelled},
	StatusPaymentComplete: {StatusCompleted, StatusCancelled},
	StatusCompleted:       {},
	StatusCancelled:       {},
}

func ValidStatus(s OrderStatus) bool {
	_, ok := statusNext[s]
	return ok
}

func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether from -> to is a legal status edge.
func CanTransition(from, to OrderStatus) bool {
	for _, n := range statusNext[from] {
		if n == to {
			return true
		}
	}
	return false
}

// ActiveForOccupancy reports whether the order keeps its table occupied.
// Cancelled dining orders free the table immediately.
func (o *Order) ActiveForOccupancy() bool {
	return !o.IsSettled && o.Status != StatusCancelled
}

// InActiveView reports whether the order belongs in the cashier's working
// queue. A cancelled takeaway stays visible until refunded because money
// changed hands at creation.
func (o *Order) InActiveView() bool {
	if o.IsSettled {
		return false
	}
	if o.Status == StatusCancelled && o.OrderType == OrderDining {
		return false
	}
	return true
}

// AuthoritativeTime names the timestamp that represents the order for
// reporting: createdAt for cancellations, otherwise completedAt when set.
func (o *Order) AuthoritativeTime() time.Time {
	if o.Status == StatusCancelled {
		return o.CreatedAt
	}
	if o.CompletedAt != nil {
		return *o.CompletedAt
	}
	return o.CreatedAt
}
