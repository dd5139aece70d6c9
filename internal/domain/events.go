package domain

import "time"

// Broadcast topics. Subscription is explicit per topic and is not preserved
// across reconnects.
const (
	TopicTables    = "tables"
	TopicMenuItems = "menu-items"
	TopicOrders    = "orders"
)

type EventType string

const (
	EventTableUpdate   EventType = "table_update"
	EventTableBlocked  EventType = "table_blocked"
	EventTableReleased EventType = "table_released"
	EventOrderUpdate   EventType = "order_update"
	EventBellRequest   EventType = "bell_request"
	EventBillRequest   EventType = "bill_request"
	EventMenuUpdate    EventType = "menu_update"
)

// TableChange refines table_update events.
type TableChange string

const (
	TableCreated             TableChange = "table_created"
	TableUpdated             TableChange = "table_updated"
	TableDeleted             TableChange = "table_deleted"
	TableAvailabilityChanged TableChange = "table_availability_changed"
)

// OrderChange refines order_update events.
type OrderChange string

const (
	OrderCreated       OrderChange = "order_created"
	OrderStatusChanged OrderChange = "order_status_changed"
	OrderUpdated       OrderChange = "order_updated"
)

// Event is the tagged variant carried on the broadcast channel. Exactly one
// payload field is set, selected by Type. Payloads are full snapshots of the
// affected entity so a consumer that missed intermediate events can still
// reach correct state from the latest one it receives.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	OccurredAt  time.Time   `json:"occurred_at"`
	TableChange TableChange `json:"table_change,omitempty"`
	OrderChange OrderChange `json:"order_change,omitempty"`
	Table       *Table      `json:"table,omitempty"`
	Block       *TableBlock `json:"block,omitempty"`
	Order       *Order      `json:"order,omitempty"`
	Call        *TableCall  `json:"call,omitempty"`
}
