package domain

import "time"

// Table is a physical table. The numeric ID is the stable join key for
// orders and blocks; the label is display-only and never used as a key.
type Table struct {
	ID        int       `json:"id"`
	Label     string    `json:"label"`
	Capacity  int       `json:"capacity"`
	Available bool      `json:"available"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableBlock marks a table whose menu a customer session is currently
// viewing. Blocks are ephemeral process state, never persisted.
type TableBlock struct {
	TableID    int       `json:"table_id"`
	TableLabel string    `json:"table_label"`
	BlockedAt  time.Time `json:"blocked_at"`
}

// TableCall is a customer-initiated bell or bill request for a table.
type TableCall struct {
	TableNumber int       `json:"table_number"`
	TableLabel  string    `json:"table_label"`
	RequestedAt time.Time `json:"requested_at"`
}
