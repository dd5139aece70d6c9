package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

// The broadcast payload is a wire contract consumed by cashier, kitchen and
// customer clients; the golden file pins it.
func TestOrderCreatedEventContract(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	table := 7
	ev := Event{
		ID:          "11111111-2222-3333-4444-555555555555",
		Type:        EventOrderUpdate,
		OccurredAt:  at,
		OrderChange: OrderCreated,
		Order: &Order{
			ID:           42,
			Code:         "ORD_20250301_007",
			CustomerName: "Table 7",
			Items: []OrderItem{
				{ItemRef: "itm-1", Name: "Chicken Momo", UnitPrice: 100, Quantity: 2},
				{ItemRef: "itm-2", Name: "Lassi", UnitPrice: 50, Quantity: 1},
			},
			Status:      StatusNew,
			Total:       250,
			OrderType:   OrderDining,
			TableNumber: &table,
			CreatedAt:   at,
			UpdatedAt:   at,
		},
	}

	data, err := json.MarshalIndent(ev, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "order_created", data)
}

func TestEventRoundTrip(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ev := Event{
		ID:         "ev-1",
		Type:       EventTableBlocked,
		OccurredAt: at,
		Block:      &TableBlock{TableID: 3, TableLabel: "A3", BlockedAt: at},
	}

	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var got Event
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, ev, got)
	require.Nil(t, got.Order)
	require.Nil(t, got.Table)
}
