package notifications

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderCreatedMessageShape(t *testing.T) {
	msg, err := orderCreatedMessage(OrderCreatedEvent{
		Email:        "jo@example.com",
		OrderID:      "ORD-1750000000000",
		OrderTotal:   decimal.RequireFromString("72.00"),
		CustomerName: "Jo Bloggs",
	})
	require.NoError(t, err)

	assert.Equal(t, "order.created", msg.Attributes["event_type"])
	assert.Equal(t, "ORD-1750000000000", msg.Attributes["order_id"])

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Data, &decoded))
	assert.Equal(t, "jo@example.com", decoded["email"])
	assert.Equal(t, "ORD-1750000000000", decoded["order_id"])
	assert.Equal(t, "72.00", decoded["order_total"])
	assert.Equal(t, "Jo Bloggs", decoded["customer_name"])
}

func TestNoopNotifier(t *testing.T) {
	n := NewNoopNotifier(nil)
	assert.NoError(t, n.OrderCreated(context.Background(), OrderCreatedEvent{OrderID: "ORD-1"}))
}
