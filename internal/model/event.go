package model

import (
	"time"

	"salesledger/pkg/money"

	"github.com/google/uuid"
)

const (
	EventOrderShipped    = "order.shipped"
	EventOrderDelivered  = "order.delivered"
	EventPaymentRecorded = "payment.recorded"
)

// Event is a post-commit notification about a financial or lifecycle change.
type Event struct {
	Type        string         `json:"type"`
	OccurredAt  time.Time      `json:"occurred_at"`
	CustomerID  uuid.UUID      `json:"customer_id"`
	OrderID     *uuid.UUID     `json:"order_id,omitempty"`
	OrderNumber string         `json:"order_number,omitempty"`
	PaymentID   *uuid.UUID     `json:"payment_id,omitempty"`
	Amount      money.Amount   `json:"amount"`
	ActorID     uuid.UUID      `json:"actor_id"`
	Data        map[string]any `json:"data,omitempty"`
}
