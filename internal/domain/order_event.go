package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderCreatedEvent struct {
	OrderID       string          `json:"orderId"`
	ItemCount     int             `json:"itemCount"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Status        OrderStatus     `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func NewOrderCreatedEvent(o *Order) OrderCreatedEvent {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return OrderCreatedEvent{
		OrderID:       o.ID,
		ItemCount:     count,
		Total:         o.Total,
		PaymentMethod: o.PaymentMethod,
		Status:        o.Status,
		CreatedAt:     o.CreatedAt,
	}
}
