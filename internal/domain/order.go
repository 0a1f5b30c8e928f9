package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

type PaymentMethod string

const (
	PaymentOnDelivery PaymentMethod = "delivery"
	PaymentQR         PaymentMethod = "qr"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentOnDelivery || m == PaymentQR
}

// InitialStatus is the status an order is created with. Prepaid orders are
// already settled; pay-on-delivery orders wait for the courier.
func (m PaymentMethod) InitialStatus() OrderStatus {
	if m == PaymentQR {
		return StatusCompleted
	}
	return StatusPending
}

type CustomerInfo struct {
	Name    string `json:"name" gorm:"size:255;not null;index"`
	Email   string `json:"email,omitempty" gorm:"size:255"`
	Phone   string `json:"phone" gorm:"size:32;not null;index"`
	Address string `json:"address" gorm:"type:text;not null"`
}

// LineItem is a frozen copy of a product at purchase time.
type LineItem struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Category  Category        `json:"category"`
	ImageURL  string          `json:"imageUrl,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Cost      decimal.Decimal `json:"cost"`
	Quantity  int             `json:"quantity"`
}

func (l LineItem) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l LineItem) LineCost() decimal.Decimal {
	return l.Cost.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Order struct {
	ID            string          `json:"id" gorm:"primaryKey;size:32"`
	Customer      CustomerInfo    `json:"customer" gorm:"embedded;embeddedPrefix:customer_"`
	Items         []LineItem      `json:"items" gorm:"serializer:json;type:text;not null"`
	Subtotal      decimal.Decimal `json:"subtotal" gorm:"type:decimal(12,2);not null"`
	DeliveryFee   decimal.Decimal `json:"deliveryFee" gorm:"type:decimal(12,2);not null"`
	Total         decimal.Decimal `json:"total" gorm:"type:decimal(12,2);not null"`
	PaymentMethod PaymentMethod   `json:"paymentMethod" gorm:"size:16;not null"`
	Status        OrderStatus     `json:"status" gorm:"size:16;not null;default:'pending'"`
	CreatedAt     time.Time       `json:"createdAt" gorm:"not null;index"`
}

func (o *Order) TotalCost() decimal.Decimal {
	cost := decimal.Zero
	for _, item := range o.Items {
		cost = cost.Add(item.LineCost())
	}
	return cost
}
