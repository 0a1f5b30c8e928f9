package services

import (
	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

// DeliveryPolicy charges a flat fee below the free shipping threshold.
type DeliveryPolicy struct {
	FreeShippingThreshold decimal.Decimal
	FlatFee               decimal.Decimal
}

var DefaultDeliveryPolicy = DeliveryPolicy{
	FreeShippingThreshold: decimal.NewFromInt(50),
	FlatFee:               decimal.NewFromInt(5),
}

func (p DeliveryPolicy) FeeFor(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(p.FreeShippingThreshold) {
		return decimal.Zero
	}
	return p.FlatFee
}

type Totals struct {
	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	Total       decimal.Decimal
}

// CalculateTotals prices verified line items. It only reads the server side
// price carried by each item.
func CalculateTotals(items []domain.LineItem, policy DeliveryPolicy) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	fee := policy.FeeFor(subtotal)
	return Totals{
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Total:       subtotal.Add(fee),
	}
}
