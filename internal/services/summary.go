package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"storefront/internal/domain"
	"storefront/internal/infra/cache"

	"github.com/shopspring/decimal"
)

type SalesSummary struct {
	From                  time.Time                  `json:"from"`
	To                    time.Time                  `json:"to"`
	OrderCount            int                        `json:"orderCount"`
	ByStatus              map[domain.OrderStatus]int `json:"byStatus"`
	Revenue               decimal.Decimal            `json:"revenue"`
	Cost                  decimal.Decimal            `json:"cost"`
	Profit                decimal.Decimal            `json:"profit"`
	ReturningCustomerRate float64                    `json:"returningCustomerRate"`
}

// Summary aggregates orders created in the half-open window [from, to); a
// zero bound leaves that side open. Cancelled orders are
// counted by status but excluded from money figures.
func (s *OrderService) Summary(ctx context.Context, from, to time.Time) (SalesSummary, error) {
	suffix := fmt.Sprintf("summary:%d:%d", unixOrZero(from), unixOrZero(to))
	return cache.GetOrFetch(ctx, s.cache, NamespaceOrders, suffix, s.cacheTTL, func(ctx context.Context) (SalesSummary, error) {
		orders, err := s.orders.FindInRange(ctx, from, to)
		if err != nil {
			return SalesSummary{}, fmt.Errorf("load orders for summary: %w", err)
		}
		return Summarize(orders, from, to), nil
	})
}

// Summarize expects orders sorted oldest first. An order counts as returning
// when its customer phone already appeared on an earlier order in the slice.
func Summarize(orders []domain.Order, from, to time.Time) SalesSummary {
	sum := SalesSummary{
		From:     from,
		To:       to,
		ByStatus: make(map[domain.OrderStatus]int),
		Revenue:  decimal.Zero,
		Cost:     decimal.Zero,
	}

	seen := make(map[string]struct{}, len(orders))
	returning := 0
	for i := range orders {
		o := &orders[i]
		sum.OrderCount++
		sum.ByStatus[o.Status]++

		phone := normalizePhone(o.Customer.Phone)
		if phone != "" {
			if _, ok := seen[phone]; ok {
				returning++
			} else {
				seen[phone] = struct{}{}
			}
		}

		if o.Status == domain.StatusCancelled {
			continue
		}
		sum.Revenue = sum.Revenue.Add(o.Total)
		sum.Cost = sum.Cost.Add(o.TotalCost())
	}

	sum.Profit = sum.Revenue.Sub(sum.Cost)
	if sum.OrderCount > 0 {
		sum.ReturningCustomerRate = float64(returning) / float64(sum.OrderCount)
	}
	return sum
}

func normalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
}
