package repository

import (
	"context"
	"time"

	"storefront/internal/domain"
)

// OrderQuery selects orders created in [From, To) matching free text. A zero
// From or To leaves that side of the window open.
type OrderQuery struct {
	From   time.Time
	To     time.Time
	Text   string
	Limit  int
	Offset int
}

// OrderRepository is append only: there is no update path for orders.
type OrderRepository interface {
	Save(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	Search(ctx context.Context, q OrderQuery) ([]domain.Order, bool, error)
	FindInRange(ctx context.Context, from, to time.Time) ([]domain.Order, error)
}
