package repository

import (
	"context"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

type ProductRepository interface {
	FindAll(ctx context.Context, category domain.Category) ([]domain.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	StockStore
}

// StockStore is the part of the catalog the inventory ledger writes through.
type StockStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	SetStock(ctx context.Context, id uuid.UUID, stock int) error
	// DecrementStock subtracts qty in a single conditional statement and
	// returns domain.ErrStockConflict when the row holds less than qty.
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) error
}
