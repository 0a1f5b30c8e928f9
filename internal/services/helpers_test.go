package services

import (
	"context"
	"io"
	"sync"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	TestProductID   = uuid.MustParse("6f1c2a52-8a43-4f0e-9c3e-0d2f1b7a9e11")
	TestProductName = "Linen Tote"
	TestOrderID     = "ORD-0000000042"
	TestNow         = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
)

func CreateMockProduct(id uuid.UUID, name string, price, cost string, stock int) *domain.Product {
	return &domain.Product{
		ID:       id,
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Cost:     decimal.RequireFromString(cost),
		Stock:    stock,
		Category: domain.CategoryAccessories,
	}
}

func CreateMockOrder(id string, phone string, status domain.OrderStatus, createdAt time.Time, items ...domain.LineItem) domain.Order {
	totals := CalculateTotals(items, DefaultDeliveryPolicy)
	return domain.Order{
		ID:            id,
		Customer:      domain.CustomerInfo{Name: "Customer " + phone, Phone: phone, Address: "1 Main St"},
		Items:         items,
		Subtotal:      totals.Subtotal,
		DeliveryFee:   totals.DeliveryFee,
		Total:         totals.Total,
		PaymentMethod: domain.PaymentOnDelivery,
		Status:        status,
		CreatedAt:     createdAt,
	}
}

func testCustomer() domain.CustomerInfo {
	return domain.CustomerInfo{
		Name:    "Ana Reyes",
		Email:   "ana@example.com",
		Phone:   "+1 555 0100",
		Address: "12 Harbor Road",
	}
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// memoryStore is an in-memory catalog. When readBarrier is set, FindByID
// blocks after reading until every expected reader has read, which forces
// the read-then-write race deterministically.
type memoryStore struct {
	mu          sync.Mutex
	products    map[uuid.UUID]domain.Product
	readBarrier *sync.WaitGroup
	decrementFn func(id uuid.UUID, qty int) error
}

func newMemoryStore(products ...*domain.Product) *memoryStore {
	s := &memoryStore{products: make(map[uuid.UUID]domain.Product)}
	for _, p := range products {
		s.products[p.ID] = *p
	}
	return s
}

func (s *memoryStore) stock(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].Stock
}

func (s *memoryStore) FindAll(ctx context.Context, category domain.Category) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if category == "" || p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memoryStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	s.mu.Lock()
	p, ok := s.products[id]
	s.mu.Unlock()

	if s.readBarrier != nil {
		s.readBarrier.Done()
		s.readBarrier.Wait()
	}
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *memoryStore) Create(ctx context.Context, p *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	s.products[p.ID] = *p
	return nil
}

func (s *memoryStore) Update(ctx context.Context, p *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; !ok {
		return domain.ErrProductNotFound
	}
	s.products[p.ID] = *p
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *memoryStore) SetStock(ctx context.Context, id uuid.UUID, stock int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.Stock = stock
	s.products[id] = p
	return nil
}

func (s *memoryStore) DecrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	if s.decrementFn != nil {
		return s.decrementFn(id, qty)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	if p.Stock < qty {
		return domain.ErrStockConflict
	}
	p.Stock -= qty
	s.products[id] = p
	return nil
}

// memoryOrders records saved orders and can fail the first N saves with err.
type memoryOrders struct {
	mu       sync.Mutex
	saved    []domain.Order
	failWith error
	failures int
}

func (r *memoryOrders) Save(ctx context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures > 0 {
		r.failures--
		return r.failWith
	}
	r.saved = append(r.saved, *o)
	return nil
}

func (r *memoryOrders) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.saved {
		if o.ID == id {
			o := o
			return &o, nil
		}
	}
	return nil, nil
}

func (r *memoryOrders) Search(ctx context.Context, q repository.OrderQuery) ([]domain.Order, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Order(nil), r.saved...), false, nil
}

func (r *memoryOrders) FindInRange(ctx context.Context, from, to time.Time) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Order(nil), r.saved...), nil
}
