package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"storefront/internal/domain"
	"storefront/internal/infra/cache"
	rabbit "storefront/internal/infra/rabbitmq"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	NamespaceProducts = "products"
	NamespaceOrders   = "orders"

	EventOrderCreated = "order.created"

	defaultBackgroundTimeout = 15 * time.Second

	// MaxLineQuantity bounds a single product's quantity in one order,
	// before and after repeated lines are merged.
	MaxLineQuantity = 10000
)

type CartLine struct {
	ProductID uuid.UUID
	Quantity  int
}

type PlaceOrderRequest struct {
	Customer      domain.CustomerInfo
	Cart          []CartLine
	PaymentMethod domain.PaymentMethod
}

func (r PlaceOrderRequest) check() error {
	if len(r.Cart) == 0 {
		return fmt.Errorf("%w: cart is empty", domain.ErrInvalidOrder)
	}
	if !r.PaymentMethod.Valid() {
		return fmt.Errorf("%w: unknown payment method %q", domain.ErrInvalidOrder, r.PaymentMethod)
	}
	c := r.Customer
	if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Phone) == "" || strings.TrimSpace(c.Address) == "" {
		return fmt.Errorf("%w: customer name, phone and address are required", domain.ErrInvalidOrder)
	}
	for _, line := range r.Cart {
		if err := checkQuantity(line); err != nil {
			return err
		}
	}
	return nil
}

func checkQuantity(line CartLine) error {
	if line.Quantity <= 0 {
		return fmt.Errorf("%w: quantity for %s must be positive", domain.ErrInvalidOrder, line.ProductID)
	}
	if line.Quantity > MaxLineQuantity {
		return fmt.Errorf("%w: quantity for %s exceeds %d", domain.ErrInvalidOrder, line.ProductID, MaxLineQuantity)
	}
	return nil
}

type OrderPage struct {
	Orders  []domain.Order `json:"orders"`
	HasMore bool           `json:"hasMore"`
}

type OrderService struct {
	orders    repository.OrderRepository
	products  repository.ProductRepository
	ledger    *Ledger
	notifier  *Notifier
	publisher rabbit.PublisherInterface
	cache     *cache.Cache
	cacheTTL  time.Duration
	policy    DeliveryPolicy
	log       *logrus.Logger

	newOrderID        func() (string, error)
	now               func() time.Time
	backgroundTimeout time.Duration
	background        sync.WaitGroup
}

func NewOrderService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	ledger *Ledger,
	notifier *Notifier,
	publisher rabbit.PublisherInterface,
	logger *logrus.Logger,
) *OrderService {
	return &OrderService{
		orders:            orders,
		products:          products,
		ledger:            ledger,
		notifier:          notifier,
		publisher:         publisher,
		policy:            DefaultDeliveryPolicy,
		log:               logger,
		newOrderID:        NewOrderID,
		now:               time.Now,
		backgroundTimeout: defaultBackgroundTimeout,
	}
}

func (s *OrderService) SetCache(c *cache.Cache, ttl time.Duration) {
	s.cache = c
	s.cacheTTL = ttl
}

func (s *OrderService) SetDeliveryPolicy(p DeliveryPolicy) {
	s.policy = p
}

// PlaceOrder runs checkout: validate, total, record, decrement, notify.
//
// Only validation and recording can fail the call. Once the order row is
// written the result is fixed; stock and notification problems are logged.
func (s *OrderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*domain.Order, error) {
	if err := req.check(); err != nil {
		return nil, err
	}

	items, err := s.validate(ctx, req.Cart)
	if err != nil {
		return nil, err
	}

	totals := CalculateTotals(items, s.policy)

	order, err := s.record(ctx, req.Customer, items, totals, req.PaymentMethod)
	if err != nil {
		s.log.WithError(err).Error("Failed to record order")
		return nil, err
	}

	// The order exists now. Finish the stock side even if the caller goes away.
	after := context.WithoutCancel(ctx)

	if failures := s.ledger.Apply(after, order.ID, order.Items); len(failures) > 0 {
		s.log.WithFields(logrus.Fields{
			"order_id": order.ID,
			"failed":   len(failures),
		}).Warn("Order recorded with stock update failures")
	}

	if err := s.cache.Invalidate(after, NamespaceOrders, NamespaceProducts); err != nil {
		s.log.WithError(err).Warn("Failed to invalidate caches after order")
	}

	s.dispatch(*order)

	s.log.WithFields(logrus.Fields{
		"order_id": order.ID,
		"total":    order.Total.StringFixed(2),
		"payment":  order.PaymentMethod,
	}).Info("Order placed")
	return order, nil
}

// validate reads every product straight from storage. Checkout never trusts
// the cache or the client for price and stock.
func (s *OrderService) validate(ctx context.Context, cart []CartLine) ([]domain.LineItem, error) {
	lines, err := mergeCart(cart)
	if err != nil {
		return nil, err
	}
	items := make([]domain.LineItem, 0, len(lines))

	for _, line := range lines {
		if err := checkQuantity(line); err != nil {
			return nil, err
		}
		p, err := s.products.FindByID(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("load product %s: %w", line.ProductID, err)
		}
		if p == nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, line.ProductID)
		}
		if line.Quantity > p.Stock {
			return nil, &domain.InsufficientStockError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Requested:   line.Quantity,
				Remaining:   p.Stock,
			}
		}
		items = append(items, domain.LineItem{
			ProductID: p.ID,
			Name:      p.Name,
			Category:  p.Category,
			ImageURL:  p.ImageURL,
			Price:     p.Price,
			Cost:      p.Cost,
			Quantity:  line.Quantity,
		})
	}
	return items, nil
}

// mergeCart folds repeated lines for the same product so stock is checked
// against the combined quantity. First-seen order is kept. A combined
// quantity above MaxLineQuantity is rejected before it can overflow.
func mergeCart(cart []CartLine) ([]CartLine, error) {
	index := make(map[uuid.UUID]int, len(cart))
	out := make([]CartLine, 0, len(cart))
	for _, line := range cart {
		if i, ok := index[line.ProductID]; ok {
			if line.Quantity > MaxLineQuantity-out[i].Quantity {
				return nil, fmt.Errorf("%w: combined quantity for %s exceeds %d", domain.ErrInvalidOrder, line.ProductID, MaxLineQuantity)
			}
			out[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(out)
		out = append(out, line)
	}
	return out, nil
}

func (s *OrderService) record(ctx context.Context, customer domain.CustomerInfo, items []domain.LineItem, totals Totals, method domain.PaymentMethod) (*domain.Order, error) {
	order := &domain.Order{
		Customer:      customer,
		Items:         items,
		Subtotal:      totals.Subtotal,
		DeliveryFee:   totals.DeliveryFee,
		Total:         totals.Total,
		PaymentMethod: method,
		Status:        method.InitialStatus(),
		CreatedAt:     s.now().UTC(),
	}

	var lastErr error
	for attempt := 1; attempt <= maxOrderIDAttempts; attempt++ {
		id, err := s.newOrderID()
		if err != nil {
			return nil, &domain.PersistenceError{Err: err}
		}
		order.ID = id

		err = s.orders.Save(ctx, order)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, domain.ErrDuplicateOrderID) {
			return nil, &domain.PersistenceError{Err: err}
		}
		s.log.WithFields(logrus.Fields{"order_id": id, "attempt": attempt}).Warn("Order id collision, regenerating")
		lastErr = err
	}
	return nil, &domain.PersistenceError{Err: fmt.Errorf("after %d attempts: %w", maxOrderIDAttempts, lastErr)}
}

// dispatch runs the notification and event publication detached from the
// request. Their failures never reach the caller.
func (s *OrderService) dispatch(order domain.Order) {
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.backgroundTimeout)
		defer cancel()

		s.notifier.NotifyOrder(ctx, &order)
		s.publishOrderCreatedEvent(ctx, &order)
	}()
}

func (s *OrderService) publishOrderCreatedEvent(ctx context.Context, order *domain.Order) {
	if s.publisher == nil {
		return
	}
	evt := domain.NewOrderCreatedEvent(order)
	if err := s.publisher.Publish(ctx, EventOrderCreated, evt); err != nil {
		s.log.WithField("order_id", order.ID).WithError(err).Warn("Failed to publish order.created event")
		return
	}
	s.log.WithField("order_id", order.ID).Debug("Published order.created event")
}

// Wait blocks until detached post-order work has finished.
func (s *OrderService) Wait() {
	s.background.Wait()
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

func (s *OrderService) ListOrders(ctx context.Context, q repository.OrderQuery) (OrderPage, error) {
	suffix := fmt.Sprintf("list:%d:%d:%d:%d:%s",
		unixOrZero(q.From), unixOrZero(q.To), q.Limit, q.Offset, strings.ToLower(strings.TrimSpace(q.Text)))

	return cache.GetOrFetch(ctx, s.cache, NamespaceOrders, suffix, s.cacheTTL, func(ctx context.Context) (OrderPage, error) {
		orders, hasMore, err := s.orders.Search(ctx, q)
		if err != nil {
			return OrderPage{}, err
		}
		if orders == nil {
			orders = []domain.Order{}
		}
		return OrderPage{Orders: orders, HasMore: hasMore}, nil
	})
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
