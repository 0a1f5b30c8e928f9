package gormrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type orderRepo struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewOrderRepository(db *gorm.DB, logger *logrus.Logger) repository.OrderRepository {
	return &orderRepo{db: db, log: logger}
}

func (r *orderRepo) Save(ctx context.Context, order *domain.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			r.log.Warnf("Order id %s already taken", order.ID)
			return fmt.Errorf("%w: %s", domain.ErrDuplicateOrderID, order.ID)
		}
		r.log.Errorf("Database save error for order %s: %v", order.ID, err)
		return err
	}
	r.log.Infof("Order saved successfully with ID: %s", order.ID)
	return nil
}

func (r *orderRepo) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	if err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Errorf("FindByID error for order %s: %v", id, err)
		return nil, err
	}
	return &o, nil
}

// Search pages through orders newest first. It reads one row past the page
// to report whether more rows follow.
func (r *orderRepo) Search(ctx context.Context, q repository.OrderQuery) ([]domain.Order, bool, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	tx := r.window(r.db.WithContext(ctx).Model(&domain.Order{}), q.From, q.To)
	if text := strings.TrimSpace(q.Text); text != "" {
		like := "%" + strings.ToLower(text) + "%"
		tx = tx.Where("LOWER(id) LIKE ? OR LOWER(customer_name) LIKE ?", like, like)
	}

	var out []domain.Order
	if err := tx.Order("created_at DESC").Limit(limit + 1).Offset(offset).Find(&out).Error; err != nil {
		r.log.Errorf("Search orders error: %v", err)
		return nil, false, err
	}

	hasMore := len(out) > limit
	if hasMore {
		out = out[:limit]
	}
	return out, hasMore, nil
}

func (r *orderRepo) FindInRange(ctx context.Context, from, to time.Time) ([]domain.Order, error) {
	var out []domain.Order
	tx := r.window(r.db.WithContext(ctx).Model(&domain.Order{}), from, to)
	if err := tx.Order("created_at ASC").Find(&out).Error; err != nil {
		r.log.Errorf("FindInRange error: %v", err)
		return nil, err
	}
	return out, nil
}

func (r *orderRepo) window(tx *gorm.DB, from, to time.Time) *gorm.DB {
	if !from.IsZero() {
		tx = tx.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		tx = tx.Where("created_at < ?", to)
	}
	return tx
}
