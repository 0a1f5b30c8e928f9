package gormrepo

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type productRepo struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewProductRepository(db *gorm.DB, logger *logrus.Logger) repository.ProductRepository {
	return &productRepo{db: db, log: logger}
}

func (r *productRepo) FindAll(ctx context.Context, category domain.Category) ([]domain.Product, error) {
	var products []domain.Product
	tx := r.db.WithContext(ctx)
	if category != "" {
		tx = tx.Where("category = ?", category)
	}
	if err := tx.Order("name ASC").Find(&products).Error; err != nil {
		r.log.Errorf("FindAll products error: %v", err)
		return nil, err
	}
	return products, nil
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Errorf("FindByID error for product %s: %v", id, err)
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) Create(ctx context.Context, product *domain.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		r.log.Errorf("Create product %q error: %v", product.Name, err)
		return err
	}
	r.log.Infof("Product created with ID: %s", product.ID)
	return nil
}

func (r *productRepo) Update(ctx context.Context, product *domain.Product) error {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		r.log.Errorf("Update product %s error: %v", product.ID, err)
		return err
	}
	return nil
}

func (r *productRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&domain.Product{}, "id = ?", id)
	if res.Error != nil {
		r.log.Errorf("Delete product %s error: %v", id, res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	return nil
}

func (r *productRepo) SetStock(ctx context.Context, id uuid.UUID, stock int) error {
	res := r.db.WithContext(ctx).Model(&domain.Product{}).Where("id = ?", id).UpdateColumn("stock", stock)
	if res.Error != nil {
		r.log.Errorf("SetStock error for product %s: %v", id, res.Error)
		return res.Error
	}
	return nil
}

// DecrementStock runs as one UPDATE guarded by the stock predicate, so
// concurrent buyers of the same product are serialised by the row lock.
func (r *productRepo) DecrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	res := r.db.WithContext(ctx).Model(&domain.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return fmt.Errorf("atomic decrement of product %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrStockConflict
	}
	return nil
}
