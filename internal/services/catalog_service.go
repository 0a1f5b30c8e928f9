package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/infra"
	"storefront/internal/infra/cache"
	"storefront/internal/repository"
	"storefront/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// PlaceholderDescription is used when text generation is unavailable.
const PlaceholderDescription = "A carefully selected piece from our collection."

type ProductInput struct {
	Name        string `validate:"required,max=255"`
	Description string `validate:"max=4000"`
	Price       decimal.Decimal
	Cost        decimal.Decimal
	Stock       int             `validate:"gte=0"`
	Category    domain.Category `validate:"required,category"`
	ImageURL    string          `validate:"omitempty,max=512"`
}

func (in ProductInput) check() error {
	if err := validator.Struct(in); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidProduct, err)
	}
	if in.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", domain.ErrInvalidProduct)
	}
	if in.Cost.IsNegative() {
		return fmt.Errorf("%w: cost must not be negative", domain.ErrInvalidProduct)
	}
	return nil
}

func (in ProductInput) apply(p *domain.Product) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Price = in.Price.Round(2)
	p.Cost = in.Cost.Round(2)
	p.Stock = in.Stock
	p.Category = in.Category
	p.ImageURL = in.ImageURL
}

type CatalogService struct {
	products repository.ProductRepository
	textgen  infra.TextGenerator
	cache    *cache.Cache
	cacheTTL time.Duration
	log      *logrus.Logger
}

func NewCatalogService(products repository.ProductRepository, textgen infra.TextGenerator, logger *logrus.Logger) *CatalogService {
	return &CatalogService{products: products, textgen: textgen, log: logger}
}

func (s *CatalogService) SetCache(c *cache.Cache, ttl time.Duration) {
	s.cache = c
	s.cacheTTL = ttl
}

// ListPublic returns the customer catalog, optionally filtered by category.
func (s *CatalogService) ListPublic(ctx context.Context, category domain.Category) ([]domain.PublicProduct, error) {
	if category != "" && !category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidProduct, category)
	}
	suffix := "public:all"
	if category != "" {
		suffix = "public:" + string(category)
	}
	return cache.GetOrFetch(ctx, s.cache, NamespaceProducts, suffix, s.cacheTTL, func(ctx context.Context) ([]domain.PublicProduct, error) {
		products, err := s.products.FindAll(ctx, category)
		if err != nil {
			return nil, err
		}
		out := make([]domain.PublicProduct, 0, len(products))
		for _, p := range products {
			out = append(out, p.Public())
		}
		return out, nil
	})
}

func (s *CatalogService) GetPublic(ctx context.Context, id uuid.UUID) (*domain.PublicProduct, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	pub := p.Public()
	return &pub, nil
}

// ListAdmin returns every product including its cost.
func (s *CatalogService) ListAdmin(ctx context.Context) ([]domain.Product, error) {
	return cache.GetOrFetch(ctx, s.cache, NamespaceProducts, "admin", s.cacheTTL, func(ctx context.Context) ([]domain.Product, error) {
		products, err := s.products.FindAll(ctx, "")
		if err != nil {
			return nil, err
		}
		if products == nil {
			products = []domain.Product{}
		}
		return products, nil
	})
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrProductNotFound
	}
	return p, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	if err := in.check(); err != nil {
		return nil, err
	}
	p := &domain.Product{}
	in.apply(p)
	if err := s.products.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.invalidate(ctx)
	s.log.WithField("product_id", p.ID).Info("Product created")
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, in ProductInput) (*domain.Product, error) {
	if err := in.check(); err != nil {
		return nil, err
	}
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(p)
	if err := s.products.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	s.invalidate(ctx)
	return p, nil
}

// SetStock overwrites the stock level. This is the admin correction path; the
// checkout path decrements through the Ledger instead.
func (s *CatalogService) SetStock(ctx context.Context, id uuid.UUID, stock int) (*domain.Product, error) {
	if stock < 0 {
		return nil, fmt.Errorf("%w: stock must not be negative", domain.ErrInvalidProduct)
	}
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.products.SetStock(ctx, id, stock); err != nil {
		return nil, fmt.Errorf("set stock: %w", err)
	}
	p.Stock = stock
	s.invalidate(ctx)
	s.log.WithFields(logrus.Fields{"product_id": id, "stock": stock}).Info("Stock set")
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.log.WithField("product_id", id).Info("Product deleted")
	return nil
}

// GenerateDescription never fails; any generator problem yields the
// placeholder text.
func (s *CatalogService) GenerateDescription(ctx context.Context, name string) string {
	name = strings.TrimSpace(name)
	if name == "" || s.textgen == nil {
		return PlaceholderDescription
	}
	desc, err := s.textgen.DescribeProduct(ctx, name)
	if err != nil {
		s.log.WithError(err).Warn("Description generation failed, using placeholder")
		return PlaceholderDescription
	}
	if desc = strings.TrimSpace(desc); desc == "" {
		return PlaceholderDescription
	}
	return desc
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, NamespaceProducts); err != nil {
		s.log.WithError(err).Warn("Failed to invalidate product cache")
	}
}
