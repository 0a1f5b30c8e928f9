package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Category string

const (
	CategoryApparel     Category = "apparel"
	CategoryAccessories Category = "accessories"
	CategoryHome        Category = "home"
	CategoryBeauty      Category = "beauty"
	CategoryOther       Category = "other"
)

// Categories lists every category the catalog accepts.
var Categories = []Category{
	CategoryApparel,
	CategoryAccessories,
	CategoryHome,
	CategoryBeauty,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Product struct {
	ID          uuid.UUID       `json:"id" gorm:"type:varchar(36);primaryKey"`
	Name        string          `json:"name" gorm:"size:255;not null" validate:"required,max=255"`
	Description string          `json:"description" gorm:"type:text"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Cost        decimal.Decimal `json:"cost" gorm:"type:decimal(12,2);not null;default:0"`
	Stock       int             `json:"stock" gorm:"not null;default:0" validate:"gte=0"`
	Category    Category        `json:"category" gorm:"size:32;not null;index" validate:"required,category"`
	ImageURL    string          `json:"imageUrl" gorm:"size:512"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PublicProduct is the customer facing projection of a Product. It never
// carries the unit cost.
type PublicProduct struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    Category        `json:"category"`
	ImageURL    string          `json:"imageUrl"`
}

func (p Product) Public() PublicProduct {
	return PublicProduct{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
	}
}
