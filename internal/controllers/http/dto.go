package http

import (
	"encoding/json"

	"storefront/internal/domain"
	"storefront/internal/services"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CustomerRequest struct {
	Name    string `json:"name" binding:"required,max=255"`
	Email   string `json:"email" binding:"omitempty,email,max=255"`
	Phone   string `json:"phone" binding:"required,max=32"`
	Address string `json:"address" binding:"required,max=1000"`
}

// CartItemRequest accepts the cart line as the storefront sends it. Only the
// id and quantity are used; display copies of name and price are ignored.
type CartItemRequest struct {
	ID       uuid.UUID       `json:"id" binding:"required"`
	Quantity int             `json:"quantity" binding:"required,gt=0,max=10000"`
	Name     string          `json:"name,omitempty"`
	Price    json.RawMessage `json:"price,omitempty"`
	Cost     json.RawMessage `json:"cost,omitempty"`
}

type CreateOrderRequest struct {
	Customer      CustomerRequest   `json:"customer"`
	Cart          []CartItemRequest `json:"cart" binding:"required,min=1,dive"`
	PaymentMethod string            `json:"paymentMethod" binding:"required,oneof=delivery qr"`
}

func (r CreateOrderRequest) toService() services.PlaceOrderRequest {
	cart := make([]services.CartLine, 0, len(r.Cart))
	for _, item := range r.Cart {
		cart = append(cart, services.CartLine{ProductID: item.ID, Quantity: item.Quantity})
	}
	return services.PlaceOrderRequest{
		Customer: domain.CustomerInfo{
			Name:    r.Customer.Name,
			Email:   r.Customer.Email,
			Phone:   r.Customer.Phone,
			Address: r.Customer.Address,
		},
		Cart:          cart,
		PaymentMethod: domain.PaymentMethod(r.PaymentMethod),
	}
}

type ProductRequest struct {
	Name        string          `json:"name" binding:"required,max=255"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Cost        decimal.Decimal `json:"cost"`
	Stock       int             `json:"stock" binding:"gte=0"`
	Category    string          `json:"category" binding:"required"`
	ImageURL    string          `json:"imageUrl"`
}

func (r ProductRequest) toService() services.ProductInput {
	return services.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Cost:        r.Cost,
		Stock:       r.Stock,
		Category:    domain.Category(r.Category),
		ImageURL:    r.ImageURL,
	}
}

type StockRequest struct {
	Stock *int `json:"stock" binding:"required,gte=0"`
}

type DescribeRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}

type DescribeResponse struct {
	Description string `json:"description"`
}
