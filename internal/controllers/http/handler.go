package http

import (
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	orders  *services.OrderService
	catalog *services.CatalogService
	log     *logrus.Logger
}

func NewHandler(orders *services.OrderService, catalog *services.CatalogService, logger *logrus.Logger) *Handler {
	return &Handler{orders: orders, catalog: catalog, log: logger}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", h.Health)

	api := r.Group("/api")
	api.POST("/orders", h.CreateOrder)
	api.GET("/products", h.ListProducts)
	api.GET("/products/:id", h.GetProduct)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orders.PlaceOrder(c.Request.Context(), req.toService())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.catalog.ListPublic(c.Request.Context(), domain.Category(c.Query("category")))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	p, err := h.catalog.GetPublic(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func productID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return uuid.Nil, false
	}
	return id, true
}
