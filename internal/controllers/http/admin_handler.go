package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"storefront/internal/repository"
	"storefront/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AdminHandler struct {
	orders  *services.OrderService
	catalog *services.CatalogService
	log     *logrus.Logger
}

func NewAdminHandler(orders *services.OrderService, catalog *services.CatalogService, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{orders: orders, catalog: catalog, log: logger}
}

// RegisterRoutes mounts the back office under /api/admin behind guard.
func (h *AdminHandler) RegisterRoutes(r *gin.Engine, guard gin.HandlerFunc) {
	admin := r.Group("/api/admin", guard)

	admin.GET("/products", h.ListProducts)
	admin.POST("/products", h.CreateProduct)
	admin.POST("/products/describe", h.DescribeProduct)
	admin.PUT("/products/:id", h.UpdateProduct)
	admin.PATCH("/products/:id/stock", h.SetStock)
	admin.DELETE("/products/:id", h.DeleteProduct)

	admin.GET("/orders", h.ListOrders)
	admin.GET("/orders/:id", h.GetOrder)
	admin.GET("/summary", h.Summary)
}

func (h *AdminHandler) ListProducts(c *gin.Context) {
	products, err := h.catalog.ListAdmin(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *AdminHandler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.catalog.CreateProduct(c.Request.Context(), req.toService())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *AdminHandler) UpdateProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.catalog.UpdateProduct(c.Request.Context(), id, req.toService())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *AdminHandler) SetStock(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	var req StockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.catalog.SetStock(c.Request.Context(), id, *req.Stock)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *AdminHandler) DeleteProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	if err := h.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) DescribeProduct(c *gin.Context) {
	var req DescribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, DescribeResponse{
		Description: h.catalog.GenerateDescription(c.Request.Context(), req.Name),
	})
}

func (h *AdminHandler) ListOrders(c *gin.Context) {
	from, to, err := parseWindow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, err := h.orders.ListOrders(c.Request.Context(), repository.OrderQuery{
		From:   from,
		To:     to,
		Text:   c.Query("q"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *AdminHandler) GetOrder(c *gin.Context) {
	o, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *AdminHandler) Summary(c *gin.Context) {
	from, to, err := parseWindow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sum, err := h.orders.Summary(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

const dateLayout = "2006-01-02"

// parseWindow reads from/to as RFC 3339 timestamps or plain dates. The
// window is [from, to); a plain "to" date includes that whole day.
func parseWindow(c *gin.Context) (time.Time, time.Time, error) {
	from, err := parseTime(c.Query("from"), false)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid from: %w", err)
	}
	to, err := parseTime(c.Query("to"), true)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid to: %w", err)
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("to is before from")
	}
	return from, to, nil
}

func parseTime(value string, endOfDay bool) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1)
	}
	return t, nil
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}
