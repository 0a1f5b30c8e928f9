package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/auth"
	"storefront/internal/domain"
	"storefront/internal/mocks"
	"storefront/internal/repository"
	"storefront/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

var testProductID = uuid.MustParse("0b7e8d0a-5a0c-4c55-9a59-1f1c9c3e2d44")

type fixture struct {
	router   *gin.Engine
	orders   *mocks.MockOrderRepository
	products *mocks.MockProductRepository
	svc      *services.OrderService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logrus.New()
	log.SetOutput(io.Discard)

	orders := new(mocks.MockOrderRepository)
	products := new(mocks.MockProductRepository)
	orderSvc := services.NewOrderService(orders, products, services.NewLedger(products, true, log), services.NewNotifier(nil, log), nil, log)
	catalogSvc := services.NewCatalogService(products, nil, log)

	r := gin.New()
	r.Use(RequestLogger(log))
	NewHandler(orderSvc, catalogSvc, log).RegisterRoutes(r)
	verifier := auth.NewVerifier(testSecret, []string{"owner@shop.test"})
	NewAdminHandler(orderSvc, catalogSvc, log).RegisterRoutes(r, AdminOnly(verifier, log))

	return &fixture{router: r, orders: orders, products: products, svc: orderSvc}
}

func (f *fixture) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	f.svc.Wait()
	return w
}

func signToken(t *testing.T, email string, ttl time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func testProduct(stock int) *domain.Product {
	return &domain.Product{
		ID:       testProductID,
		Name:     "Linen Tote",
		Price:    decimal.RequireFromString("10.00"),
		Cost:     decimal.RequireFromString("4.00"),
		Stock:    stock,
		Category: domain.CategoryAccessories,
	}
}

func orderBody(qty int, method string) map[string]any {
	return map[string]any{
		"customer": map[string]any{
			"name":    "Ana Reyes",
			"phone":   "+1 555 0100",
			"address": "12 Harbor Road",
		},
		"cart": []map[string]any{
			{"id": testProductID.String(), "quantity": qty, "price": 0.01, "name": "cheap"},
		},
		"paymentMethod": method,
	}
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHandler_CreateOrder(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		setupMocks     func(*mocks.MockOrderRepository, *mocks.MockProductRepository)
		expectedStatus int
		expectedError  string
		check          func(*testing.T, map[string]any)
	}{
		{
			name: "created with server side prices",
			body: orderBody(2, "delivery"),
			setupMocks: func(orders *mocks.MockOrderRepository, products *mocks.MockProductRepository) {
				products.On("FindByID", mock.Anything, testProductID).Return(testProduct(3), nil)
				orders.On("Save", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)
				products.On("DecrementStock", mock.Anything, testProductID, 2).Return(nil)
			},
			expectedStatus: http.StatusCreated,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "20", body["subtotal"])
				assert.Equal(t, "5", body["deliveryFee"])
				assert.Equal(t, "25", body["total"])
				assert.Equal(t, "pending", body["status"])
				assert.Regexp(t, `^ORD-\d{10}$`, body["id"])
			},
		},
		{
			name: "qr payment completes",
			body: orderBody(1, "qr"),
			setupMocks: func(orders *mocks.MockOrderRepository, products *mocks.MockProductRepository) {
				products.On("FindByID", mock.Anything, testProductID).Return(testProduct(3), nil)
				orders.On("Save", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)
				products.On("DecrementStock", mock.Anything, testProductID, 1).Return(nil)
			},
			expectedStatus: http.StatusCreated,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "completed", body["status"])
			},
		},
		{
			name: "insufficient stock",
			body: orderBody(5, "delivery"),
			setupMocks: func(orders *mocks.MockOrderRepository, products *mocks.MockProductRepository) {
				products.On("FindByID", mock.Anything, testProductID).Return(testProduct(3), nil)
			},
			expectedStatus: http.StatusConflict,
			expectedError:  "insufficient stock for Linen Tote, only 3 left",
		},
		{
			name: "unknown product",
			body: orderBody(1, "delivery"),
			setupMocks: func(orders *mocks.MockOrderRepository, products *mocks.MockProductRepository) {
				products.On("FindByID", mock.Anything, testProductID).Return(nil, nil)
			},
			expectedStatus: http.StatusNotFound,
			expectedError:  "product not found",
		},
		{
			name: "persistence failure",
			body: orderBody(1, "delivery"),
			setupMocks: func(orders *mocks.MockOrderRepository, products *mocks.MockProductRepository) {
				products.On("FindByID", mock.Anything, testProductID).Return(testProduct(3), nil)
				orders.On("Save", mock.Anything, mock.Anything).Return(errors.New("connection reset"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "connection reset",
		},
		{
			name:           "unknown payment method",
			body:           orderBody(1, "card"),
			setupMocks:     func(*mocks.MockOrderRepository, *mocks.MockProductRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "quantity above the per line cap",
			body:           orderBody(services.MaxLineQuantity+1, "delivery"),
			setupMocks:     func(*mocks.MockOrderRepository, *mocks.MockProductRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "zero quantity",
			body:           orderBody(0, "qr"),
			setupMocks:     func(*mocks.MockOrderRepository, *mocks.MockProductRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "empty cart",
			body: map[string]any{
				"customer":      map[string]any{"name": "A", "phone": "1", "address": "x"},
				"cart":          []any{},
				"paymentMethod": "qr",
			},
			setupMocks:     func(*mocks.MockOrderRepository, *mocks.MockProductRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "missing customer address",
			body: map[string]any{
				"customer":      map[string]any{"name": "A", "phone": "1"},
				"cart":          []map[string]any{{"id": testProductID.String(), "quantity": 1}},
				"paymentMethod": "qr",
			},
			setupMocks:     func(*mocks.MockOrderRepository, *mocks.MockProductRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMocks(f.orders, f.products)

			w := f.do(t, http.MethodPost, "/api/orders", tt.body, "")

			assert.Equal(t, tt.expectedStatus, w.Code)
			body := decodeBody(t, w)
			if tt.expectedError != "" {
				assert.Contains(t, body["error"], tt.expectedError)
			}
			if tt.check != nil {
				tt.check(t, body)
			}
			f.orders.AssertExpectations(t)
			f.products.AssertExpectations(t)
		})
	}
}

func TestHandler_Health(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHandler_PublicProductsHideCost(t *testing.T) {
	f := newFixture(t)
	f.products.On("FindAll", mock.Anything, domain.Category("")).Return([]domain.Product{*testProduct(3)}, nil)

	w := f.do(t, http.MethodGet, "/api/products", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "cost")
	assert.Contains(t, w.Body.String(), "Linen Tote")
}

func TestHandler_GetProductInvalidID(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/api/products/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdmin_AccessControl(t *testing.T) {
	tests := []struct {
		name           string
		token          func(*testing.T) string
		expectedStatus int
	}{
		{name: "no token", token: func(*testing.T) string { return "" }, expectedStatus: http.StatusUnauthorized},
		{name: "garbage token", token: func(*testing.T) string { return "abc.def.ghi" }, expectedStatus: http.StatusUnauthorized},
		{name: "expired token", token: func(t *testing.T) string { return signToken(t, "owner@shop.test", -time.Minute) }, expectedStatus: http.StatusUnauthorized},
		{name: "not on allow-list", token: func(t *testing.T) string { return signToken(t, "intruder@shop.test", time.Hour) }, expectedStatus: http.StatusForbidden},
		{name: "admin", token: func(t *testing.T) string { return signToken(t, "Owner@Shop.test", time.Hour) }, expectedStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.products.On("FindAll", mock.Anything, domain.Category("")).Return([]domain.Product{*testProduct(3)}, nil).Maybe()

			w := f.do(t, http.MethodGet, "/api/admin/products", nil, tt.token(t))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if w.Code == http.StatusOK {
				assert.Contains(t, w.Body.String(), `"cost":"4"`)
			}
		})
	}
}

func TestAdmin_SetStock(t *testing.T) {
	f := newFixture(t)
	token := signToken(t, "owner@shop.test", time.Hour)
	f.products.On("FindByID", mock.Anything, testProductID).Return(testProduct(3), nil)
	f.products.On("SetStock", mock.Anything, testProductID, 0).Return(nil)

	w := f.do(t, http.MethodPatch, "/api/admin/products/"+testProductID.String()+"/stock", map[string]any{"stock": 0}, token)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decodeBody(t, w)["stock"])

	w = f.do(t, http.MethodPatch, "/api/admin/products/"+testProductID.String()+"/stock", map[string]any{"stock": -4}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	f.products.AssertExpectations(t)
}

func TestAdmin_ListOrders(t *testing.T) {
	f := newFixture(t)
	token := signToken(t, "owner@shop.test", time.Hour)
	f.orders.On("Search", mock.Anything, mock.MatchedBy(func(q repository.OrderQuery) bool {
		return q.Text == "ana" && q.Limit == 5 &&
			q.From.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)) &&
			q.To.Equal(time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC))
	})).Return([]domain.Order{{ID: "ORD-0000000001"}}, true, nil)

	w := f.do(t, http.MethodGet, "/api/admin/orders?q=ana&limit=5&from=2024-05-01&to=2024-05-02", nil, token)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["hasMore"])
	assert.Len(t, body["orders"], 1)

	w = f.do(t, http.MethodGet, "/api/admin/orders?from=yesterday", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/api/admin/orders?limit=-1", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdmin_GetOrderNotFound(t *testing.T) {
	f := newFixture(t)
	token := signToken(t, "owner@shop.test", time.Hour)
	f.orders.On("FindByID", mock.Anything, "ORD-0000000404").Return(nil, nil)

	w := f.do(t, http.MethodGet, "/api/admin/orders/ORD-0000000404", nil, token)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "order not found", decodeBody(t, w)["error"])
}

func TestAdmin_DescribeFallsBackToPlaceholder(t *testing.T) {
	f := newFixture(t)
	token := signToken(t, "owner@shop.test", time.Hour)

	w := f.do(t, http.MethodPost, "/api/admin/products/describe", map[string]any{"name": "Linen Tote"}, token)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, services.PlaceholderDescription, decodeBody(t, w)["description"])
}

func TestParseTime_WindowBounds(t *testing.T) {
	from, err := parseTime("2024-05-01", false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), from)

	to, err := parseTime("2024-05-01", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), to, "exclusive upper bound covers the whole day")

	exact, err := parseTime("2024-05-01T12:30:00+02:00", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC), exact)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("bearer  abc "))
	assert.Equal(t, "", bearerToken("Basic abc"))
	assert.Equal(t, "", bearerToken(""))
}
