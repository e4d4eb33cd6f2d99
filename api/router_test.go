package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	v1 "github.com/Shallom032/Farmers-Backend-DB/api/v1"
	"github.com/Shallom032/Farmers-Backend-DB/config"
	"github.com/Shallom032/Farmers-Backend-DB/internal/dao/database"
	"github.com/Shallom032/Farmers-Backend-DB/internal/model"
	"github.com/Shallom032/Farmers-Backend-DB/internal/service"
	"github.com/Shallom032/Farmers-Backend-DB/pkg/e"
	"github.com/Shallom032/Farmers-Backend-DB/pkg/utils"
)

type testServer struct {
	t      *testing.T
	router *gin.Engine
	svcs   *v1.Services
	jwt    *utils.JWTUtil
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{Server: config.ServerConfig{Mode: "test", RequestTimeout: 5}}
	svcs := v1.InitServices(db, nil, nil)
	j := utils.NewJWTUtil("test-secret", 1)
	return &testServer{t: t, router: NewRouter(cfg, svcs, j), svcs: svcs, jwt: j}
}

// account 建用户并返回 token
func (s *testServer) account(role model.Role, email string) (int64, string) {
	s.t.Helper()
	u, err := s.svcs.Users.CreateUser(context.Background(), service.CreateUserRequest{
		FullName: strings.Split(email, "@")[0],
		Email:    email,
		Location: "Kiambu",
		Role:     role,
	})
	require.NoError(s.t, err)
	tok, err := s.jwt.GenerateToken(u.ID, string(role))
	require.NoError(s.t, err)
	return u.ID, tok
}

func (s *testServer) do(method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestHealthAndNoRoute(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", body["status"])

	w, _ = s.do(http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckoutFlow(t *testing.T) {
	s := newTestServer(t)
	_, farmerTok := s.account(model.RoleFarmer, "grace@example.com")
	_, buyerTok := s.account(model.RoleBuyer, "otieno@example.com")

	// 上架
	w, body := s.do(http.MethodPost, "/api/products", farmerTok, map[string]any{
		"name": "Tomatoes", "price": "50", "quantity_available": 100, "unit": "kg", "category": "Vegetables",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	product := body["product"].(map[string]any)
	productID := int64(product["id"].(float64))

	// 浏览公开
	w, _ = s.do(http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodGet, fmt.Sprintf("/api/products/%d", productID), "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodGet, "/api/products/9999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 购物车需要 buyer
	w, _ = s.do(http.MethodGet, "/api/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = s.do(http.MethodGet, "/api/cart", farmerTok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	delivery := map[string]any{
		"delivery_address": "12 Market Street",
		"delivery_city":    "Nairobi",
		"delivery_phone":   "0712345678",
	}
	w, body = s.do(http.MethodPost, "/api/orders", buyerTok, delivery)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.EqualValues(t, e.ERROR_CART_EMPTY, body["code"])

	w, _ = s.do(http.MethodPost, "/api/orders", buyerTok, map[string]any{"delivery_city": "Nairobi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPost, "/api/cart", buyerTok, map[string]any{"product_id": productID, "quantity": 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, body = s.do(http.MethodPost, "/api/orders", buyerTok, delivery)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	orders := body["orders"].([]any)
	require.Len(t, orders, 1)
	orderID := int64(orders[0].(map[string]any)["orderId"].(float64))

	// 结账后购物车清空
	w, _ = s.do(http.MethodGet, "/api/cart", buyerTok, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	w, body = s.do(http.MethodGet, fmt.Sprintf("/api/orders/%d", orderID), buyerTok, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pending", body["status"])

	w, _ = s.do(http.MethodGet, "/api/orders/9999", buyerTok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 其他买家看不到
	_, otherTok := s.account(model.RoleBuyer, "wanjiru@example.com")
	w, _ = s.do(http.MethodGet, fmt.Sprintf("/api/orders/%d", orderID), otherTok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// 农户确认订单
	w, _ = s.do(http.MethodPut, fmt.Sprintf("/api/orders/%d/status", orderID), farmerTok, map[string]any{"status": "confirmed"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w, body = s.do(http.MethodPut, fmt.Sprintf("/api/orders/%d/status", orderID), farmerTok, map[string]any{"status": "bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.EqualValues(t, e.ERROR_INVALID_STATUS, body["code"])
}

func TestAdminOnlyRoutes(t *testing.T) {
	s := newTestServer(t)
	_, adminTok := s.account(model.RoleAdmin, "admin@example.com")
	buyerID, buyerTok := s.account(model.RoleBuyer, "otieno@example.com")

	w, _ := s.do(http.MethodGet, "/api/users", buyerTok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = s.do(http.MethodGet, "/api/users", adminTok, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// 本人可查看自己，不能改角色
	w, _ = s.do(http.MethodGet, fmt.Sprintf("/api/users/%d", buyerID), buyerTok, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodPut, fmt.Sprintf("/api/users/%d", buyerID), buyerTok, map[string]any{"role": "admin"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodGet, "/api/payments/pending/approvals", buyerTok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = s.do(http.MethodGet, "/api/payments/pending/approvals", adminTok, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, body := s.do(http.MethodPost, "/api/users", adminTok, map[string]any{
		"full_name": "Dup", "email": "otieno@example.com", "role": "buyer",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.EqualValues(t, e.ERROR_USER_EXISTS, body["code"])
}
