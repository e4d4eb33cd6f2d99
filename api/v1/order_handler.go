package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shallom032/Farmers-Backend-DB/api/middleware"
	"github.com/Shallom032/Farmers-Backend-DB/internal/model"
	"github.com/Shallom032/Farmers-Backend-DB/internal/service"
	"github.com/Shallom032/Farmers-Backend-DB/pkg/e"
)

// OrderHandler 订单 HTTP 处理器
type OrderHandler struct {
	orders *service.OrderService
	buyers *service.BuyerService
}

func NewOrderHandler(orders *service.OrderService, buyers *service.BuyerService) *OrderHandler {
	return &OrderHandler{orders: orders, buyers: buyers}
}

type orderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// RegisterRoutes 注册订单相关路由（需 JWT）
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", middleware.RequireRole(model.RoleBuyer), h.CreateOrder)
	rg.GET("", middleware.RequireRole(model.RoleAdmin), h.ListAllOrders)
	rg.GET("/my/orders", middleware.RequireRole(model.RoleBuyer, model.RoleFarmer), h.ListMyOrders)
	rg.GET("/logistics/pending", middleware.RequireRole(model.RoleAdmin, model.RoleLogistics), h.ListForLogistics)
	rg.GET("/:id", h.GetOrder)
	rg.PUT("/:id/status", middleware.RequireRole(model.RoleAdmin, model.RoleFarmer), h.UpdateOrderStatus)
}

// CreateOrder 结账，按农户拆成多张订单
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var info model.DeliveryInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		badRequest(c, "Delivery address, city, and phone are required")
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	buyer, err := h.buyers.BuyerByUser(ctx, actorOf(c).UserID)
	if err != nil {
		renderError(c, err)
		return
	}
	created, err := h.orders.CreateOrderFromCart(ctx, buyer.ID, info)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Orders created successfully",
		"orders":  created,
	})
}

func (h *OrderHandler) ListAllOrders(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.orders.GetAllOrders(ctx)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.orders.GetMyOrders(ctx, actorOf(c))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ListForLogistics 待分配配送的订单
func (h *OrderHandler) ListForLogistics(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.orders.GetOrdersForLogistics(ctx)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	detail, err := h.orders.GetOrderForActor(ctx, actorOf(c), id)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// UpdateOrderStatus 农户只能改自己的订单
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req orderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, e.GetMsg(e.ERROR_INVALID_STATUS))
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	actor := actorOf(c)
	if !actor.IsAdmin() {
		if _, err := h.orders.GetOrderForActor(ctx, actor, id); err != nil {
			renderError(c, err)
			return
		}
	}
	res, err := h.orders.UpdateOrderStatus(ctx, id, req.Status)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
