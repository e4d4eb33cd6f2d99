package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shallom032/Farmers-Backend-DB/api/middleware"
	"github.com/Shallom032/Farmers-Backend-DB/internal/model"
	"github.com/Shallom032/Farmers-Backend-DB/internal/service"
)

// LogisticsHandler 配送分配与状态跟踪
type LogisticsHandler struct {
	logistics *service.LogisticsService
}

func NewLogisticsHandler(logistics *service.LogisticsService) *LogisticsHandler {
	return &LogisticsHandler{logistics: logistics}
}

type assignOrderRequest struct {
	OrderID         int64 `json:"order_id" binding:"required"`
	DeliveryAgentID int64 `json:"delivery_agent_id" binding:"required"`
	model.AssignRequest
}

type deliveryStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

func (h *LogisticsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	staff := middleware.RequireRole(model.RoleAdmin, model.RoleLogistics)

	rg.GET("", staff, h.ListLogistics)
	rg.GET("/agent/my-deliveries", middleware.RequireRole(model.RoleLogistics), h.MyDeliveries)
	rg.GET("/:id", h.GetLogistics)
	rg.POST("/assign-order", staff, h.AssignOrder)
	rg.PUT("/:id", staff, h.UpdateLogistics)
	rg.PUT("/:id/status", staff, h.UpdateDeliveryStatus)
	rg.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), h.DeleteLogistics)
}

func (h *LogisticsHandler) ListLogistics(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.logistics.GetAllLogistics(ctx)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *LogisticsHandler) MyDeliveries(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.logistics.GetDeliveriesByAgent(ctx, actorOf(c).UserID)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *LogisticsHandler) GetLogistics(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	l, err := h.logistics.GetLogisticsByID(ctx, id)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// AssignOrder 为订单指定配送员，订单随之进入 shipped
func (h *LogisticsHandler) AssignOrder(c *gin.Context) {
	var req assignOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Order ID and delivery agent ID are required")
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.logistics.AssignOrderToAgent(ctx, req.OrderID, req.DeliveryAgentID, req.AssignRequest)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *LogisticsHandler) UpdateLogistics(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var patch model.LogisticsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err.Error())
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.logistics.UpdateLogistics(ctx, actorOf(c), id, patch)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *LogisticsHandler) UpdateDeliveryStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req deliveryStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Status is required")
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.logistics.UpdateDeliveryStatus(ctx, actorOf(c), id, req.Status, req.Notes)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *LogisticsHandler) DeleteLogistics(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.logistics.DeleteLogistics(ctx, id)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
