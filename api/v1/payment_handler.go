package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shallom032/Farmers-Backend-DB/api/middleware"
	"github.com/Shallom032/Farmers-Backend-DB/internal/model"
	"github.com/Shallom032/Farmers-Backend-DB/internal/service"
)

type PaymentHandler struct {
	payments *service.PaymentService
}

func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type settleRequest struct {
	Notes string `json:"notes"`
}

func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	admin := middleware.RequireRole(model.RoleAdmin)

	rg.POST("", middleware.RequireRole(model.RoleBuyer, model.RoleAdmin), h.CreatePayment)
	rg.GET("", admin, h.ListPayments)
	rg.GET("/pending/approvals", admin, h.ListPending)
	rg.GET("/order/:orderId", h.ListByOrder)
	rg.GET("/:id", h.GetPayment)
	rg.PUT("/:id/approve", admin, h.ApprovePayment)
	rg.PUT("/:id/reject", admin, h.RejectPayment)
}

func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req service.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "order_id, amount and payment_method are required")
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.payments.CreatePayment(ctx, req)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *PaymentHandler) ListPayments(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.payments.GetAllPayments(ctx)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *PaymentHandler) ListPending(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.payments.GetPendingPayments(ctx)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *PaymentHandler) ListByOrder(c *gin.Context) {
	orderID, ok := paramID(c, "orderId")
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.payments.GetPaymentsByOrder(ctx, orderID)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *PaymentHandler) GetPayment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.payments.GetPaymentByID(ctx, id)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PaymentHandler) ApprovePayment(c *gin.Context) {
	h.settle(c, h.payments.ApprovePayment)
}

func (h *PaymentHandler) RejectPayment(c *gin.Context) {
	h.settle(c, h.payments.RejectPayment)
}

// settle 审批/拒绝共用，notes 可选
func (h *PaymentHandler) settle(c *gin.Context, fn func(ctx context.Context, id, adminID int64, notes string) (*service.Result, error)) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req settleRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := fn(ctx, id, actorOf(c).UserID, req.Notes)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
