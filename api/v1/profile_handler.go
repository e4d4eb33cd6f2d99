package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shallom032/Farmers-Backend-DB/internal/service"
)

// FarmerHandler 农户档案
type FarmerHandler struct {
	farmers *service.FarmerService
}

func NewFarmerHandler(farmers *service.FarmerService) *FarmerHandler {
	return &FarmerHandler{farmers: farmers}
}

func (h *FarmerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.ListFarmers)
	rg.GET("/:id", h.GetFarmer)
	rg.PUT("/:id", h.UpdateFarmer)
	rg.DELETE("/:id", h.DeleteFarmer)
}

func (h *FarmerHandler) ListFarmers(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.farmers.ListFarmers(ctx)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *FarmerHandler) GetFarmer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	f, err := h.farmers.GetFarmer(ctx, id)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *FarmerHandler) UpdateFarmer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateFarmerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.farmers.UpdateFarmer(ctx, id, req)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *FarmerHandler) DeleteFarmer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.farmers.DeleteFarmer(ctx, id)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// BuyerHandler 买家档案
type BuyerHandler struct {
	buyers *service.BuyerService
}

func NewBuyerHandler(buyers *service.BuyerService) *BuyerHandler {
	return &BuyerHandler{buyers: buyers}
}

func (h *BuyerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.ListBuyers)
	rg.GET("/:id", h.GetBuyer)
	rg.PUT("/:id", h.UpdateBuyer)
	rg.DELETE("/:id", h.DeleteBuyer)
}

func (h *BuyerHandler) ListBuyers(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.buyers.ListBuyers(ctx)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *BuyerHandler) GetBuyer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.buyers.GetBuyer(ctx, id)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BuyerHandler) UpdateBuyer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateBuyerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.buyers.UpdateBuyer(ctx, id, req)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *BuyerHandler) DeleteBuyer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.buyers.DeleteBuyer(ctx, id)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
