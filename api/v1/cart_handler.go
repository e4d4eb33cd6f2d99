package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shallom032/Farmers-Backend-DB/internal/service"
)

// CartHandler 购物车，路由只对 buyer 开放
type CartHandler struct {
	cart   *service.CartService
	buyers *service.BuyerService
}

func NewCartHandler(cart *service.CartService, buyers *service.BuyerService) *CartHandler {
	return &CartHandler{cart: cart, buyers: buyers}
}

type cartItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  *int  `json:"quantity"`
}

func (h *CartHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.GetCart)
	rg.GET("/total", h.GetCartTotal)
	rg.POST("", h.AddToCart)
	rg.PUT("", h.UpdateCartItem)
	rg.DELETE("/:productId", h.RemoveFromCart)
	rg.DELETE("", h.ClearCart)
}

// buyerID 当前用户的买家档案 id，首次使用购物车时自动建档
func (h *CartHandler) buyerID(c *gin.Context) (int64, bool) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.buyers.EnsureBuyerProfile(ctx, actorOf(c).UserID)
	if err != nil {
		renderError(c, err)
		return 0, false
	}
	return b.ID, true
}

func (h *CartHandler) GetCart(c *gin.Context) {
	buyerID, ok := h.buyerID(c)
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	lines, err := h.cart.GetCart(ctx, buyerID)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, lines)
}

func (h *CartHandler) GetCartTotal(c *gin.Context) {
	buyerID, ok := h.buyerID(c)
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	total, err := h.cart.GetCartTotal(ctx, buyerID)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total})
}

func (h *CartHandler) AddToCart(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		badRequest(c, "Product ID and valid quantity required")
		return
	}
	buyerID, ok := h.buyerID(c)
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.cart.AddToCart(ctx, buyerID, req.ProductID, *req.Quantity)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// UpdateCartItem quantity=0 删除该行
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		badRequest(c, "Product ID and valid quantity required")
		return
	}
	buyerID, ok := h.buyerID(c)
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.cart.UpdateCartItem(ctx, buyerID, req.ProductID, *req.Quantity)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	productID, ok := paramID(c, "productId")
	if !ok {
		return
	}
	buyerID, ok := h.buyerID(c)
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.cart.RemoveFromCart(ctx, buyerID, productID)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *CartHandler) ClearCart(c *gin.Context) {
	buyerID, ok := h.buyerID(c)
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.cart.ClearCart(ctx, buyerID)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
