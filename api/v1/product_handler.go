package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Shallom032/Farmers-Backend-DB/api/middleware"
	"github.com/Shallom032/Farmers-Backend-DB/internal/model"
	"github.com/Shallom032/Farmers-Backend-DB/internal/service"
)

type ProductHandler struct {
	products *service.ProductService
}

func NewProductHandler(products *service.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// RegisterRoutes 浏览类接口公开，写接口需要 farmer/admin
func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	seller := middleware.RequireRole(model.RoleFarmer, model.RoleAdmin)

	rg.GET("", h.ListProducts)
	rg.GET("/search", h.SearchProducts)
	rg.GET("/farmer/:farmerId", h.ListByFarmer)
	rg.GET("/my", auth, seller, h.ListMyProducts)
	rg.GET("/:id", h.GetProduct)
	rg.POST("", auth, seller, h.CreateProduct)
	rg.PUT("/:id", auth, seller, h.UpdateProduct)
	rg.DELETE("/:id", auth, seller, h.DeleteProduct)
}

// ListProducts 在售商品
func (h *ProductHandler) ListProducts(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.products.ListProducts(ctx)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.products.GetProduct(ctx, id)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// SearchProducts ?q= 模糊匹配名称/描述，?category= 精确匹配
func (h *ProductHandler) SearchProducts(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.products.SearchProducts(ctx, strings.TrimSpace(c.Query("q")), strings.TrimSpace(c.Query("category")))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ProductHandler) ListByFarmer(c *gin.Context) {
	farmerID, ok := paramID(c, "farmerId")
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.products.ListByFarmer(ctx, farmerID)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ProductHandler) ListMyProducts(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.products.ListMyProducts(ctx, actorOf(c))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Name, price, quantity_available and unit are required")
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.products.CreateProduct(ctx, actorOf(c), req)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Product created successfully", "product": p})
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var patch model.ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err.Error())
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.products.UpdateProduct(ctx, actorOf(c), id, patch)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// DeleteProduct 软删除
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.products.DeleteProduct(ctx, actorOf(c), id)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
