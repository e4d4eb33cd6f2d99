package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shallom032/Farmers-Backend-DB/api/middleware"
	"github.com/Shallom032/Farmers-Backend-DB/internal/model"
	"github.com/Shallom032/Farmers-Backend-DB/internal/service"
	"github.com/Shallom032/Farmers-Backend-DB/pkg/e"
)

// UserHandler 处理用户信息
type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup) {
	admin := middleware.RequireRole(model.RoleAdmin)

	rg.GET("", admin, h.ListUsers)
	rg.POST("", admin, h.CreateUser)
	rg.GET("/:id", h.GetUser)
	rg.PUT("/:id", h.UpdateUser)
	rg.DELETE("/:id", admin, h.DeleteUser)
}

// selfOrAdmin 非管理员只能访问自己的账号
func selfOrAdmin(c *gin.Context, id int64) bool {
	actor := actorOf(c)
	if actor.IsAdmin() || actor.UserID == id {
		return true
	}
	renderError(c, e.New(e.ERROR_FORBIDDEN))
	return false
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.users.ListUsers(ctx)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "full_name, email and role are required")
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.users.CreateUser(ctx, req)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User created", "user": u})
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok || !selfOrAdmin(c, id) {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.users.GetUser(ctx, id)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// UpdateUser 只有管理员可以改角色
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok || !selfOrAdmin(c, id) {
		return
	}
	var req service.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.Role != nil && !actorOf(c).IsAdmin() {
		renderError(c, e.New(e.ERROR_FORBIDDEN))
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.users.UpdateUser(ctx, id, req)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.users.DeleteUser(ctx, id)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
