package v1

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Shallom032/Farmers-Backend-DB/api/middleware"
	"github.com/Shallom032/Farmers-Backend-DB/internal/model"
	"github.com/Shallom032/Farmers-Backend-DB/internal/service"
	"github.com/Shallom032/Farmers-Backend-DB/pkg/e"
	"github.com/Shallom032/Farmers-Backend-DB/pkg/logger"
	"github.com/gin-gonic/gin"
)

var requestTimeout = 5 * time.Second

// SetRequestTimeout 由 server.request_timeout 配置，<=0 时保持默认
func SetRequestTimeout(d time.Duration) {
	if d > 0 {
		requestTimeout = d
	}
}

// reqCtx 每个请求的超时上下文
func reqCtx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

// renderError 业务错误按错误码映射状态码，其他错误一律 500
func renderError(c *gin.Context, err error) {
	code := e.CodeOf(err)
	status := e.HTTPStatus(code)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "err", err)
		msg = e.GetMsg(e.ERROR)
	}
	c.JSON(status, gin.H{"code": code, "message": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"code": e.INVALID_PARAMS, "message": msg})
}

// actorOf 从 JWT 中间件注入的字段构造调用者身份
func actorOf(c *gin.Context) service.Actor {
	role, _ := c.Get(middleware.CtxRole)
	r, _ := role.(model.Role)
	return service.Actor{UserID: c.GetInt64(middleware.CtxUserID), Role: r}
}

// paramID 解析路径上的正整数 id
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}
