package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Shallom032/Farmers-Backend-DB/internal/model"
	"github.com/Shallom032/Farmers-Backend-DB/pkg/e"
	"github.com/Shallom032/Farmers-Backend-DB/pkg/utils"
	"github.com/gin-gonic/gin"
)

const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

// JWTAuthMiddleware JWT认证中间件
func JWTAuthMiddleware(jwtUtil *utils.JWTUtil) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, e.ERROR_AUTH, e.GetMsg(e.ERROR_AUTH))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abort(c, e.ERROR_AUTH, "Invalid Authorization format")
			return
		}

		claims, err := jwtUtil.ParseToken(parts[1])
		if err != nil {
			if errors.Is(err, utils.ErrTokenExpired) {
				abort(c, e.ERROR_AUTH_CHECK_TOKEN_TIMEOUT, e.GetMsg(e.ERROR_AUTH_CHECK_TOKEN_TIMEOUT))
			} else {
				abort(c, e.ERROR_AUTH_CHECK_TOKEN_FAIL, e.GetMsg(e.ERROR_AUTH_CHECK_TOKEN_FAIL))
			}
			return
		}
		role := model.Role(claims.Role)
		if claims.UserID <= 0 || !role.Valid() {
			abort(c, e.ERROR_AUTH_CHECK_TOKEN_FAIL, e.GetMsg(e.ERROR_AUTH_CHECK_TOKEN_FAIL))
			return
		}

		// 注入用户信息
		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxRole, role)

		c.Next()
	}
}

// RequireRole 必须挂在 JWTAuthMiddleware 之后
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get(CtxRole)
		r, ok := role.(model.Role)
		if !ok {
			abort(c, e.ERROR_AUTH, e.GetMsg(e.ERROR_AUTH))
			return
		}
		for _, allowed := range roles {
			if r == allowed {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, gin.H{
			"code":    e.ERROR_FORBIDDEN,
			"message": "Access denied. Insufficient permissions.",
		})
		c.Abort()
	}
}

func abort(c *gin.Context, code int, msg string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"code":    code,
		"message": msg,
	})
	c.Abort()
}
