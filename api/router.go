// Package api 组装 gin 路由
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Shallom032/Farmers-Backend-DB/api/middleware"
	v1 "github.com/Shallom032/Farmers-Backend-DB/api/v1"
	"github.com/Shallom032/Farmers-Backend-DB/config"
	"github.com/Shallom032/Farmers-Backend-DB/internal/model"
	"github.com/Shallom032/Farmers-Backend-DB/pkg/utils"
)

// NewRouter 注册全部 /api 路由
func NewRouter(cfg *config.Config, svcs *v1.Services, jwtUtil *utils.JWTUtil) *gin.Engine {
	// 设置Gin模式
	switch cfg.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
	v1.SetRequestTimeout(time.Duration(cfg.Server.RequestTimeout) * time.Second)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), cors.New(corsConfig(cfg.CORS)))

	// 健康检查接口
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "OK",
			"message":   "Agricultural marketplace API is running",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	auth := middleware.JWTAuthMiddleware(jwtUtil)
	api := r.Group("/api")
	{
		// 商品浏览公开，其余按路由挂鉴权
		v1.NewProductHandler(svcs.Products).RegisterRoutes(api.Group("/products"), auth)

		protected := api.Group("")
		protected.Use(auth)
		{
			v1.NewCartHandler(svcs.Cart, svcs.Buyers).
				RegisterRoutes(protected.Group("/cart", middleware.RequireRole(model.RoleBuyer)))
			v1.NewOrderHandler(svcs.Orders, svcs.Buyers).RegisterRoutes(protected.Group("/orders"))
			v1.NewPaymentHandler(svcs.Payments).RegisterRoutes(protected.Group("/payments"))
			v1.NewLogisticsHandler(svcs.Logistics).RegisterRoutes(protected.Group("/logistics"))
			v1.NewUserHandler(svcs.Users).RegisterRoutes(protected.Group("/users"))
			v1.NewFarmerHandler(svcs.Farmers).RegisterRoutes(protected.Group("/farmers"))
			v1.NewBuyerHandler(svcs.Buyers).RegisterRoutes(protected.Group("/buyers"))
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "Route not found"})
	})
	return r
}

func corsConfig(cfg config.CORSConfig) cors.Config {
	c := cors.DefaultConfig()
	if len(cfg.AllowOrigins) == 0 || (len(cfg.AllowOrigins) == 1 && cfg.AllowOrigins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.AllowOrigins
		c.AllowCredentials = cfg.AllowCredentials
	}
	c.AddAllowHeaders("Authorization", middleware.HeaderRequestID)
	c.AddExposeHeaders(middleware.HeaderRequestID)
	if cfg.MaxAgeHours > 0 {
		c.MaxAge = time.Duration(cfg.MaxAgeHours) * time.Hour
	}
	return c
}
