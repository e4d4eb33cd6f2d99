// api_server HTTP 入口
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shallom032/Farmers-Backend-DB/api"
	v1 "github.com/Shallom032/Farmers-Backend-DB/api/v1"
	"github.com/Shallom032/Farmers-Backend-DB/internal/dao/database"
	redisinit "github.com/Shallom032/Farmers-Backend-DB/internal/dao/redis"
	"github.com/Shallom032/Farmers-Backend-DB/internal/mq"
	"github.com/Shallom032/Farmers-Backend-DB/internal/service"
	"github.com/Shallom032/Farmers-Backend-DB/pkg/app"
	"github.com/Shallom032/Farmers-Backend-DB/pkg/logger"
	"github.com/Shallom032/Farmers-Backend-DB/pkg/utils"
)

func main() {
	cfg := app.BootstrapApp()

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Fatal("连接数据库失败", "err", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	// redis 可选：不配置时单实例运行，不加分布式锁
	var locker service.Locker
	if cfg.Database.Redis.Enabled() {
		rdb, err := redisinit.InitRedis(&cfg.Database.Redis)
		if err != nil {
			logger.Fatal("连接Redis失败", "err", err)
		}
		defer rdb.Close()
		locker = redisinit.NewLocker(rdb, "agri:lock:")
	}
	mutex := service.NewMutex(locker, time.Duration(cfg.Database.Redis.LockTTLMs)*time.Millisecond)

	// mq 可选：连不上只告警，业务照常
	var publisher service.EventPublisher
	if cfg.MQ.Enabled() {
		pub, err := mq.NewPublisher(&cfg.MQ)
		if err != nil {
			logger.Warn("init mq failed, events disabled", "err", err)
		} else {
			defer pub.Close()
			publisher = pub
		}
	}
	events := service.NewEvents(publisher, cfg.MQ.Exchange)

	jwtUtil := utils.NewJWTUtil(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	router := api.NewRouter(cfg, v1.InitServices(db, events, mutex), jwtUtil)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("API server starting on " + srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP服务启动失败", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down API server")
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
}
