package app

import (
	"log"

	"github.com/Shallom032/Farmers-Backend-DB/config"
	"github.com/Shallom032/Farmers-Backend-DB/pkg/logger"
	"github.com/shopspring/decimal"
)

func BootstrapApp() *config.Config {
	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}

	// 初始化 Logger
	if err := logger.InitLogger(&cfg.Logger); err != nil {
		log.Fatalf("初始化 Logger 失败: %v", err)
	}

	// 金额以数字形式输出 {"total_amount": 190}
	decimal.MarshalJSONWithoutQuotes = true

	logger.Info("Application bootstrapped successfully", "db_driver", cfg.Database.Driver)

	return cfg
}
