package database

import (
	"fmt"
	"time"

	"github.com/Shallom032/Farmers-Backend-DB/config"
	"github.com/Shallom032/Farmers-Backend-DB/internal/model"
	"github.com/Shallom032/Farmers-Backend-DB/pkg/logger"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// InitDB 按 database.driver 打开连接池，返回的句柄由调用方注入各 DAO
func InitDB(cfg *config.Database) (*gorm.DB, error) {
	dialector, maxOpen, maxIdle, err := openDialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}

	// 获取原生sql.DB对象
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取原生DB失败: %w", err)
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		sqlDB.SetMaxIdleConns(maxIdle)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if cfg.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}
	logger.Info("database connected", "driver", cfg.Driver, "auto_migrate", cfg.AutoMigrate)
	return db, nil
}

func openDialector(cfg *config.Database) (gorm.Dialector, int, int, error) {
	switch cfg.Driver {
	case "", "mysql":
		m := cfg.Mysql
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			m.User, m.Password, m.Host, m.Port, m.DBName)
		return mysql.Open(dsn), m.MaxOpenConns, m.MaxIdleConns, nil
	case "postgres":
		p := cfg.Postgres
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
		return postgres.Open(dsn), p.MaxOpenConns, p.MaxIdleConns, nil
	default:
		return nil, 0, 0, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Models 需要建表的全部模型
func Models() []any {
	return []any{
		&model.User{},
		&model.Farmer{},
		&model.Buyer{},
		&model.Product{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.Payment{},
		&model.Logistics{},
	}
}

// Migrate 建表/补列/补索引
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	return nil
}
