package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 AGRI_JWT_SECRET 覆盖 jwt.secret
const EnvPrefix = "AGRI"

type Logger struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Output     string `yaml:"output"`
	FilePath   string `yaml:"file_path" mapstructure:"file_path"`
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"`
}

type ServerConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	Mode            string `yaml:"mode"`
	ReadTimeout     int    `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    int    `yaml:"write_timeout" mapstructure:"write_timeout"`
	RequestTimeout  int    `yaml:"request_timeout" mapstructure:"request_timeout"`
	ShutdownTimeout int    `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// MySQLConfig 数据库配置
type MySQLConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	DBName       string `yaml:"dbname"`
	MaxOpenConns int    `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
}

// PostgresConfig 备用驱动
type PostgresConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	DBName       string `yaml:"dbname"`
	SSLMode      string `yaml:"sslmode" mapstructure:"sslmode"`
	MaxOpenConns int    `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
}

// RedisConfig Redis配置，Host 为空表示不启用
type RedisConfig struct {
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
	PoolSize int      `yaml:"pool_size" mapstructure:"pool_size"`
	// 结账/分配锁的过期时间(ms)
	LockTTLMs int `yaml:"lock_ttl_ms" mapstructure:"lock_ttl_ms"`
}

// Enabled 是否配置了 redis
func (c RedisConfig) Enabled() bool {
	return c.Host != "" || len(c.Addrs) > 0
}

// JWTConfig JWT认证配置
type JWTConfig struct {
	Secret      string `yaml:"secret"`
	ExpireHours int    `yaml:"expire_hours" mapstructure:"expire_hours"`
}

type Database struct {
	// mysql | postgres
	Driver      string         `yaml:"driver"`
	AutoMigrate bool           `yaml:"auto_migrate" mapstructure:"auto_migrate"`
	Mysql       MySQLConfig    `yaml:"mysql"`
	Postgres    PostgresConfig `yaml:"postgres"`
	Redis       RedisConfig    `yaml:"redis"`
}

// MQConfig RabbitMQ配置，Host 为空表示不发布事件
type MQConfig struct {
	Host             string `yaml:"host"`
	Port             int    `yaml:"port"`
	User             string `yaml:"user"`
	Password         string `yaml:"password"`
	Exchange         string `yaml:"exchange"`
	ChannelPoolSize  int    `yaml:"channel_pool_size" mapstructure:"channel_pool_size"`
	ConsumerPrefetch int    `yaml:"consumer_prefetch" mapstructure:"consumer_prefetch"`
	NotifyQueue      string `yaml:"notify_queue" mapstructure:"notify_queue"`
	// 消费端去重键过期时间(分钟)
	DedupTTLMinutes int `yaml:"dedup_ttl_minutes" mapstructure:"dedup_ttl_minutes"`
}

func (c MQConfig) Enabled() bool {
	return c.Host != ""
}

type CORSConfig struct {
	AllowOrigins     []string `yaml:"allow_origins" mapstructure:"allow_origins"`
	AllowCredentials bool     `yaml:"allow_credentials" mapstructure:"allow_credentials"`
	MaxAgeHours      int      `yaml:"max_age_hours" mapstructure:"max_age_hours"`
}

// Config 总配置结构体，嵌套所有子配置
type Config struct {
	Server   ServerConfig `yaml:"server"`
	Database Database     `yaml:"database"`
	JWT      JWTConfig    `yaml:"jwt"`
	Logger   Logger       `yaml:"log" mapstructure:"log"`
	MQ       MQConfig     `yaml:"mq"`
	CORS     CORSConfig   `yaml:"cors" mapstructure:"cors"`
}

func InitConfig(configPath string) (*Config, error) {
	// .env 可选，不存在时忽略
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("加载.env失败:%v", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败:%v", err)
	}

	var globalConfig Config
	if err := v.Unmarshal(&globalConfig); err != nil {
		return nil, fmt.Errorf("解析配置文件失败:%v", err)
	}

	applyDefaults(&globalConfig)

	return &globalConfig, nil
}

// LoadConfig 加载配置文件并返回配置对象
// AGRI_CONFIG 可指定路径，否则依次尝试 config/config.yaml 和 ../../config/config.yaml
func LoadConfig() (*Config, error) {
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return InitConfig(p)
	}
	cfg, err := InitConfig("config/config.yaml")
	if err != nil {
		cfg, err = InitConfig("../../config/config.yaml")
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %v", err)
		}
	}

	return cfg, nil
}

// bindEnvKeys AutomaticEnv 只对 viper 已知的 key 生效，yaml 缺省的敏感项需要显式绑定
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"jwt.secret",
		"database.driver",
		"database.mysql.host",
		"database.mysql.password",
		"database.postgres.host",
		"database.postgres.password",
		"database.redis.host",
		"database.redis.password",
		"mq.host",
		"mq.password",
		"server.mode",
	} {
		_ = v.BindEnv(key)
	}
}

// applyDefaults 补充默认值，避免零值导致无法启动
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = 10
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = 10
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = 5
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 10
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "mysql"
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Redis.PoolSize <= 0 {
		cfg.Database.Redis.PoolSize = 50
	}
	if cfg.Database.Redis.LockTTLMs <= 0 {
		cfg.Database.Redis.LockTTLMs = 10000
	}
	if cfg.JWT.ExpireHours <= 0 {
		cfg.JWT.ExpireHours = 24
	}
	if cfg.MQ.Exchange == "" {
		cfg.MQ.Exchange = "agri.exchange"
	}
	if cfg.MQ.NotifyQueue == "" {
		cfg.MQ.NotifyQueue = "agri.notifications"
	}
	if cfg.MQ.ChannelPoolSize <= 0 {
		cfg.MQ.ChannelPoolSize = 8
	}
	if cfg.MQ.ConsumerPrefetch <= 0 {
		cfg.MQ.ConsumerPrefetch = 50
	}
	if cfg.MQ.DedupTTLMinutes <= 0 {
		cfg.MQ.DedupTTLMinutes = 30
	}
	if len(cfg.CORS.AllowOrigins) == 0 {
		cfg.CORS.AllowOrigins = []string{"*"}
	}
	if cfg.CORS.MaxAgeHours <= 0 {
		cfg.CORS.MaxAgeHours = 12
	}
}
