package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ==================== 配置定义 ====================

// Config 应用全部配置
type Config struct {
	Env        string // production | development
	ServerPort string
	AppURL     string // 对外地址，用于 OAuth 回调和 Webhook 注册

	// 数据库
	DatabaseDSN string

	// Shopify 应用凭证
	// APISecret 同时是 App Proxy 签名、Webhook HMAC、Session Token 的共享密钥
	ShopifyAPIKey    string
	ShopifyAPISecret string
	ShopifyScopes    string

	// PII 加密全局密钥（与店铺 ID 一起派生每店铺密钥）
	EncryptionSecret string

	// Redis（可选，为空则限流计数退化为进程内语义）
	RedisAddr string

	// 限流
	RateLimitGeneral      int
	RateLimitStrict       int
	RateLimitWindowSecond int

	// 对象存储（页面素材）
	StorageProvider string
	StorageBucket   string
	StorageRegion   string
	StorageAccess   string
	StorageSecret   string
	StorageCDN      string
	StorageBasePath string
}

// IsProduction 是否生产环境
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// RateLimitWindow 限流窗口时长
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSecond) * time.Second
}

// ==================== 加载 ====================

// Load 从环境变量加载配置（可选叠加 config.yaml）
func Load() *Config {
	v := viper.New()

	// 默认值
	v.SetDefault("env", "development")
	v.SetDefault("server_port", "8080")
	v.SetDefault("app_url", "http://localhost:8080")
	v.SetDefault("database_dsn", "host=localhost user=lp_admin password=1234 dbname=lp_builder port=5432 sslmode=disable")
	v.SetDefault("shopify_scopes", "write_content,read_themes")
	v.SetDefault("rate_limit_general", 300)
	v.SetDefault("rate_limit_strict", 20)
	v.SetDefault("rate_limit_window_second", 60)
	v.SetDefault("storage_provider", "s3")
	v.SetDefault("storage_base_path", "lp-builder")

	// 环境变量优先：SHOPIFY_API_SECRET 等
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 本地开发可放一个 config.yaml，找不到不算错
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err == nil {
		log.Printf("已加载配置文件: %s", v.ConfigFileUsed())
	}

	cfg := &Config{
		Env:                   v.GetString("env"),
		ServerPort:            v.GetString("server_port"),
		AppURL:                v.GetString("app_url"),
		DatabaseDSN:           v.GetString("database_dsn"),
		ShopifyAPIKey:         v.GetString("shopify_api_key"),
		ShopifyAPISecret:      v.GetString("shopify_api_secret"),
		ShopifyScopes:         v.GetString("shopify_scopes"),
		EncryptionSecret:      v.GetString("encryption_secret"),
		RedisAddr:             v.GetString("redis_addr"),
		RateLimitGeneral:      v.GetInt("rate_limit_general"),
		RateLimitStrict:       v.GetInt("rate_limit_strict"),
		RateLimitWindowSecond: v.GetInt("rate_limit_window_second"),
		StorageProvider:       v.GetString("storage_provider"),
		StorageBucket:         v.GetString("aws_bucket"),
		StorageRegion:         v.GetString("aws_region"),
		StorageAccess:         v.GetString("aws_access_key_id"),
		StorageSecret:         v.GetString("aws_secret_access_key"),
		StorageCDN:            v.GetString("aws_cdn_domain"),
		StorageBasePath:       v.GetString("storage_base_path"),
	}

	// 生产环境缺关键密钥直接拒绝启动，避免带病上线
	if cfg.IsProduction() {
		if cfg.ShopifyAPISecret == "" {
			log.Fatal("生产环境必须配置 SHOPIFY_API_SECRET")
		}
		if cfg.EncryptionSecret == "" {
			log.Fatal("生产环境必须配置 ENCRYPTION_SECRET")
		}
	}

	return cfg
}
