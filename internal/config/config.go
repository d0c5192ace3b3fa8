package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`
	GinMode    string `env:"GIN_MODE" envDefault:"release"`

	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	DatabasePath   string `env:"DATABASE_PATH" envDefault:"atelier.db"`
	DatabaseURL    string `env:"DATABASE_URL"`

	SessionSecret string `env:"SESSION_SECRET" envDefault:"atelier-dev-secret"`
	AdminUsername string `env:"ADMIN_USERNAME"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	SiteName     string `env:"SITE_NAME" envDefault:"Atelier"`
	SiteBaseURL  string `env:"SITE_BASE_URL" envDefault:"https://example.com"`
	ImageBaseURL string `env:"IMAGE_BASE_URL" envDefault:"/images"`

	Storage StorageConfig `envPrefix:"STORAGE_"`

	RedisURL       string        `env:"REDIS_URL"`
	PublishLockTTL time.Duration `env:"PUBLISH_LOCK_TTL" envDefault:"5m"`

	CORSOrigins        []string `env:"CORS_ORIGINS" envSeparator:","`
	LoginRatePerMinute int      `env:"LOGIN_RATE_PER_MINUTE" envDefault:"5"`
}

// StorageConfig 描述发布目标对象存储。
type StorageConfig struct {
	Driver    string `env:"DRIVER" envDefault:"memory"`
	Bucket    string `env:"BUCKET"`
	Region    string `env:"REGION" envDefault:"auto"`
	Endpoint  string `env:"ENDPOINT"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"true"`
	PathStyle bool   `env:"PATH_STYLE" envDefault:"false"`
}

// Load 读取 .env（若存在）与环境变量，并为缺失项提供默认值。
func Load() (AppConfig, error) {
	_ = godotenv.Load()
	return Parse(nil)
}

// Parse 解析配置；environment 非空时只使用给定的键值，便于测试。
func Parse(environment map[string]string) (AppConfig, error) {
	var cfg AppConfig
	opts := env.Options{}
	if environment != nil {
		opts.Environment = environment
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return AppConfig{}, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	cfg.SiteBaseURL = strings.TrimRight(strings.TrimSpace(cfg.SiteBaseURL), "/")
	cfg.ImageBaseURL = strings.TrimRight(strings.TrimSpace(cfg.ImageBaseURL), "/")
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	cfg.DatabaseDriver = strings.ToLower(strings.TrimSpace(cfg.DatabaseDriver))

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate 检查组合配置是否自洽。
func (c AppConfig) Validate() error {
	switch c.Storage.Driver {
	case "memory":
	case "s3", "minio":
		if c.Storage.Bucket == "" {
			return errors.New("config: STORAGE_BUCKET is required for remote storage")
		}
	default:
		return fmt.Errorf("config: unsupported STORAGE_DRIVER %q", c.Storage.Driver)
	}

	if c.Storage.Driver == "minio" && c.Storage.Endpoint == "" {
		return errors.New("config: STORAGE_ENDPOINT is required for minio")
	}

	if c.DatabaseDriver == "postgres" && strings.TrimSpace(c.DatabaseURL) == "" {
		return errors.New("config: DATABASE_URL is required for postgres")
	}

	if c.PublishLockTTL <= 0 {
		return errors.New("config: PUBLISH_LOCK_TTL must be positive")
	}
	if c.LoginRatePerMinute <= 0 {
		return errors.New("config: LOGIN_RATE_PER_MINUTE must be positive")
	}
	return nil
}
