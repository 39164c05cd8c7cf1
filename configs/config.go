package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the application configuration
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	APIKey      string `envconfig:"API_KEY"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// 管理者（メンテナンスモード切替）
	AdminUsername string `envconfig:"ADMIN_USERNAME"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`

	// アップロード上限（MB）
	MaxUploadMB int64 `envconfig:"MAX_UPLOAD_MB" default:"32"`

	// 需要予測の設定
	ForecastWorkers  int           `envconfig:"FORECAST_WORKERS" default:"4"`
	ForecastTimeout  time.Duration `envconfig:"FORECAST_TIMEOUT" default:"2m"`
	IntervalWidth    float64       `envconfig:"FORECAST_INTERVAL_WIDTH" default:"0.8"`
	CalendarMonths   bool          `envconfig:"FORECAST_CALENDAR_MONTHS" default:"false"`
	DefaultMonths    int           `envconfig:"FORECAST_DEFAULT_MONTHS" default:"3"`
	RateLimitRPS     float64       `envconfig:"RATE_LIMIT_RPS" default:"5"`
	RateLimitBurst   int           `envconfig:"RATE_LIMIT_BURST" default:"10"`
	RateLimitEnabled bool          `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("環境変数の読み込みに失敗: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction 本番環境かどうか
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// MaxUploadBytes アップロード上限をバイトで返す
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

func (c *Config) validate() error {
	if c.ForecastWorkers < 1 {
		return fmt.Errorf("FORECAST_WORKERS は1以上を指定してください: %d", c.ForecastWorkers)
	}
	if c.IntervalWidth <= 0 || c.IntervalWidth >= 1 {
		return fmt.Errorf("FORECAST_INTERVAL_WIDTH は0と1の間で指定してください: %v", c.IntervalWidth)
	}
	if c.DefaultMonths < 1 || c.DefaultMonths > 12 {
		return fmt.Errorf("FORECAST_DEFAULT_MONTHS は1〜12で指定してください: %d", c.DefaultMonths)
	}
	if c.MaxUploadMB < 1 {
		return fmt.Errorf("MAX_UPLOAD_MB は1以上を指定してください: %d", c.MaxUploadMB)
	}
	return nil
}
