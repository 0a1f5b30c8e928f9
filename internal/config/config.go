package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DBDriver    string `envconfig:"DB_DRIVER" default:"postgres"`
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	RedisURL    string        `envconfig:"REDIS_URL"`
	CachePrefix string        `envconfig:"CACHE_PREFIX" default:"storefront:"`
	CacheTTL    time.Duration `envconfig:"CACHE_TTL" default:"60s"`

	RabbitMQURL      string `envconfig:"RABBITMQ_URL"`
	RabbitMQExchange string `envconfig:"RABBITMQ_EXCHANGE" default:"order.exchange"`

	TelegramAPIURL   string `envconfig:"TELEGRAM_API_URL" default:"https://api.telegram.org"`
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   string `envconfig:"TELEGRAM_CHAT_ID"`

	OpenAIURL    string `envconfig:"OPENAI_API_URL" default:"https://api.openai.com/v1"`
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
	OpenAIModel  string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`

	AuthJWTSecret string   `envconfig:"AUTH_JWT_SECRET"`
	AdminEmails   []string `envconfig:"ADMIN_EMAILS"`

	FreeShippingThreshold decimal.Decimal `envconfig:"FREE_SHIPPING_THRESHOLD" default:"50"`
	DeliveryFee           decimal.Decimal `envconfig:"DELIVERY_FEE" default:"5"`

	// AtomicStockDecrement turns off the conditional UPDATE when the
	// database cannot run it; the ledger then uses read-then-write.
	AtomicStockDecrement bool `envconfig:"ATOMIC_STOCK_DECREMENT" default:"true"`

	HTTPClientTimeout time.Duration `envconfig:"HTTP_CLIENT_TIMEOUT" default:"10s"`
}

// Load reads an optional .env file and then the process environment.
func Load(logger *logrus.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if os.IsNotExist(err) {
			logger.Info(".env file not found, using environment variables or defaults")
		} else {
			logger.Warnf("Error loading .env file (but continuing): %v", err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	for i, email := range cfg.AdminEmails {
		cfg.AdminEmails[i] = strings.ToLower(strings.TrimSpace(email))
	}

	logger.Infof("Configuration loaded: port=%s driver=%s log_level=%s", cfg.Port, cfg.DBDriver, cfg.LogLevel)
	if cfg.TelegramBotToken == "" || cfg.TelegramChatID == "" {
		logger.Info("Telegram credentials not set, order notifications disabled")
	}
	if cfg.AuthJWTSecret == "" {
		logger.Warn("AUTH_JWT_SECRET not set, admin routes will reject every request")
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBDriver != "postgres" && c.DBDriver != "mysql" {
		return fmt.Errorf("DB_DRIVER must be postgres or mysql, got %q", c.DBDriver)
	}
	if c.FreeShippingThreshold.IsNegative() {
		return fmt.Errorf("FREE_SHIPPING_THRESHOLD cannot be negative")
	}
	if c.DeliveryFee.IsNegative() {
		return fmt.Errorf("DELIVERY_FEE cannot be negative")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	return nil
}
