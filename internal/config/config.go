// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Режимы согласования квоты магазина с количеством товаров.
const (
	// QuotaModeDecoupled квота меняется только отдельными вызовами increment/decrement.
	QuotaModeDecoupled = "decoupled"
	// QuotaModeCoupled добавление и удаление товара атомарно меняют квоту.
	QuotaModeCoupled = "coupled"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env-required:"true"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	Payment                 `yaml:"payment"`
	Quota                   `yaml:"quota"`
	Sales                   `yaml:"sales"`
	RabbitMQ                `yaml:"rabbitmq"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP    string        `yaml:"addresshttp" env-default:":8000"`
	TimeoutHTTP    time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env-default:"60s"`
	RequestTimeout time.Duration `yaml:"request_timeout" env-default:"5s"`
	RateLimitRPS   float64       `yaml:"rate_limit_rps" env-default:"20"`
	RateLimitBurst int           `yaml:"rate_limit_burst" env-default:"40"`
	CookieSecure   bool          `yaml:"cookie_secure" env-default:"false"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env-default:"localhost:6379"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db" env-default:"0"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"2s"`
	CacheTTL     time.Duration `yaml:"cache_ttl" env-default:"10m"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env-required:"true"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"8760h"`
	CookieName   string        `yaml:"cookie_name" env-default:"token"`
}

// Payment структура для настройки платежного шлюза
type Payment struct {
	APIURL        string        `yaml:"api_url" env-default:"https://api.stripe.com/v1"`
	SecretKey     string        `yaml:"secret_key"`
	Currency      string        `yaml:"currency" env-default:"usd"`
	WebhookSecret string        `yaml:"webhook_secret"`
	Timeout       time.Duration `yaml:"timeout" env-default:"10s"`
}

// Quota структура с правилами квоты товаров магазина.
// Tiers задает прибавку квоты тарифа, Prices его цену в основных единицах валюты.
type Quota struct {
	Mode    string             `yaml:"mode" env-default:"decoupled"`
	Initial int                `yaml:"initial" env-default:"3"`
	Tiers   map[string]int     `yaml:"tiers"`
	Prices  map[string]float64 `yaml:"prices"`
}

// Sales структура с правилами учета продаж
type Sales struct {
	EnforceStock bool `yaml:"enforce_stock" env-default:"false"`
}

// RabbitMQ структура для подключения к брокеру событий. Пустой URL отключает публикацию.
type RabbitMQ struct {
	URL        string        `yaml:"url"`
	MaxRetries int           `yaml:"max_retries" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
	Exchange   string        `yaml:"exchange" env-default:"quickstock.events"`
}

// DefaultTiers тарифы по умолчанию: сколько товаров добавляет оплаченная подписка.
func DefaultTiers() map[string]int {
	return map[string]int{
		"basic":    200,
		"standard": 450,
		"premium":  1500,
	}
}

// DefaultPrices цены тарифов по умолчанию.
func DefaultPrices() map[string]float64 {
	return map[string]float64{
		"basic":    9.99,
		"standard": 19.99,
		"premium":  49.99,
	}
}

// MustLoad функция для загрузки конфига из файла, путь к которому задан в CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// Load читает и проверяет конфиг по указанному пути.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Tiers) == 0 {
		cfg.Tiers = DefaultTiers()
	}
	if len(cfg.Prices) == 0 {
		cfg.Prices = DefaultPrices()
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Quota.Mode {
	case QuotaModeDecoupled, QuotaModeCoupled:
	default:
		return fmt.Errorf("quota.mode must be %q or %q, got %q", QuotaModeDecoupled, QuotaModeCoupled, c.Quota.Mode)
	}
	if c.Quota.Initial < 0 {
		return fmt.Errorf("quota.initial must not be negative, got %d", c.Quota.Initial)
	}
	for tier := range c.Tiers {
		if price, ok := c.Prices[tier]; !ok || price < 0.01 {
			return fmt.Errorf("quota.prices must set a price of at least 0.01 for tier %q", tier)
		}
	}
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"StorageConnectionString: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  User: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  RequestTimeout: %s\n"+
			"JWTToken:\n"+
			"  JWTSecretKey: %s\n"+
			"  TokenTTL: %s\n"+
			"Payment:\n"+
			"  APIURL: %s\n"+
			"  SecretKey: %s\n"+
			"Quota:\n"+
			"  Mode: %s\n"+
			"  Initial: %d\n",
		c.Env,
		redact(c.StorageConnectionString),
		c.AddressRedis,
		c.User,
		c.DB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.RequestTimeout,
		redact(c.JWTSecretKey),
		c.TokenTTL,
		c.APIURL,
		redact(c.SecretKey),
		c.Quota.Mode,
		c.Quota.Initial,
	)
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}
