package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	Redis    RedisConfig
	Catalog  CatalogConfig
	Cart     CartConfig
	Checkout CheckoutConfig
	Razorpay RazorpayConfig
	Auth     AuthConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"USHOES_APP_ENV" required:"true"`
	Port         string `envconfig:"USHOES_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"USHOES_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"USHOES_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type RedisConfig struct {
	URL          string        `envconfig:"USHOES_REDIS_URL" required:"true"`
	Address      string        `envconfig:"USHOES_REDIS_ADDR"`
	Password     string        `envconfig:"USHOES_REDIS_PASSWORD"`
	DB           int           `envconfig:"USHOES_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"USHOES_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"USHOES_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"USHOES_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"USHOES_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"USHOES_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type CatalogConfig struct {
	PageSize       int           `envconfig:"USHOES_CATALOG_PAGE_SIZE" default:"10"`
	ReloadInterval time.Duration `envconfig:"USHOES_CATALOG_RELOAD_INTERVAL" default:"5m"`
}

type CartConfig struct {
	// TTL of zero keeps carts until they are cleared explicitly.
	TTL time.Duration `envconfig:"USHOES_CART_TTL" default:"0"`
}

type CheckoutConfig struct {
	FreeShippingOver string        `envconfig:"USHOES_CHECKOUT_FREE_SHIPPING_OVER" default:"2000"`
	ShippingFee      string        `envconfig:"USHOES_CHECKOUT_SHIPPING_FEE" default:"99"`
	TaxRate          string        `envconfig:"USHOES_CHECKOUT_TAX_RATE" default:"0.08"`
	SimulatedDelay   time.Duration `envconfig:"USHOES_CHECKOUT_SIMULATED_DELAY" default:"2s"`
}

func (c CheckoutConfig) validate() error {
	for name, value := range map[string]string{
		"free shipping threshold": c.FreeShippingOver,
		"shipping fee":            c.ShippingFee,
		"tax rate":                c.TaxRate,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("checkout %s is required", name)
		}
	}
	return nil
}

type RazorpayConfig struct {
	KeyID     string `envconfig:"USHOES_RAZORPAY_KEY_ID"`
	KeySecret string `envconfig:"USHOES_RAZORPAY_KEY_SECRET"`
	Currency  string `envconfig:"USHOES_RAZORPAY_CURRENCY" default:"INR"`
	Env       string `envconfig:"USHOES_RAZORPAY_ENV" default:"test"`
}

// Environment returns the normalized Razorpay environment (test/live).
func (r RazorpayConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(r.Env))
	if env == "" {
		return "test"
	}
	return env
}

// Enabled reports whether the gateway integration is configured. When false
// the checkout flow falls back to its simulated-delay variant.
func (r RazorpayConfig) Enabled() bool {
	return strings.TrimSpace(r.KeyID) != "" && strings.TrimSpace(r.KeySecret) != ""
}

type AuthConfig struct {
	// JWTSecret verifies bearer tokens minted by the external identity
	// provider. Empty disables verification and every cart is a
	// header-scoped guest session.
	JWTSecret string `envconfig:"USHOES_AUTH_JWT_SECRET"`
	Issuer    string `envconfig:"USHOES_AUTH_JWT_ISSUER"`
}
