package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	ierr "github.com/loopcart/loopcart/internal/errors"
	"github.com/loopcart/loopcart/internal/types"
	"github.com/spf13/viper"
)

// Configuration is the full application configuration, loaded once at startup
// and passed explicitly to every component that needs it.
type Configuration struct {
	Deployment DeploymentConfig `mapstructure:"deployment"`
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Postgres   PostgresConfig   `mapstructure:"postgres"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
	Iyzico     IyzicoConfig     `mapstructure:"iyzico"`
	Shopify    ShopifyConfig    `mapstructure:"shopify"`
	Renewal    RenewalConfig    `mapstructure:"renewal"`
}

type DeploymentConfig struct {
	Mode types.RunMode `mapstructure:"mode"`
}

type ServerConfig struct {
	Address string `mapstructure:"address" validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `mapstructure:"level"`
}

type PostgresConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

type CacheConfig struct {
	Type string `mapstructure:"type"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// IyzicoConfig holds payment gateway credentials.
type IyzicoConfig struct {
	BaseURL       string `mapstructure:"base_url" validate:"required,url"`
	APIKey        string `mapstructure:"api_key"`
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

// ShopifyConfig holds storefront API credentials and the customer-facing
// checkout result page used for callback redirects.
type ShopifyConfig struct {
	ShopDomain    string `mapstructure:"shop_domain"`
	AdminToken    string `mapstructure:"admin_token"`
	APIVersion    string `mapstructure:"api_version"`
	ResultPageURL string `mapstructure:"result_page_url"`
}

// RenewalConfig configures the scheduler-triggered renewal sweep endpoint.
type RenewalConfig struct {
	SchedulerSecret string `mapstructure:"scheduler_secret"`
	BatchSize       int    `mapstructure:"batch_size"`
}

// NewConfig loads configuration from ./config.yaml (optional), the
// environment (LOOPCART_ prefix, dots mapped to underscores) and a local
// .env file when present.
func NewConfig() (*Configuration, error) {
	// .env is a local development convenience; absence is not an error.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("LOOPCART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, ierr.WithError(err).
				WithHint("Failed to read config file").
				Mark(ierr.ErrValidation)
		}
	}

	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to unmarshal configuration").
			Mark(ierr.ErrValidation)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", string(types.RunModeAPI))
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", string(types.LogLevelInfo))
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "loopcart")
	v.SetDefault("postgres.dbname", "loopcart")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.auto_migrate", false)
	v.SetDefault("cache.type", "inmemory")
	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.sample_rate", 1.0)
	v.SetDefault("iyzico.base_url", "https://api.iyzipay.com")
	v.SetDefault("shopify.api_version", "2024-07")
	v.SetDefault("renewal.batch_size", 100)
}

// Validate checks the combinations that would otherwise only fail at runtime.
func (c *Configuration) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return ierr.WithError(err).
			WithHint("Invalid configuration").
			Mark(ierr.ErrValidation)
	}
	if c.Sentry.Enabled && c.Sentry.DSN == "" {
		return ierr.NewError("sentry enabled without dsn").
			WithHint("Set sentry.dsn or disable sentry").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// DSN returns the Postgres connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// GetDefaultConfig returns a configuration suitable for early init paths and
// tests, before NewConfig has run.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.RunModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelInfo},
		Cache:      CacheConfig{Type: "inmemory"},
		Renewal:    RenewalConfig{BatchSize: 100},
	}
}
