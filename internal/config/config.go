package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/garyjia/expense-approval/internal/domain/policy"
	"github.com/garyjia/expense-approval/pkg/utils"
)

// Config holds all application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Workflow     WorkflowConfig     `mapstructure:"workflow"`
	Notification NotificationConfig `mapstructure:"notification"`
	Lark         LarkConfig         `mapstructure:"lark"`
	Currency     CurrencyConfig     `mapstructure:"currency"`
	Logger       LoggerConfig       `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// AuthConfig holds bearer token verification settings
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// WorkflowConfig holds approval engine settings
type WorkflowConfig struct {
	ApprovalPolicy string `mapstructure:"approval_policy"`
	DecisionRetry  int    `mapstructure:"decision_retry"`
}

// NotificationConfig holds notification settings
type NotificationConfig struct {
	RetentionDays   int           `mapstructure:"retention_days"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	LarkEnabled     bool          `mapstructure:"lark_enabled"`
}

// LarkConfig holds Lark API configuration
type LarkConfig struct {
	AppID     string `mapstructure:"app_id"`
	AppSecret string `mapstructure:"app_secret"`
	BaseURL   string `mapstructure:"base_url"`
}

// CurrencyConfig holds the static exchange rates used for base currency amounts.
// Each rate is the value of one unit of that currency in BaseCurrency.
type CurrencyConfig struct {
	BaseCurrency string            `mapstructure:"base_currency"`
	Rates        map[string]string `mapstructure:"rates"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables.
// An empty configPath uses defaults and the environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.path", "data/expenses.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("workflow.approval_policy", string(policy.PolicyThreshold))
	v.SetDefault("workflow.decision_retry", 1)

	v.SetDefault("notification.retention_days", 30)
	v.SetDefault("notification.cleanup_interval", time.Hour)
	v.SetDefault("notification.lark_enabled", false)

	v.SetDefault("currency.base_currency", "USD")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds secrets to their conventional environment names
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string]string{
		"auth.jwt_secret": "AUTH_JWT_SECRET",
		"lark.app_id":     "LARK_APP_ID",
		"lark.app_secret": "LARK_APP_SECRET",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}

	if _, err := policy.ParsePolicy(c.Workflow.ApprovalPolicy); err != nil {
		return fmt.Errorf("workflow.approval_policy: %w", err)
	}
	if c.Workflow.DecisionRetry < 0 {
		return fmt.Errorf("workflow.decision_retry must not be negative")
	}

	if c.Notification.RetentionDays <= 0 {
		return fmt.Errorf("notification.retention_days must be positive")
	}
	if c.Notification.LarkEnabled {
		if c.Lark.AppID == "" {
			return fmt.Errorf("lark.app_id is required when notification.lark_enabled is set")
		}
		if c.Lark.AppSecret == "" {
			return fmt.Errorf("lark.app_secret is required when notification.lark_enabled is set")
		}
	}

	if err := utils.ValidateCurrencyCode(c.Currency.BaseCurrency); err != nil {
		return fmt.Errorf("currency.base_currency: %w", err)
	}

	switch c.Logger.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logger.format must be json or console, got %q", c.Logger.Format)
	}

	return nil
}

// CurrencyRates returns the configured rates keyed by upper-case currency code.
// Viper lower-cases map keys when reading YAML.
func (c *Config) CurrencyRates() map[string]string {
	rates := make(map[string]string, len(c.Currency.Rates)+1)
	for code, rate := range c.Currency.Rates {
		rates[strings.ToUpper(code)] = rate
	}
	base := strings.ToUpper(c.Currency.BaseCurrency)
	if _, ok := rates[base]; !ok {
		rates[base] = "1"
	}
	return rates
}
