// Package container provides dependency injection and lifecycle management
// for the expense approval service.
package container

import (
	"fmt"
	"time"

	"github.com/garyjia/expense-approval/internal/domain/policy"
)

// Config holds all configuration for the Container.
type Config struct {
	Database     DatabaseConfig
	Workflow     WorkflowConfig
	Notification NotificationConfig
	Lark         LarkConfig
	Currency     CurrencyConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// WorkflowConfig holds approval engine settings.
type WorkflowConfig struct {
	Policy policy.Policy

	// DecisionRetries is how often a decision is retried after losing a concurrent update
	DecisionRetries int
}

// NotificationConfig holds notification delivery and retention settings.
type NotificationConfig struct {
	Retention       time.Duration
	CleanupInterval time.Duration

	// LarkEnabled mirrors in-app notifications to Lark for users with an open id
	LarkEnabled bool
}

// LarkConfig holds Lark API settings.
type LarkConfig struct {
	AppID     string
	AppSecret string
	BaseURL   string
}

// CurrencyConfig holds static exchange rates relative to BaseCurrency.
type CurrencyConfig struct {
	BaseCurrency string
	Rates        map[string]string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/expenses.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Workflow: WorkflowConfig{
			Policy:          policy.PolicyThreshold,
			DecisionRetries: 1,
		},
		Notification: NotificationConfig{
			Retention:       30 * 24 * time.Hour,
			CleanupInterval: time.Hour,
		},
		Currency: CurrencyConfig{
			BaseCurrency: "USD",
			Rates:        map[string]string{"USD": "1"},
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if _, err := policy.ParsePolicy(string(c.Workflow.Policy)); err != nil {
		return err
	}
	if c.Notification.LarkEnabled && (c.Lark.AppID == "" || c.Lark.AppSecret == "") {
		return fmt.Errorf("lark credentials are required when lark notifications are enabled")
	}
	if c.Currency.BaseCurrency == "" {
		return fmt.Errorf("currency.base_currency is required")
	}
	return nil
}
