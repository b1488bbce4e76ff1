package config

import (
	"time"

	"github.com/garyjia/expense-approval/internal/container"
	"github.com/garyjia/expense-approval/internal/domain/policy"
)

// ToContainerConfig converts the application Config to a container.Config.
// Call it on a validated Config.
func (c *Config) ToContainerConfig() *container.Config {
	approvalPolicy, _ := policy.ParsePolicy(c.Workflow.ApprovalPolicy)

	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		Workflow: container.WorkflowConfig{
			Policy:          approvalPolicy,
			DecisionRetries: c.Workflow.DecisionRetry,
		},
		Notification: container.NotificationConfig{
			Retention:       time.Duration(c.Notification.RetentionDays) * 24 * time.Hour,
			CleanupInterval: c.Notification.CleanupInterval,
			LarkEnabled:     c.Notification.LarkEnabled,
		},
		Lark: container.LarkConfig{
			AppID:     c.Lark.AppID,
			AppSecret: c.Lark.AppSecret,
			BaseURL:   c.Lark.BaseURL,
		},
		Currency: container.CurrencyConfig{
			BaseCurrency: c.Currency.BaseCurrency,
			Rates:        c.CurrencyRates(),
		},
	}
}
