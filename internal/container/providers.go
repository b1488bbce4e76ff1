package container

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/garyjia/expense-approval/internal/application/dispatcher"
	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/application/service"
	"github.com/garyjia/expense-approval/internal/application/workflow"
	"github.com/garyjia/expense-approval/internal/infrastructure/currency"
	"github.com/garyjia/expense-approval/internal/infrastructure/export"
	infraLark "github.com/garyjia/expense-approval/internal/infrastructure/external/lark"
	"github.com/garyjia/expense-approval/internal/infrastructure/persistence/repository"
	"github.com/garyjia/expense-approval/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/expense-approval/internal/infrastructure/worker"
	"github.com/garyjia/expense-approval/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	Conn           *database.DB
	TransactionMgr *sqlite.DB
}

// ProvideDatabase opens the database, applies pending migrations and wraps
// the connection in a transaction manager.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}

	if dir := filepath.Dir(cfg.Path); dir != "." && cfg.Path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(conn, logger).RunEmbedded(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		Conn:           conn,
		TransactionMgr: sqlite.NewDB(conn.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(conn *database.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if conn == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	db := conn.DB
	return &RepositoryBundle{
		Expenses:      repository.NewExpenseRepository(db, logger),
		Rules:         repository.NewApprovalRuleRepository(db, logger),
		Plans:         repository.NewApprovalPlanRepository(db, logger),
		Requests:      repository.NewApprovalRequestRepository(db, logger),
		Directory:     repository.NewDirectoryRepository(db, logger),
		Notifications: repository.NewNotificationRepository(db, logger),
	}, nil
}

// ProvideMessenger creates the Lark chat messenger, or nil when Lark is disabled.
func ProvideMessenger(cfg *Config, logger *zap.Logger) port.ChatMessenger {
	if !cfg.Notification.LarkEnabled {
		logger.Info("Lark notifications disabled")
		return nil
	}

	client := infraLark.NewSDKClient(infraLark.Config{
		AppID:     cfg.Lark.AppID,
		AppSecret: cfg.Lark.AppSecret,
		BaseURL:   cfg.Lark.BaseURL,
	}, logger)
	return infraLark.NewMessenger(client, logger)
}

// ProvideConverter creates the static-rate currency converter.
func ProvideConverter(cfg *CurrencyConfig) (port.CurrencyConverter, error) {
	converter, err := currency.NewStaticConverter(cfg.BaseCurrency, cfg.Rates)
	if err != nil {
		return nil, fmt.Errorf("failed to create currency converter: %w", err)
	}
	return converter, nil
}

// ProvideDispatcher creates the in-process event dispatcher.
func ProvideDispatcher(logger *zap.Logger) dispatcher.Dispatcher {
	return dispatcher.NewDispatcher(dispatcher.WithLogger(newLogAdapter(logger)))
}

// ServiceDeps holds dependencies for creating the engine and services.
type ServiceDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Dispatcher dispatcher.Dispatcher
	Messenger  port.ChatMessenger
	Converter  port.CurrencyConverter
	Workflow   *WorkflowConfig
	Logger     *zap.Logger
}

// ProvideServices creates the workflow engine and the application services,
// and subscribes the notification handlers to the dispatcher.
func ProvideServices(deps *ServiceDeps) (workflow.Engine, *ServiceBundle, error) {
	if deps == nil || deps.Repos == nil {
		return nil, nil, fmt.Errorf("service dependencies are required")
	}
	repos := deps.Repos
	appLogger := newLogAdapter(deps.Logger)

	engine := workflow.NewEngine(workflow.Repositories{
		Expenses:  repos.Expenses,
		Rules:     repos.Rules,
		Plans:     repos.Plans,
		Requests:  repos.Requests,
		Directory: repos.Directory,
	}, deps.TxManager,
		workflow.WithDispatcher(deps.Dispatcher),
		workflow.WithLogger(appLogger),
		workflow.WithPolicy(deps.Workflow.Policy),
		workflow.WithDecisionRetries(deps.Workflow.DecisionRetries),
	)

	notifications := service.NewNotificationService(repos.Notifications, repos.Directory, deps.Messenger, appLogger)
	notifications.Register(deps.Dispatcher)

	services := &ServiceBundle{
		Expenses: service.NewExpenseService(
			repos.Expenses, repos.Requests, repos.Directory, deps.Converter, engine, deps.TxManager, appLogger),
		Approvals: service.NewApprovalService(
			repos.Expenses, repos.Requests, repos.Directory, engine, export.NewWorkbookExporter(deps.Logger), appLogger),
		Rules:         service.NewRuleService(repos.Rules, repos.Directory, deps.Dispatcher, appLogger),
		Notifications: notifications,
	}

	return engine, services, nil
}

// ProvideWorkers creates the worker manager with the notification retention worker registered.
func ProvideWorkers(cfg *NotificationConfig, purger worker.Purger, logger *zap.Logger) *worker.WorkerManager {
	manager := worker.NewWorkerManager(logger)
	manager.Register(worker.NewRetentionWorker(worker.RetentionConfig{
		Interval: cfg.CleanupInterval,
		MaxAge:   cfg.Retention,
	}, purger, logger))
	return manager
}
