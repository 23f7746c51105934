package app

import (
	"github.com/fisker/fleetops-backend/internal/audit"
	"github.com/fisker/fleetops-backend/internal/notification"
	"github.com/fisker/fleetops-backend/pkg/config"
	"github.com/fisker/fleetops-backend/pkg/database"
	"github.com/fisker/fleetops-backend/pkg/logger"
)

// App 应用程序上下文
type App struct {
	Config             *config.Config
	Repos              *Repositories
	Services           *Services
	BackgroundServices *BackgroundServices
	Handlers           *Handlers
	Recorder           *audit.Recorder
	Notifier           notification.Notifier
}

// Initialize 初始化应用程序
func Initialize(cfgPath string) (*App, error) {
	// 1. Bootstrap (logger, database, redis, casbin)
	cfg, err := Bootstrap(cfgPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			database.Close()
		}
	}()

	// 2. Initialize repositories
	repos := InitializeRepositories()
	logger.Infof("Repositories initialized")

	// 3. Audit recorder and notifier
	recorder := audit.NewRecorder(database.DB)
	notifier := notification.NewLogNotifier()

	// 4. Initialize services
	services := InitializeServices(repos, cfg, notifier, recorder)
	logger.Infof("Services initialized")

	// 5. Initialize background services
	backgroundServices := InitializeBackgroundServices(services, cfg)
	logger.Infof("Background services initialized")
	logger.Infof("   Reservation sweeper configured (interval: %d minutes)", cfg.Workflow.SweepIntervalMinutes)

	// 6. Initialize handlers
	handlers := InitializeHandlers(repos, services)
	logger.Infof("Handlers initialized")

	return &App{
		Config:             cfg,
		Repos:              repos,
		Services:           services,
		BackgroundServices: backgroundServices,
		Handlers:           handlers,
		Recorder:           recorder,
		Notifier:           notifier,
	}, nil
}
