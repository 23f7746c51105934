package app

import (
	"time"

	"github.com/fisker/fleetops-backend/internal/audit"
	"github.com/fisker/fleetops-backend/internal/notification"
	"github.com/fisker/fleetops-backend/internal/scheduler"
	"github.com/fisker/fleetops-backend/internal/service"
	"github.com/fisker/fleetops-backend/pkg/config"
	"github.com/fisker/fleetops-backend/pkg/database"
	"github.com/shopspring/decimal"
)

// Services 包含所有业务服务实例
type Services struct {
	Auth        *service.AuthService
	Limit       *service.LimitService
	Approval    *service.ApprovalService
	Reservation *service.ReservationService
	Issuance    *service.IssuanceService
	Request     *service.RequestService
	Stock       *service.StockService
}

// BackgroundServices 后台任务
type BackgroundServices struct {
	ReservationSweeper *scheduler.ReservationSweeper
}

// InitializeServices 初始化所有业务服务
func InitializeServices(repos *Repositories, cfg *config.Config, notifier notification.Notifier, recorder *audit.Recorder) *Services {
	authSvc := service.NewAuthService(repos.User, cfg.Security.JWTSecret, cfg.Security.SessionTimeout)

	// AutoApproveThreshold 在 config.Validate 阶段已校验过
	autoApprove, _ := decimal.NewFromString(cfg.Workflow.AutoApproveThreshold)
	limitSvc := service.NewLimitService(repos.Limit, repos.Request, repos.Part, autoApprove)

	resSvc := service.NewReservationService(
		database.DB, repos.Reservation, repos.Request, repos.Part,
		notifier, recorder,
		time.Duration(*cfg.Workflow.ReservationTTLMinutes)*time.Minute,
	)

	approvalSvc := service.NewApprovalService(
		database.DB, repos.Request, repos.Approval, resSvc,
		notifier, service.NewCasbinAuthorizer(), recorder,
	)

	issuanceSvc := service.NewIssuanceService(
		database.DB, repos.Request, repos.Reservation, repos.InstalledPart, recorder,
	)

	requestSvc := service.NewRequestService(
		database.DB, repos.Request, repos.Approval, repos.Reservation,
		repos.InstalledPart, repos.Part,
		limitSvc, approvalSvc, resSvc,
		service.NewLevelPolicy(cfg.Workflow.ApprovalLevels),
		notifier, recorder,
	)

	stockSvc := service.NewStockService(repos.Stock, repos.Part)

	return &Services{
		Auth:        authSvc,
		Limit:       limitSvc,
		Approval:    approvalSvc,
		Reservation: resSvc,
		Issuance:    issuanceSvc,
		Request:     requestSvc,
		Stock:       stockSvc,
	}
}

// InitializeBackgroundServices 初始化后台任务
func InitializeBackgroundServices(services *Services, cfg *config.Config) *BackgroundServices {
	return &BackgroundServices{
		ReservationSweeper: scheduler.NewReservationSweeper(
			services.Reservation, cfg.Workflow.SweepIntervalMinutes,
		),
	}
}
