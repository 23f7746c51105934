package app

import (
	"github.com/fisker/fleetops-backend/internal/api/handler"
)

// Handlers 包含所有 HTTP Handler 实例
type Handlers struct {
	Auth        *handler.AuthHandler
	Request     *handler.RequestHandler
	Approval    *handler.ApprovalHandler
	Reservation *handler.ReservationHandler
	Issuance    *handler.IssuanceHandler
	Stock       *handler.StockHandler
	Limit       *handler.LimitHandler
}

// InitializeHandlers 初始化所有 Handler
func InitializeHandlers(repos *Repositories, services *Services) *Handlers {
	return &Handlers{
		Auth:        handler.NewAuthHandler(services.Auth),
		Request:     handler.NewRequestHandler(services.Request, services.Auth),
		Approval:    handler.NewApprovalHandler(services.Approval, services.Auth),
		Reservation: handler.NewReservationHandler(services.Reservation, repos.Request, services.Auth),
		Issuance:    handler.NewIssuanceHandler(services.Issuance, services.Auth),
		Stock:       handler.NewStockHandler(services.Stock),
		Limit:       handler.NewLimitHandler(services.Limit, services.Auth),
	}
}
