package app

import (
	"github.com/fisker/fleetops-backend/internal/repository"
	"github.com/fisker/fleetops-backend/pkg/database"
)

// Repositories 包含所有 Repository 实例
type Repositories struct {
	User          *repository.UserRepository
	Part          *repository.PartRepository
	Stock         *repository.StockRepository
	Request       *repository.RequestRepository
	Approval      *repository.ApprovalRepository
	Reservation   *repository.ReservationRepository
	InstalledPart *repository.InstalledPartRepository
	Limit         *repository.LimitRepository
}

// InitializeRepositories 初始化所有 Repository
func InitializeRepositories() *Repositories {
	return &Repositories{
		User:          repository.NewUserRepository(database.DB),
		Part:          repository.NewPartRepository(database.DB),
		Stock:         repository.NewStockRepository(database.DB),
		Request:       repository.NewRequestRepository(database.DB),
		Approval:      repository.NewApprovalRepository(database.DB),
		Reservation:   repository.NewReservationRepository(database.DB),
		InstalledPart: repository.NewInstalledPartRepository(database.DB),
		Limit:         repository.NewLimitRepository(database.DB),
	}
}
