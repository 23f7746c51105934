package database

import (
	"fmt"

	"github.com/fisker/fleetops-backend/internal/model"
	"github.com/fisker/fleetops-backend/pkg/logger"
)

// Models 返回所有需要建表的业务模型（使用 GORM 的 TableName 方法获取实际表名）
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.PartCategory{},
		&model.Part{},
		&model.Store{},
		&model.StoreStock{},
		&model.ServiceRequest{},
		&model.SparePartRequest{},
		&model.ApprovalHistoryEntry{},
		&model.StockReservation{},
		&model.InstalledPart{},
		&model.TechnicianLimit{},
		&model.OperationLog{},
	}
}

// AutoMigrateAll 检查并创建所有业务表
func AutoMigrateAll() error {
	if DB == nil {
		return fmt.Errorf("database connection is not initialized")
	}

	logger.Info("Checking database tables...")

	tables := Models()
	for _, table := range tables {
		if err := DB.AutoMigrate(table); err != nil {
			return fmt.Errorf("failed to migrate table %T: %w", table, err)
		}
	}

	logger.Infof("Database tables ready (%d tables)", len(tables))
	return nil
}
