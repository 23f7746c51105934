package repository

import (
	"github.com/fisker/fleetops-backend/internal/model"
	"gorm.io/gorm"
)

type InstalledPartRepository struct {
	db *gorm.DB
}

func NewInstalledPartRepository(db *gorm.DB) *InstalledPartRepository {
	return &InstalledPartRepository{db: db}
}

// Create 创建安装记录
// request_id 上的唯一索引保证同一申请不会产生第二条记录
func (r *InstalledPartRepository) Create(part *model.InstalledPart) error {
	return r.db.Create(part).Error
}

// GetByRequestID 根据申请ID获取安装记录
func (r *InstalledPartRepository) GetByRequestID(requestID string) (*model.InstalledPart, error) {
	var part model.InstalledPart
	if err := r.db.First(&part, "request_id = ?", requestID).Error; err != nil {
		return nil, err
	}
	return &part, nil
}
