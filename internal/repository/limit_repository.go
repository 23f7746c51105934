package repository

import (
	"github.com/fisker/fleetops-backend/internal/model"
	"gorm.io/gorm"
)

type LimitRepository struct {
	db *gorm.DB
}

func NewLimitRepository(db *gorm.DB) *LimitRepository {
	return &LimitRepository{db: db}
}

// ListActiveByTechnician 返回技术员的全部有效限额策略
func (r *LimitRepository) ListActiveByTechnician(technicianID string) ([]model.TechnicianLimit, error) {
	var limits []model.TechnicianLimit
	err := r.db.Where("technician_id = ? AND active = ?", technicianID, true).Find(&limits).Error
	return limits, err
}

// GetByID 根据ID获取限额策略
func (r *LimitRepository) GetByID(id string) (*model.TechnicianLimit, error) {
	var limit model.TechnicianLimit
	if err := r.db.First(&limit, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &limit, nil
}

// List 查询限额策略列表
func (r *LimitRepository) List(technicianID string, page, pageSize int) (total int64, limits []model.TechnicianLimit, err error) {
	query := r.db.Model(&model.TechnicianLimit{})
	if technicianID != "" {
		query = query.Where("technician_id = ?", technicianID)
	}

	err = query.Count(&total).Error
	if err != nil {
		return
	}
	if total == 0 {
		return 0, []model.TechnicianLimit{}, nil
	}

	if pageSize > 0 && page > 0 {
		query = query.Offset((page - 1) * pageSize).Limit(pageSize)
	}
	err = query.Order("created_at DESC").Find(&limits).Error
	return
}

// Create 创建限额策略
func (r *LimitRepository) Create(limit *model.TechnicianLimit) error {
	return r.db.Create(limit).Error
}

// Update 更新限额策略
func (r *LimitRepository) Update(limit *model.TechnicianLimit) error {
	return r.db.Save(limit).Error
}

// Deactivate 停用限额策略
func (r *LimitRepository) Deactivate(id string) error {
	return r.db.Model(&model.TechnicianLimit{}).Where("id = ?", id).Update("active", false).Error
}
