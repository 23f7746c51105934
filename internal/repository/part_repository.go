package repository

import (
	"github.com/fisker/fleetops-backend/internal/model"
	"gorm.io/gorm"
)

type PartRepository struct {
	db *gorm.DB
}

func NewPartRepository(db *gorm.DB) *PartRepository {
	return &PartRepository{db: db}
}

// GetPart 根据ID获取备件
func (r *PartRepository) GetPart(id string) (*model.Part, error) {
	var part model.Part
	if err := r.db.First(&part, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &part, nil
}

// GetStore 根据ID获取门店
func (r *PartRepository) GetStore(id string) (*model.Store, error) {
	var store model.Store
	if err := r.db.First(&store, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// GetServiceRequest 根据ID获取维修工单
func (r *PartRepository) GetServiceRequest(id string) (*model.ServiceRequest, error) {
	var sr model.ServiceRequest
	if err := r.db.First(&sr, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sr, nil
}

// GetCategory 根据ID获取备件分类
func (r *PartRepository) GetCategory(id string) (*model.PartCategory, error) {
	var category model.PartCategory
	if err := r.db.First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}
