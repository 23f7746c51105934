package repository

import (
	"time"

	"github.com/fisker/fleetops-backend/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create 创建备件申请
func (r *RequestRepository) Create(req *model.SparePartRequest) error {
	return r.db.Create(req).Error
}

// GetByID 根据ID获取申请
func (r *RequestRepository) GetByID(id string) (*model.SparePartRequest, error) {
	var req model.SparePartRequest
	if err := r.db.First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// List 查询申请列表
func (r *RequestRepository) List(status, technicianID, serviceRequestID string, page, pageSize int) (total int64, requests []model.SparePartRequest, err error) {
	query := r.db.Model(&model.SparePartRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if technicianID != "" {
		query = query.Where("technician_id = ?", technicianID)
	}
	if serviceRequestID != "" {
		query = query.Where("service_request_id = ?", serviceRequestID)
	}

	err = query.Count(&total).Error
	if err != nil {
		return
	}
	if total == 0 {
		return 0, []model.SparePartRequest{}, nil
	}

	if pageSize > 0 && page > 0 {
		query = query.Offset((page - 1) * pageSize).Limit(pageSize)
	}
	err = query.Order("created_at DESC").Find(&requests).Error
	return
}

// TransitionStatus 条件更新申请状态：只有当前状态仍为 from 时才生效
// 返回 false 表示状态已被并发修改，调用方应按冲突处理
func (r *RequestRepository) TransitionStatus(id string, from, to model.RequestStatus, extra map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	result := r.db.Model(&model.SparePartRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UpdateCurrentLevel 推进审批级别（级别只增不减）
func (r *RequestRepository) UpdateCurrentLevel(id string, level int) error {
	return r.db.Model(&model.SparePartRequest{}).
		Where("id = ? AND current_level < ?", id, level).
		Update("current_level", level).Error
}

// SetActualCost 写入实际成本（成本核销）
func (r *RequestRepository) SetActualCost(id string, cost decimal.Decimal) error {
	return r.db.Model(&model.SparePartRequest{}).
		Where("id = ?", id).
		Update("actual_cost", cost).Error
}

// windowUsage 时间窗口内的累计用量
type windowUsage struct {
	TotalQty   int64
	TotalValue decimal.Decimal
}

// AccumulatedUsage 统计技术员在 [since, now) 窗口内已批准/已出库/已安装申请的
// 累计数量与金额；金额取实际成本，没有实际成本时取估算成本
// partID/categoryID 用于 part/category 作用域的限额评估，为空表示不过滤
func (r *RequestRepository) AccumulatedUsage(technicianID string, since time.Time, partID, categoryID string) (qty int, value decimal.Decimal, err error) {
	query := r.db.Model(&model.SparePartRequest{}).
		Select("COALESCE(SUM(spare_part_requests.quantity), 0) AS total_qty, COALESCE(SUM(COALESCE(spare_part_requests.actual_cost, spare_part_requests.estimated_cost)), 0) AS total_value").
		Where("spare_part_requests.technician_id = ?", technicianID).
		Where("spare_part_requests.status IN ?", []model.RequestStatus{
			model.RequestStatusApproved,
			model.RequestStatusIssued,
			model.RequestStatusInstalled,
		}).
		Where("spare_part_requests.requested_at >= ?", since)

	if partID != "" {
		query = query.Where("spare_part_requests.part_id = ?", partID)
	}
	if categoryID != "" {
		query = query.Joins("JOIN parts ON parts.id = spare_part_requests.part_id").
			Where("parts.category_id = ?", categoryID)
	}

	var usage windowUsage
	if err = query.Scan(&usage).Error; err != nil {
		return 0, decimal.Zero, err
	}
	return int(usage.TotalQty), usage.TotalValue, nil
}
